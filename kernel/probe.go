package kernel

import "github.com/sirupsen/logrus"

// ProbeEvent is the tag identifying what kind of thing just happened, passed
// to Observer.Notify alongside the level and tick it happened at.
type ProbeEvent string

const (
	// EventOrphanTarget: an influence targeted an agent not present in the
	// level at reaction time. Recovered in place (the influence is dropped).
	EventOrphanTarget ProbeEvent = "orphan_target"
	// EventOutOfTopology: a position update clamped or wrapped at a
	// boundary.
	EventOutOfTopology ProbeEvent = "out_of_topology"
	// EventConversionUnderflow: a micro<->macro conversion could not
	// conserve vehicle count exactly and rounded.
	EventConversionUnderflow ProbeEvent = "conversion_underflow"
	// EventLevelActivated: a level ran its perception/decision/reaction
	// cycle this step.
	EventLevelActivated ProbeEvent = "level_activated"
	// EventModeSwitch: a hybridizer lane changed Micro/Macro/Transitioning
	// mode.
	EventModeSwitch ProbeEvent = "mode_switch"
)

// Observer is notified of scheduler and reactor lifecycle events. Intended
// for test assertions and diagnostic logging; a nil Observer is never
// required (Scheduler tolerates it being unset internally by falling back
// to a no-op).
type Observer interface {
	Notify(now TimeStamp, level LevelIdentifier, event ProbeEvent, detail string)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(now TimeStamp, level LevelIdentifier, event ProbeEvent, detail string)

func (f ObserverFunc) Notify(now TimeStamp, level LevelIdentifier, event ProbeEvent, detail string) {
	f(now, level, event, detail)
}

// noopObserver discards every event.
type noopObserver struct{}

func (noopObserver) Notify(TimeStamp, LevelIdentifier, ProbeEvent, string) {}

// LogObserver forwards events to a logrus.FieldLogger, one structured log
// line per event, grounded on the teacher's logrus.Warnf call sites
// (sim/batch_formation.go) generalized into a reusable sink.
type LogObserver struct {
	Log logrus.FieldLogger
}

// NewLogObserver returns a LogObserver writing through the standard logrus
// logger if log is nil.
func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogObserver{Log: log}
}

func (o *LogObserver) Notify(now TimeStamp, level LevelIdentifier, event ProbeEvent, detail string) {
	entry := o.Log.WithFields(logrus.Fields{
		"tick":  int64(now),
		"level": string(level),
		"event": string(event),
	})
	switch event {
	case EventOrphanTarget, EventConversionUnderflow:
		entry.Warn(detail)
	default:
		entry.Debug(detail)
	}
}
