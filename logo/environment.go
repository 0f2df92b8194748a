// Package logo implements the Logo/turtle level: a discrete pheromone grid
// with diffusion and evaporation, marks, and turtle kinematics, reacted by
// a kernel.LevelReactor against the full influence vocabulary of spec §3.
package logo

import (
	"math"
	"math/rand"
)

// Pheromone is one named diffusing, evaporating field definition. Grounded
// on similar2logo's Pheromone model (original_source/cpp/similar2logo/src/
// kernel/model/environment referenced by Environment::add_pheromone).
type Pheromone struct {
	ID             string
	DiffusionCoef  float64
	EvaporationCoef float64
	DefaultValue   float64
	MinValue       float64
}

// Environment is the Logo level's shared spatial substrate: a
// width x height grid (toroidal or bounded) carrying zero or more
// pheromone fields plus a set of marks per cell. Grounded on similar2logo's
// Environment (original_source/cpp/similar2logo/src/kernel/environment/
// Environment.cpp).
type Environment struct {
	Width, Height int
	Toroidal      bool

	pheromones map[string]Pheromone
	grids      map[string][][]float64 // [id][y][x]
	marks      map[[2]int][]any
}

// NewEnvironment returns an environment with no pheromones or marks yet
// registered.
func NewEnvironment(width, height int, toroidal bool) *Environment {
	return &Environment{
		Width: width, Height: height, Toroidal: toroidal,
		pheromones: make(map[string]Pheromone),
		grids:      make(map[string][][]float64),
		marks:      make(map[[2]int][]any),
	}
}

// AddPheromone registers a pheromone field, initializing every cell to
// defaultVal.
func (e *Environment) AddPheromone(id string, diffusion, evaporation, defaultVal, minVal float64) {
	e.pheromones[id] = Pheromone{ID: id, DiffusionCoef: diffusion, EvaporationCoef: evaporation, DefaultValue: defaultVal, MinValue: minVal}
	grid := make([][]float64, e.Height)
	for y := range grid {
		row := make([]float64, e.Width)
		for x := range row {
			row[x] = defaultVal
		}
		grid[y] = row
	}
	e.grids[id] = grid
}

// wrapCell normalizes a continuous coordinate to the nearest in-bounds grid
// cell: modulo wrap for toroidal environments, clamp otherwise.
func (e *Environment) wrapCell(x, y float64) (int, int) {
	ix := int(math.Round(x))
	iy := int(math.Round(y))
	if e.Toroidal {
		ix = ((ix % e.Width) + e.Width) % e.Width
		iy = ((iy % e.Height) + e.Height) % e.Height
	} else {
		ix = clampInt(ix, 0, e.Width-1)
		iy = clampInt(iy, 0, e.Height-1)
	}
	return ix, iy
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapPosition normalizes a continuous (x, y) position into the
// environment's bounds: modulo wrap for toroidal environments, clamp
// otherwise.
func (e *Environment) WrapPosition(x, y float64) (float64, float64) {
	if e.Toroidal {
		x = math.Mod(x, float64(e.Width))
		if x < 0 {
			x += float64(e.Width)
		}
		y = math.Mod(y, float64(e.Height))
		if y < 0 {
			y += float64(e.Height)
		}
		return x, y
	}
	return clampFloat(x, 0, float64(e.Width-1)), clampFloat(y, 0, float64(e.Height-1))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetPheromone sets the value of one pheromone cell, rounding (x, y) to the
// nearest grid cell.
func (e *Environment) SetPheromone(x, y float64, id string, value float64) {
	grid, ok := e.grids[id]
	if !ok {
		return
	}
	ix, iy := e.wrapCell(x, y)
	grid[iy][ix] = value
}

// PheromoneValue returns the value of one pheromone cell, 0 if id is
// unregistered.
func (e *Environment) PheromoneValue(x, y float64, id string) float64 {
	grid, ok := e.grids[id]
	if !ok {
		return 0
	}
	ix, iy := e.wrapCell(x, y)
	return grid[iy][ix]
}

// DiffuseAndEvaporate advances every registered pheromone field by dt: an
// 8-connected diffusion pass redistributes DiffusionCoef*value*dt of each
// cell's mass evenly among its neighbors, then an evaporation pass decays
// every cell by EvaporationCoef*value*dt, snapping to zero below MinValue.
func (e *Environment) DiffuseAndEvaporate(dt float64) {
	for id, pher := range e.pheromones {
		grid := e.grids[id]

		if pher.DiffusionCoef > 0 {
			next := cloneGrid(grid)
			for y := 0; y < e.Height; y++ {
				for x := 0; x < e.Width; x++ {
					current := grid[y][x]
					if current <= 0 {
						continue
					}
					neighbors := e.neighbors(x, y)
					if len(neighbors) == 0 {
						continue
					}
					amount := pher.DiffusionCoef * current * dt
					perNeighbor := amount / float64(len(neighbors))
					for _, n := range neighbors {
						next[n[1]][n[0]] += perNeighbor
					}
					next[y][x] -= amount
				}
			}
			grid = next
		}

		if pher.EvaporationCoef > 0 {
			for y := 0; y < e.Height; y++ {
				for x := 0; x < e.Width; x++ {
					current := grid[y][x]
					evap := pher.EvaporationCoef * current * dt
					newVal := current - evap
					if newVal < pher.MinValue {
						newVal = 0
					}
					grid[y][x] = newVal
				}
			}
		}

		e.grids[id] = grid
	}
}

func cloneGrid(grid [][]float64) [][]float64 {
	out := make([][]float64, len(grid))
	for i, row := range grid {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func (e *Environment) neighbors(x, y int) [][2]int {
	var out [][2]int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if e.Toroidal {
				nx = ((nx % e.Width) + e.Width) % e.Width
				ny = ((ny % e.Height) + e.Height) % e.Height
			} else if nx < 0 || nx >= e.Width || ny < 0 || ny >= e.Height {
				continue
			}
			out = append(out, [2]int{nx, ny})
		}
	}
	return out
}

// AddMark drops mark into the cell at (x, y).
func (e *Environment) AddMark(x, y int, mark any) {
	key := [2]int{x, y}
	e.marks[key] = append(e.marks[key], mark)
}

// RemoveMark removes the first occurrence of mark from the cell at (x, y),
// a no-op if it is not present (set semantics).
func (e *Environment) RemoveMark(x, y int, mark any) {
	key := [2]int{x, y}
	marks := e.marks[key]
	for i, m := range marks {
		if m == mark {
			e.marks[key] = append(marks[:i], marks[i+1:]...)
			return
		}
	}
}

// MarksAt returns the marks currently in the cell at (x, y).
func (e *Environment) MarksAt(x, y int) []any {
	return e.marks[[2]int{x, y}]
}

// RandomPosition draws a uniformly random position within the environment's
// bounds from rng.
func (e *Environment) RandomPosition(rng *rand.Rand) (float64, float64) {
	return rng.Float64() * float64(e.Width), rng.Float64() * float64(e.Height)
}

// RandomHeading draws a uniformly random heading in [0, 2π) from rng.
func (e *Environment) RandomHeading(rng *rand.Rand) float64 {
	return rng.Float64() * 2 * math.Pi
}

// Distance returns the Euclidean distance between two points, the shortest
// toroidal distance (wrapping across edges) if the environment is toroidal.
func (e *Environment) Distance(x1, y1, x2, y2 float64) float64 {
	dx, dy := e.delta(x1, y1, x2, y2)
	return math.Hypot(dx, dy)
}

// Direction returns the heading (radians, 0 along +x) from (x1, y1) toward
// (x2, y2), toroidal-aware.
func (e *Environment) Direction(x1, y1, x2, y2 float64) float64 {
	dx, dy := e.delta(x1, y1, x2, y2)
	return math.Atan2(dy, dx)
}

func (e *Environment) delta(x1, y1, x2, y2 float64) (float64, float64) {
	dx := x2 - x1
	dy := y2 - y1
	if e.Toroidal {
		dx = shortestWrap(dx, float64(e.Width))
		dy = shortestWrap(dy, float64(e.Height))
	}
	return dx, dy
}

func shortestWrap(d, span float64) float64 {
	d = math.Mod(d, span)
	if d > span/2 {
		d -= span
	} else if d < -span/2 {
		d += span
	}
	return d
}
