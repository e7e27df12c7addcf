// Package spatial implements the two neighbor-finding strategies available
// to the local reactive controller: a cell-list spatial index and a pair of
// sorted-axis vectors, selectable side by side via configuration.
package spatial

import "github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"

// Occupant is anything a cell list can track: an agent with an id and a
// pose.
type Occupant interface {
	AgentID() int
	Pose() geom.Pose
}

type cell struct {
	idx, idy             int
	xmin, xmax, ymin, ymax float64
	isOuter               bool
	isOverflow            bool
	neighbors             []*cell
	occupants             []Occupant
}

// CellIndex partitions a square arena of half-width CellsRange into a grid
// of cells, each linked to its right/up/upper-left-diagonal/upper-right-
// diagonal neighbors (wrapped across the torus when the arena is
// periodic), plus a single overflow cell collecting anything outside the
// indexed range.
type CellIndex struct {
	CellsPerSide int
	CellsRange   float64
	CellWidth    float64
	Periodic     bool

	cells    [][]*cell
	overflow *cell
}

// NewCellIndex builds and links a cellsPerSide x cellsPerSide grid of cells
// covering [-cellsRange, cellsRange) on both axes.
func NewCellIndex(cellsPerSide int, cellsRange float64, periodic bool) *CellIndex {
	ci := &CellIndex{
		CellsPerSide: cellsPerSide,
		CellsRange:   cellsRange,
		CellWidth:    2 * cellsRange / float64(cellsPerSide),
		Periodic:     periodic,
	}
	ci.init()
	return ci
}

func (ci *CellIndex) init() {
	ci.overflow = &cell{isOverflow: true}

	ci.cells = make([][]*cell, ci.CellsPerSide)
	curX := -ci.CellsRange
	for idx := 0; idx < ci.CellsPerSide; idx++ {
		ci.cells[idx] = make([]*cell, ci.CellsPerSide)
		curY := -ci.CellsRange
		for idy := 0; idy < ci.CellsPerSide; idy++ {
			c := &cell{
				idx: idx, idy: idy,
				xmin: curX, xmax: curX + ci.CellWidth,
				ymin: curY, ymax: curY + ci.CellWidth,
			}
			c.isOuter = idx == 0 || idy == 0 || idx == ci.CellsPerSide-1 || idy == ci.CellsPerSide-1
			ci.cells[idx][idy] = c
			curY += ci.CellWidth
		}
		curX += ci.CellWidth
	}

	for idx := 0; idx < ci.CellsPerSide; idx++ {
		for idy := 0; idy < ci.CellsPerSide; idy++ {
			ci.link(idx, idy, idx+1, idy)
			ci.link(idx, idy, idx, idy+1)
			ci.link(idx, idy, idx+1, idy+1)
			ci.link(idx, idy, idx-1, idy+1)
			if ci.cells[idx][idy].isOuter {
				ci.cells[idx][idy].neighbors = append(ci.cells[idx][idy].neighbors, ci.overflow)
				ci.overflow.neighbors = append(ci.overflow.neighbors, ci.cells[idx][idy])
			}
		}
	}
}

func (ci *CellIndex) link(idx, idy, nIdx, nIdy int) {
	cps := ci.CellsPerSide
	if nIdx < 0 || nIdx >= cps || nIdy < 0 || nIdy >= cps {
		if !ci.Periodic {
			return
		}
		wrapped := ci.cells[((nIdx%cps)+cps)%cps][((nIdy%cps)+cps)%cps]
		ci.cells[idx][idy].neighbors = append(ci.cells[idx][idy].neighbors, wrapped)
		wrapped.neighbors = append(wrapped.neighbors, ci.cells[idx][idy])
		return
	}
	ci.cells[idx][idy].neighbors = append(ci.cells[idx][idy].neighbors, ci.cells[nIdx][nIdy])
	ci.cells[nIdx][nIdy].neighbors = append(ci.cells[nIdx][nIdy].neighbors, ci.cells[idx][idy])
}

func (ci *CellIndex) cellFor(p geom.Pose) *cell {
	if p.X < -ci.CellsRange || p.X >= ci.CellsRange || p.Y < -ci.CellsRange || p.Y >= ci.CellsRange {
		return ci.overflow
	}
	idx := int((p.X + ci.CellsRange) / ci.CellWidth)
	idy := int((p.Y + ci.CellsRange) / ci.CellWidth)
	return ci.cells[idx][idy]
}

// Populate clears every cell's occupant list and reassigns each occupant to
// the cell (or the overflow cell) containing its current pose.
func (ci *CellIndex) Populate(occupants []Occupant) {
	for _, row := range ci.cells {
		for _, c := range row {
			c.occupants = c.occupants[:0]
		}
	}
	ci.overflow.occupants = ci.overflow.occupants[:0]

	for _, o := range occupants {
		c := ci.cellFor(o.Pose())
		c.occupants = append(c.occupants, o)
	}
}

// Nearby returns every occupant (other than selfID) in the cell containing
// pos or one of its linked neighbor cells.
func (ci *CellIndex) Nearby(selfID int, pos geom.Pose) []Occupant {
	c := ci.cellFor(pos)
	var out []Occupant
	for _, o := range c.occupants {
		if o.AgentID() != selfID {
			out = append(out, o)
		}
	}
	for _, nbr := range c.neighbors {
		for _, o := range nbr.occupants {
			if o.AgentID() != selfID {
				out = append(out, o)
			}
		}
	}
	return out
}
