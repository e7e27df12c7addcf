// Package grid discretizes a square arena into a lattice of cells for the
// cooperative discrete planner's space-time search.
package grid

import "github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"

// Unit is one cell of a discretized arena: its grid address, its bounds and
// center in continuous coordinates, and its precomputed neighbor lists.
type Unit struct {
	ID geom.SiteID

	X, Y, Width            float64
	XMin, XMax, YMin, YMax float64

	// Neighbors holds cells reachable by a single non-wait step (4- or
	// 8-connected depending on ConnectDiagonals); NeighborsAndMe additionally
	// includes this cell, modeling the wait-in-place successor.
	Neighbors      []*Unit
	NeighborsAndMe []*Unit
}

func (u *Unit) addNeighbor(nbr *Unit) {
	u.Neighbors = append(u.Neighbors, nbr)
}

// Pose returns the continuous-space pose at the center of u, heading zero.
func (u *Unit) Pose() geom.Pose {
	return geom.Pose{X: u.X, Y: u.Y}
}

// Discretizer lays out an N x N grid of Units over a square arena centered
// on the origin with half-width R, linking each cell to its 4- or
// 8-connected neighbors (diagonals optional), wrapping across the boundary
// when the arena is periodic.
type Discretizer struct {
	CellsPerSide     int
	SpaceR           float64
	CellWidth        float64
	Periodic         bool
	ConnectDiagonals bool

	Cells [][]*Unit
}

// NewDiscretizer builds and links a cellsPerSide x cellsPerSide lattice
// covering [-rUpper, rUpper] on both axes.
func NewDiscretizer(rUpper float64, cellsPerSide int, periodic, diags bool) *Discretizer {
	d := &Discretizer{
		CellsPerSide:     cellsPerSide,
		SpaceR:           rUpper,
		CellWidth:        2 * rUpper / float64(cellsPerSide),
		Periodic:         periodic,
		ConnectDiagonals: diags,
	}
	d.initializeSpace()
	return d
}

func (d *Discretizer) initializeSpace() {
	d.Cells = make([][]*Unit, d.CellsPerSide)
	for i := range d.Cells {
		d.Cells[i] = make([]*Unit, d.CellsPerSide)
	}

	curX := -d.SpaceR
	for idx := 0; idx < d.CellsPerSide; idx++ {
		curY := -d.SpaceR
		for idy := 0; idy < d.CellsPerSide; idy++ {
			u := &Unit{
				ID:    geom.SiteID{IDX: idx, IDY: idy},
				XMin:  curX,
				YMin:  curY,
				Width: d.CellWidth,
				XMax:  curX + d.CellWidth,
				YMax:  curY + d.CellWidth,
				X:     curX + d.CellWidth/2,
				Y:     curY + d.CellWidth/2,
			}
			d.Cells[idx][idy] = u
			curY += d.CellWidth
		}
		curX += d.CellWidth
	}

	for idx := 0; idx < d.CellsPerSide; idx++ {
		for idy := 0; idy < d.CellsPerSide; idy++ {
			d.cellNeighborHelper(idx, idy, idx+1, idy)
			d.cellNeighborHelper(idx, idy, idx, idy+1)
			if d.ConnectDiagonals {
				d.cellNeighborHelper(idx, idy, idx+1, idy+1)
				d.cellNeighborHelper(idx, idy, idx-1, idy+1)
			}
		}
	}

	for idx := 0; idx < d.CellsPerSide; idx++ {
		for idy := 0; idy < d.CellsPerSide; idy++ {
			u := d.Cells[idx][idy]
			u.NeighborsAndMe = append(append([]*Unit{}, u.Neighbors...), u)
		}
	}
}

// cellNeighborHelper links (idx,idy) and (nbrIdx,nbrIdy) bidirectionally,
// wrapping the neighbor index across the torus when it falls outside the
// lattice and the arena is periodic; a non-periodic arena simply drops the
// out-of-bounds link.
func (d *Discretizer) cellNeighborHelper(idx, idy, nbrIdx, nbrIdy int) {
	cps := d.CellsPerSide
	if nbrIdx >= cps || nbrIdx < 0 || nbrIdy >= cps || nbrIdy < 0 {
		if !d.Periodic {
			return
		}
		wrapped := d.Cells[((nbrIdx%cps)+cps)%cps][((nbrIdy%cps)+cps)%cps]
		d.Cells[idx][idy].addNeighbor(wrapped)
		wrapped.addNeighbor(d.Cells[idx][idy])
		return
	}
	d.Cells[idx][idy].addNeighbor(d.Cells[nbrIdx][nbrIdy])
	d.Cells[nbrIdx][nbrIdy].addNeighbor(d.Cells[idx][idy])
}

// Unit returns the cell at id.
func (d *Discretizer) Unit(id geom.SiteID) *Unit {
	return d.Cells[id.IDX][id.IDY]
}

// PoseAt returns the continuous-space center of the cell at id.
func (d *Discretizer) PoseAt(id geom.SiteID) geom.Pose {
	return d.Unit(id).Pose()
}

// InBounds reports whether id addresses a cell in the lattice.
func (d *Discretizer) InBounds(id geom.SiteID) bool {
	return id.IDX >= 0 && id.IDX < d.CellsPerSide && id.IDY >= 0 && id.IDY < d.CellsPerSide
}

// Wrap folds id across the torus; callers must only invoke this when the
// arena is periodic.
func (d *Discretizer) Wrap(id geom.SiteID) geom.SiteID {
	cps := d.CellsPerSide
	return geom.SiteID{
		IDX: ((id.IDX % cps) + cps) % cps,
		IDY: ((id.IDY % cps) + cps) % cps,
	}
}
