package spatial

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
)

// QueryRadius appends to dst[:0] every item within distance r of p (inclusive), except exclude.
// Order is unspecified. It performs no allocation when dst has enough capacity.
func (g *Grid[T]) QueryRadius(dst []T, p geometry.Vector2D, r float64, exclude T) []T {
	dst = dst[:0]
	if !(r > 0) {
		return dst
	}
	rSq := r * r
	x0, y0, x1, y1 := g.cellRange(p, r)
	for iy := y0; iy <= y1; iy++ {
		for ix := x0; ix <= x1; ix++ {
			c := &g.cells[iy*g.divX+ix]
			// cheap rejection before scanning the bucket
			if len(c.Items) == 0 || c.reach.DistanceSquaredTo(p) > rSq {
				continue
			}
			for _, it := range c.Items {
				if it == exclude {
					continue
				}
				if g.pos(it).DistanceSquaredTo(p) <= rSq {
					dst = append(dst, it)
				}
			}
		}
	}
	return dst
}

// QueryRadiusDist is QueryRadius returning each item with its distance to p,
// so that callers do not have to compute it again.
func (g *Grid[T]) QueryRadiusDist(dst []Neighbor[T], p geometry.Vector2D, r float64, exclude T) []Neighbor[T] {
	dst = dst[:0]
	if !(r > 0) {
		return dst
	}
	rSq := r * r
	x0, y0, x1, y1 := g.cellRange(p, r)
	for iy := y0; iy <= y1; iy++ {
		for ix := x0; ix <= x1; ix++ {
			c := &g.cells[iy*g.divX+ix]
			if len(c.Items) == 0 || c.reach.DistanceSquaredTo(p) > rSq {
				continue
			}
			for _, it := range c.Items {
				if it == exclude {
					continue
				}
				dSq := g.pos(it).DistanceSquaredTo(p)
				if dSq <= rSq {
					dst = append(dst, Neighbor[T]{Item: it, Dist: math.Sqrt(dSq), distSq: dSq})
				}
			}
		}
	}
	return dst
}

// QueryKNearest appends to dst[:0] the k items closest to p within distance r, nearest first.
//
// Candidate cells are visited in increasing order of their minimum distance to p. Once k
// neighbors are held, the farthest of them becomes the cutoff: farther cells end the scan and
// farther items are rejected. worker selects the private scratch buffer used for the cell list,
// see SetWorkers. Concurrent callers must use distinct worker indexes.
func (g *Grid[T]) QueryKNearest(dst []Neighbor[T], p geometry.Vector2D, r float64, exclude T, k, worker int) []Neighbor[T] {
	dst = dst[:0]
	if !(r > 0) || k <= 0 {
		return dst
	}
	rSq := r * r

	buf := g.scratchFor(worker)
	candidates := (*buf)[:0]
	x0, y0, x1, y1 := g.cellRange(p, r)
	for iy := y0; iy <= y1; iy++ {
		for ix := x0; ix <= x1; ix++ {
			idx := iy*g.divX + ix
			c := &g.cells[idx]
			if len(c.Items) == 0 {
				continue
			}
			if d := c.reach.DistanceSquaredTo(p); d <= rSq {
				candidates = append(candidates, cellDist{idx: idx, distSq: d})
			}
		}
	}
	slices.SortFunc(candidates, func(a, b cellDist) int {
		return cmp.Compare(a.distSq, b.distSq)
	})

	cutoff := rSq
	for _, cd := range candidates {
		if cd.distSq > cutoff {
			break
		}
		for _, it := range g.cells[cd.idx].Items {
			if it == exclude {
				continue
			}
			dSq := g.pos(it).DistanceSquaredTo(p)
			if dSq > cutoff || (len(dst) >= k && dSq >= cutoff) {
				continue
			}
			at := sort.Search(len(dst), func(i int) bool { return dst[i].distSq > dSq })
			dst = slices.Insert(dst, at, Neighbor[T]{Item: it, Dist: math.Sqrt(dSq), distSq: dSq})
			if len(dst) > k {
				clear(dst[k:])
				dst = dst[:k]
			}
			if len(dst) == k {
				cutoff = dst[k-1].distSq
			}
		}
	}

	*buf = candidates
	return dst
}

// scratchFor returns the buffer owned by worker. Unknown workers get a private throwaway
// buffer instead of touching shared state.
func (g *Grid[T]) scratchFor(worker int) *[]cellDist {
	if worker < 0 || worker >= len(g.scratch) {
		s := make([]cellDist, 0, 16)
		return &s
	}
	return &g.scratch[worker]
}
