package engine

import "sort"

// Occupancy maps colony id to the live ants standing there, in ant-index order.
// Buckets are reused across ticks; only the touched ones are reset.
type Occupancy struct {
	buckets [][]int
	touched []int
}

func newOccupancy(colonies int) *Occupancy {
	return &Occupancy{buckets: make([][]int, colonies)}
}

func (o *Occupancy) reset() {
	for _, c := range o.touched {
		o.buckets[c] = o.buckets[c][:0]
	}
	o.touched = o.touched[:0]
}

// At returns the ant indices at colony id. The slice is reused next tick.
func (o *Occupancy) At(id int) []int { return o.buckets[id] }

// Colonies lists occupied colony ids in ascending order.
func (o *Occupancy) Colonies() []int { return o.touched }

// detectCollisions buckets every live ant by colony. It is a single sequential
// pass in index order, so "first two ants" of a bucket is reproducible no matter
// how movement was scheduled.
func detectCollisions(ants []Ant, o *Occupancy) {
	o.reset()
	for i := range ants {
		if !ants[i].Alive {
			continue
		}
		c := ants[i].Colony
		if len(o.buckets[c]) == 0 {
			o.touched = append(o.touched, c)
		}
		o.buckets[c] = append(o.buckets[c], i)
	}
	sort.Ints(o.touched)
}
