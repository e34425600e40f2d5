package document

import "sort"

// DistributeHorizontally spaces the selected, unlocked layers evenly along
// the x axis: the leftmost and rightmost keep their positions and the rest
// land on an arithmetic progression between them. Needs at least three
// layers to have any effect.
func (d *Document) DistributeHorizontally() bool {
	return d.distribute(
		func(i int) float64 { return d.layers[i].X },
		func(i int, v float64) { d.layers[i].X = v },
	)
}

// DistributeVertically is the y-axis counterpart of DistributeHorizontally.
func (d *Document) DistributeVertically() bool {
	return d.distribute(
		func(i int) float64 { return d.layers[i].Y },
		func(i int, v float64) { d.layers[i].Y = v },
	)
}

func (d *Document) distribute(get func(int) float64, set func(int, float64)) bool {
	var indices []int
	for _, id := range d.selection {
		idx := d.indexOf(id)
		if idx >= 0 && !d.layers[idx].Locked {
			indices = append(indices, idx)
		}
	}
	if len(indices) < 3 {
		return false
	}

	sort.Slice(indices, func(a, b int) bool {
		return get(indices[a]) < get(indices[b])
	})

	lo := get(indices[0])
	hi := get(indices[len(indices)-1])
	step := (hi - lo) / float64(len(indices)-1)
	for i, idx := range indices {
		set(idx, lo+step*float64(i))
	}
	return true
}
