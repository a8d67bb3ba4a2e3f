package kdtree

// medianEstimate returns the index of an approximate median of element
// centers along dim: the median of three of the estimates over each third,
// recursing depth times.
func medianEstimate[T any](elems []Element[T], dim, depth int) int {
	n := len(elems)
	if depth == 0 || n < 3 {
		return medianOf3(elems, dim, 0, n/2, n-1)
	}
	third := n / 3
	a := medianEstimate(elems[:third], dim, depth-1)
	b := third + medianEstimate(elems[third:2*third], dim, depth-1)
	c := 2*third + medianEstimate(elems[2*third:], dim, depth-1)
	return medianOf3(elems, dim, a, b, c)
}

func medianOf3[T any](elems []Element[T], dim, a, b, c int) int {
	va := center(elems[a].Volume, dim)
	vb := center(elems[b].Volume, dim)
	vc := center(elems[c].Volume, dim)
	switch {
	case (va <= vb && vb <= vc) || (vc <= vb && vb <= va):
		return b
	case (vb <= va && va <= vc) || (vc <= va && va <= vb):
		return a
	}
	return c
}

// nthElement reorders elems so that elems[k] holds the element that would
// be there if elems were sorted by center along dim, with no greater
// element before it and no smaller one after it.
func nthElement[T any](elems []Element[T], k, dim int) {
	lo, hi := 0, len(elems)
	for hi-lo > 1 {
		p := center(elems[medianOf3(elems, dim, lo, lo+(hi-lo)/2, hi-1)].Volume, dim)
		// three-way partition: [lo,lt) < p, [lt,gt) == p, [gt,hi) > p
		lt, i, gt := lo, lo, hi
		for i < gt {
			v := center(elems[i].Volume, dim)
			switch {
			case v < p:
				elems[lt], elems[i] = elems[i], elems[lt]
				lt++
				i++
			case v > p:
				gt--
				elems[gt], elems[i] = elems[i], elems[gt]
			default:
				i++
			}
		}
		switch {
		case k < lt:
			hi = lt
		case k >= gt:
			lo = gt
		default:
			return
		}
	}
}
