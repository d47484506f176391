package storyweave

// stableSort is a bottom-up, allocation-light merge sort generalized over
// any comparable-by-less slice. It mirrors the scan-then-merge shape used
// for render-command ordering in this codebase's rendering-engine lineage:
// a cheap already-sorted check up front (the common case for small,
// near-ordered inputs), then iterative bottom-up merges into a scratch
// buffer. Unlike a typical in-place quicksort, this is stable — required
// here because every multi-key sort in this package relies on ties breaking
// in original-index order.
func stableSort[T any](items []T, less func(a, b T) bool) {
	n := len(items)
	if n <= 1 {
		return
	}

	sorted := true
	for i := 1; i < n; i++ {
		if less(items[i], items[i-1]) {
			sorted = false
			break
		}
	}
	if sorted {
		return
	}

	buf := make([]T, n)
	a, b := items, buf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := lo + width
			if mid > n {
				mid = n
			}
			hi := lo + 2*width
			if hi > n {
				hi = n
			}
			mergeRun(a, b, lo, mid, hi, less)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(items, buf)
	}
}

// mergeRun merges the two sorted runs [lo, mid) and [mid, hi) from src into
// dst at the same index range.
func mergeRun[T any](src, dst []T, lo, mid, hi int, less func(a, b T) bool) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if less(src[j], src[i]) {
			dst[k] = src[j]
			j++
		} else {
			dst[k] = src[i]
			i++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
