package editor

// Reindex assigns sortOrder 0..n-1 following the slice order.
func Reindex[T any](items []T, set func(*T, int)) []T {
	for i := range items {
		set(&items[i], i)
	}
	return items
}

// RemoveAt deletes index k and re-indexes the rest. Out-of-range k is a no-op.
func RemoveAt[T any](items []T, k int, set func(*T, int)) []T {
	if k < 0 || k >= len(items) {
		return items
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:k]...)
	out = append(out, items[k+1:]...)
	return Reindex(out, set)
}

// Move relocates index from to index to (clamped) and re-indexes.
func Move[T any](items []T, from, to int, set func(*T, int)) []T {
	if from < 0 || from >= len(items) {
		return items
	}
	if to < 0 {
		to = 0
	}
	if to >= len(items) {
		to = len(items) - 1
	}
	item := items[from]
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return Reindex(out, set)
}
