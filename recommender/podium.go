package recommender

import "sort"

// Votable is anything with a like count
type Votable interface {
	LikeCount() int64
}

// Podium returns the first size items after a stable sort by likes
// descending. Items with equal likes keep their input order.
func Podium[T Votable](items []T, size int) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LikeCount() > sorted[j].LikeCount()
	})

	if size >= 0 && len(sorted) > size {
		sorted = sorted[:size]
	}
	return sorted
}
