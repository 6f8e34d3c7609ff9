// Package booleval evaluates boolean term queries (AND/OR/NOT) over sorted
// document-id lists using two-pointer merges, with optional skip-pointer
// acceleration for intersections.
package booleval

import (
	"github.com/Harryjl046/eventsearch/internal/index"
)

// SkipList pairs a sorted document-id array with the skip overlay built for
// it. Intermediate merge results carry a nil overlay.
type SkipList struct {
	Docs  []string
	Skips []index.SkipPointer
}

// Intersect returns the documents present in both sorted lists.
func Intersect(a, b []string) []string {
	result := make([]string, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}

// Union returns the documents present in either sorted list, once each.
func Union(a, b []string) []string {
	result := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		default:
			result = append(result, b[j])
			j++
		}
	}
	result = append(result, a[i:]...)
	result = append(result, b[j:]...)
	return result
}

// Difference returns the documents of a absent from b (a AND NOT b).
func Difference(a, b []string) []string {
	result := make([]string, 0, len(a))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		default:
			j++
		}
	}
	result = append(result, a[i:]...)
	return result
}

// IntersectWithSkips intersects two lists, following a skip pointer whenever
// the lagging cursor has one whose target value does not overshoot the other
// cursor's current value. The result is identical to Intersect; only the
// number of comparisons changes.
func IntersectWithSkips(a, b SkipList) []string {
	result := make([]string, 0, min(len(a.Docs), len(b.Docs)))
	i, j := 0, 0
	ka, kb := 0, 0
	for i < len(a.Docs) && j < len(b.Docs) {
		da, db := a.Docs[i], b.Docs[j]
		switch {
		case da == db:
			result = append(result, da)
			i++
			j++
		case da < db:
			if to, ok := skipTarget(a.Skips, &ka, i); ok && a.Docs[to] <= db {
				i = to
				continue
			}
			i++
		default:
			if to, ok := skipTarget(b.Skips, &kb, j); ok && b.Docs[to] <= da {
				j = to
				continue
			}
			j++
		}
	}
	return result
}

// skipTarget returns the target index of the skip pointer anchored at cursor
// position i, if any. Skips are sorted by source index, so the scan position
// k only moves forward.
func skipTarget(skips []index.SkipPointer, k *int, i int) (int, bool) {
	for *k < len(skips) && skips[*k].From < i {
		*k++
	}
	if *k < len(skips) && skips[*k].From == i {
		return skips[*k].To, true
	}
	return 0, false
}
