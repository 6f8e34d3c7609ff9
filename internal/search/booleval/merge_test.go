package booleval

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/Harryjl046/eventsearch/internal/index"
)

func docs(ids ...string) []string { return ids }

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"overlap", docs("d1", "d3", "d5"), docs("d2", "d3", "d5", "d7"), docs("d3", "d5")},
		{"disjoint", docs("d1", "d2"), docs("d3", "d4"), docs()},
		{"identical", docs("d1", "d2"), docs("d1", "d2"), docs("d1", "d2")},
		{"empty left", docs(), docs("d1"), docs()},
		{"empty right", docs("d1"), docs(), docs()},
		{"subset", docs("d2"), docs("d1", "d2", "d3"), docs("d2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersect(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Intersect(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Intersection is commutative.
			if got := Intersect(tt.b, tt.a); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Intersect(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"overlap", docs("d1", "d3"), docs("d2", "d3"), docs("d1", "d2", "d3")},
		{"disjoint", docs("d1"), docs("d2"), docs("d1", "d2")},
		{"identical", docs("d1", "d2"), docs("d1", "d2"), docs("d1", "d2")},
		{"empty left", docs(), docs("d1"), docs("d1")},
		{"both empty", docs(), docs(), docs()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Union(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Union(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Union(tt.b, tt.a); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Union(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"removes common", docs("d1", "d2", "d3"), docs("d2"), docs("d1", "d3")},
		{"nothing common", docs("d1", "d2"), docs("d3"), docs("d1", "d2")},
		{"everything removed", docs("d1", "d2"), docs("d1", "d2"), docs()},
		{"empty subtrahend", docs("d1"), docs(), docs("d1")},
		{"empty minuend", docs(), docs("d1"), docs()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Difference(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Difference(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// multiples builds a sorted doc-id list of every n-th document up to limit,
// with the skip overlay a real posting list would carry.
func multiples(n, limit int) SkipList {
	var ids []string
	for i := 0; i < limit; i += n {
		ids = append(ids, fmt.Sprintf("doc-%05d", i))
	}
	return SkipList{Docs: ids, Skips: index.BuildSkipPointers(len(ids))}
}

func TestIntersectWithSkipsMatchesPlainIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b SkipList
	}{
		{"dense vs sparse", multiples(1, 300), multiples(7, 300)},
		{"two sparse", multiples(3, 500), multiples(5, 500)},
		{"identical", multiples(2, 200), multiples(2, 200)},
		{"disjoint sizes", multiples(2, 100), multiples(2, 400)},
		{"hundred element list", multiples(1, 100), multiples(4, 400)},
		{"no skips on one side", SkipList{Docs: docs("doc-00000", "doc-00006")}, multiples(2, 100)},
		{"both empty", SkipList{}, SkipList{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Intersect(tt.a.Docs, tt.b.Docs)
			got := IntersectWithSkips(tt.a, tt.b)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("IntersectWithSkips diverged from Intersect:\n got %v\nwant %v", got, want)
			}
		})
	}
}
