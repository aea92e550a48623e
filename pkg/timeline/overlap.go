package timeline

import (
	"time"

	"github.com/travigo/departureboard/pkg/ctdf"
)

// MaxIndentLevel caps the timeline at four lanes (0-3)
const MaxIndentLevel = 3

type Relationship string

const (
	RelationshipFullContainment Relationship = "full-containment"
	RelationshipPartialOverlap  Relationship = "partial-overlap"
)

func Overlaps(a Interval, b Interval) bool {
	return a.IsValid() && b.IsValid() && a.Start.Before(b.End) && a.End.After(b.Start)
}

// Relate classifies b against a, full containment when b lies inside a
func Relate(a Interval, b Interval) Relationship {
	if b.Within(a) {
		return RelationshipFullContainment
	}

	return RelationshipPartialOverlap
}

// RelateEither is full containment when either interval lies inside the other
func RelateEither(a Interval, b Interval) Relationship {
	if b.Within(a) || a.Within(b) {
		return RelationshipFullContainment
	}

	return RelationshipPartialOverlap
}

type Leveled struct {
	Entry       ctdf.Entry
	Interval    Interval
	HasInterval bool
	Level       int
}

// DetectOverlaps assigns each entry, in the given order, one level above the
// highest level of any earlier entry it overlaps. Earlier assignments are never
// revisited.
func DetectOverlaps(ordered []ctdf.Entry, now time.Time) []Leveled {
	leveled := make([]Leveled, len(ordered))

	for i := range ordered {
		leveled[i].Entry = ordered[i]
		leveled[i].Interval, leveled[i].HasInterval = Span(&ordered[i], now)

		maxLevel := -1
		if leveled[i].HasInterval {
			for j := 0; j < i; j++ {
				if leveled[j].HasInterval && Overlaps(leveled[j].Interval, leveled[i].Interval) && leveled[j].Level > maxLevel {
					maxLevel = leveled[j].Level
				}
			}
		}

		leveled[i].Level = maxLevel + 1
		if leveled[i].Level > MaxIndentLevel {
			leveled[i].Level = MaxIndentLevel
		}
	}

	return leveled
}

type Overlap struct {
	Entry        ctdf.Entry   `json:"entry" groups:"basic,full"`
	Relationship Relationship `json:"relationship" groups:"basic,full"`
}

// FindOverlapping returns the candidates whose spans intersect the span of a,
// classified against a. Callers are expected to leave a out of candidates.
func FindOverlapping(a *ctdf.Entry, candidates []ctdf.Entry, now time.Time) []Overlap {
	span, ok := Span(a, now)
	if !ok {
		return nil
	}

	var overlaps []Overlap
	for i := range candidates {
		candidateSpan, ok := Span(&candidates[i], now)
		if !ok || !Overlaps(span, candidateSpan) {
			continue
		}

		overlaps = append(overlaps, Overlap{
			Entry:        candidates[i],
			Relationship: Relate(span, candidateSpan),
		})
	}

	return overlaps
}
