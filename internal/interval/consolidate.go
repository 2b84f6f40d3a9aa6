package interval

import (
	"sort"
)

type span struct {
	start, end int64
}

// Consolidate reduces ivs to the canonical set: no two results share the same
// bounds, overlapping regions carry the union of the labels that cover them,
// and the covered time is unchanged.
//
// Same-label intervals that touch end-to-start are joined before splitting so
// that a session saved in several pieces does not leave spurious split points.
// The fragments are joined the same way afterwards, which makes the result a
// fixed point: Consolidate(Consolidate(x)) equals Consolidate(x).
//
// Split-point extraction compares every pair and is quadratic. Yearly
// histories stay in the low thousands; a sweep line can replace it without
// changing this signature.
func Consolidate(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	if len(ivs) == 1 {
		return []Interval{ivs[0]}
	}

	merged := mergeAdjacent(ivs)
	points := splitPoints(merged)
	fragments := splitAll(merged, points)
	return mergeAdjacent(regroup(fragments))
}

// mergeAdjacent joins intervals with identical label sets where one ends
// exactly where the next begins.
func mergeAdjacent(ivs []Interval) []Interval {
	groups := make(map[string][]Interval)
	var keys []string
	for _, iv := range ivs {
		k := iv.Labels.String()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], iv)
	}

	out := make([]Interval, 0, len(ivs))
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Start < group[j].Start
		})

		cur := group[0]
		for _, next := range group[1:] {
			if cur.End == next.Start {
				cur.End = next.End
				continue
			}
			out = append(out, cur)
			cur = next
		}
		out = append(out, cur)
	}
	return out
}

// splitPoints collects the bounds of every pairwise overlap, deduplicated
// and ascending.
func splitPoints(ivs []Interval) []int64 {
	seen := make(map[int64]struct{})
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			start, end, ok := IntersectedSpan(ivs[i], ivs[j])
			if !ok {
				continue
			}
			seen[start] = struct{}{}
			seen[end] = struct{}{}
		}
	}

	points := make([]int64, 0, len(seen))
	for p := range seen {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	return points
}

// splitAll cuts every interval at each point lying strictly inside it.
func splitAll(ivs []Interval, points []int64) []Interval {
	out := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		// points are ascending, so the interior ones form a contiguous run.
		lo := sort.Search(len(points), func(i int) bool { return points[i] > iv.Start })
		cur := iv.Start
		for _, p := range points[lo:] {
			if p >= iv.End {
				break
			}
			out = append(out, Interval{Start: cur, End: p, Labels: iv.Labels})
			cur = p
		}
		out = append(out, Interval{Start: cur, End: iv.End, Labels: iv.Labels})
	}
	return out
}

// regroup collapses fragments with identical bounds into one interval
// carrying the union of their labels. First-seen order is kept.
func regroup(fragments []Interval) []Interval {
	index := make(map[span]int, len(fragments))
	out := make([]Interval, 0, len(fragments))
	for _, f := range fragments {
		key := span{f.Start, f.End}
		if i, ok := index[key]; ok {
			out[i].Labels = out[i].Labels.Union(f.Labels)
			continue
		}
		index[key] = len(out)
		out = append(out, f)
	}
	return out
}

// SortByStart orders ivs by start, then end, then label string. It sorts a copy.
func SortByStart(ivs []Interval) []Interval {
	out := make([]Interval, len(ivs))
	copy(out, ivs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].End != out[j].End {
			return out[i].End < out[j].End
		}
		return out[i].Labels.String() < out[j].Labels.String()
	})
	return out
}
