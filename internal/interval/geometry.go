package interval

// Intersects reports whether iv overlaps the half-open range
// [rangeStart, rangeEnd). An interval starting exactly at rangeStart always
// intersects, including a zero-width one.
func Intersects(iv Interval, rangeStart, rangeEnd int64) bool {
	if iv.Start == rangeStart {
		return true
	}
	if iv.Start > rangeStart {
		return iv.Start < rangeEnd
	}
	return rangeStart < iv.End
}

// IntersectedSpan returns the overlap of a and b. Intervals sharing only a
// boundary point yield a zero-width span; ok is false when they are disjoint.
func IntersectedSpan(a, b Interval) (start, end int64, ok bool) {
	if a.End < b.Start || a.Start > b.End {
		return 0, 0, false
	}
	return max(a.Start, b.Start), min(a.End, b.End), true
}

// CropToRange clips iv to [rangeStart, rangeEnd], keeping its labels.
// ok is false when iv does not intersect the range.
func CropToRange(iv Interval, rangeStart, rangeEnd int64) (Interval, bool) {
	if !Intersects(iv, rangeStart, rangeEnd) {
		return Interval{}, false
	}
	return Interval{
		Start:  max(iv.Start, rangeStart),
		End:    min(iv.End, rangeEnd),
		Labels: iv.Labels,
	}, true
}

// CropManyToRange crops every interval and drops the ones outside the range.
// Order is preserved.
func CropManyToRange(ivs []Interval, rangeStart, rangeEnd int64) []Interval {
	var out []Interval
	for _, iv := range ivs {
		if c, ok := CropToRange(iv, rangeStart, rangeEnd); ok {
			out = append(out, c)
		}
	}
	return out
}
