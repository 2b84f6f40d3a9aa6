package aggregate

import (
	"testing"
	"time"

	"github.com/theirongolddev/worktime/internal/interval"
)

var berlin = time.FixedZone("CET", 3600)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02 15:04", s, berlin)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestSumDuration(t *testing.T) {
	ivs := []interval.Interval{
		{Start: 0, End: 100, Labels: interval.NewLabels("a")},
		{Start: 150, End: 250, Labels: interval.NewLabels("b")},
	}
	if got := SumDuration(ivs, 50, 200); got != 100 {
		t.Fatalf("SumDuration = %d, want 100", got)
	}
	if got := SumDuration(nil, 0, 1000); got != 0 {
		t.Fatalf("SumDuration(nil) = %d, want 0", got)
	}
	if got := SumDuration(ivs, 300, 400); got != 0 {
		t.Fatalf("SumDuration(no overlap) = %d, want 0", got)
	}

	if got := SumDuration(ivs, 50, 10); got != 0 {
		t.Fatalf("SumDuration(reversed range) = %d, want 0", got)
	}
	if got := SumDuration(ivs, 50, 50); got != 0 {
		t.Fatalf("SumDuration(empty range) = %d, want 0", got)
	}

	cropped := interval.CropManyToRange(ivs, 50, 200)
	if SumDuration(cropped, 50, 200) != SumDuration(ivs, 50, 200) {
		t.Fatal("duration not conserved under re-cropping")
	}
}

func TestBucketize_CrossesMidnight(t *testing.T) {
	cal := Calendar{Loc: berlin, WeekStart: time.Monday}
	iv := interval.New(at(t, "2024-03-10 22:00"), at(t, "2024-03-11 01:30"), "api")

	buckets := Bucketize([]interval.Interval{iv}, Day, "", cal)
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	if !buckets[0].Start.Equal(at(t, "2024-03-10 00:00")) {
		t.Fatalf("first bucket start = %v", buckets[0].Start)
	}
	if got, want := buckets[0].Total, (2 * time.Hour).Milliseconds(); got != want {
		t.Fatalf("first bucket total = %d, want %d", got, want)
	}
	if got, want := buckets[1].Total, (90 * time.Minute).Milliseconds(); got != want {
		t.Fatalf("second bucket total = %d, want %d", got, want)
	}
	if sum := buckets[0].Total + buckets[1].Total; sum != iv.Duration() {
		t.Fatalf("bucket sum = %d, want %d", sum, iv.Duration())
	}
}

func TestBucketize_SpansManyDays(t *testing.T) {
	cal := Calendar{Loc: berlin, WeekStart: time.Monday}
	iv := interval.New(at(t, "2024-03-01 12:00"), at(t, "2024-03-05 12:00"), "infra")

	buckets := Bucketize([]interval.Interval{iv}, Day, "", cal)
	if len(buckets) != 5 {
		t.Fatalf("buckets = %d, want 5", len(buckets))
	}
	var sum int64
	for _, b := range buckets {
		sum += b.Total
	}
	if sum != iv.Duration() {
		t.Fatalf("bucket sum = %d, want %d", sum, iv.Duration())
	}
}

func TestBucketize_LabelsDistribute(t *testing.T) {
	cal := Calendar{Loc: berlin, WeekStart: time.Monday}
	ivs := []interval.Interval{
		interval.New(at(t, "2024-03-10 09:00"), at(t, "2024-03-10 10:00"), "api", "web"),
		interval.New(at(t, "2024-03-10 11:00"), at(t, "2024-03-10 11:30"), "web"),
	}

	buckets := Bucketize(ivs, Day, "", cal)
	if len(buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(buckets))
	}
	b := buckets[0]
	hour := time.Hour.Milliseconds()
	if b.Total != hour+hour/2 {
		t.Fatalf("Total = %d, want %d", b.Total, hour+hour/2)
	}
	if b.PerLabel["api"] != hour {
		t.Fatalf("PerLabel[api] = %d, want %d", b.PerLabel["api"], hour)
	}
	if b.PerLabel["web"] != hour+hour/2 {
		t.Fatalf("PerLabel[web] = %d, want %d", b.PerLabel["web"], hour+hour/2)
	}

	apiOnly := Bucketize(ivs, Day, "api", cal)
	if len(apiOnly) != 1 || apiOnly[0].Total != hour {
		t.Fatalf("filtered buckets = %+v, want one bucket of %d", apiOnly, hour)
	}
}

func TestBucketize_WeekAndMonth(t *testing.T) {
	cal := Calendar{Loc: berlin, WeekStart: time.Monday}
	// Sunday evening into Monday morning crosses a week boundary.
	iv := interval.New(at(t, "2024-03-31 23:00"), at(t, "2024-04-01 01:00"), "docs")

	weeks := Bucketize([]interval.Interval{iv}, Week, "", cal)
	if len(weeks) != 2 {
		t.Fatalf("week buckets = %d, want 2", len(weeks))
	}
	if !weeks[0].Start.Equal(at(t, "2024-03-25 00:00")) || !weeks[1].Start.Equal(at(t, "2024-04-01 00:00")) {
		t.Fatalf("week starts = %v, %v", weeks[0].Start, weeks[1].Start)
	}

	months := Bucketize([]interval.Interval{iv}, Month, "", cal)
	if len(months) != 2 {
		t.Fatalf("month buckets = %d, want 2", len(months))
	}
	if months[0].Total != time.Hour.Milliseconds() || months[1].Total != time.Hour.Milliseconds() {
		t.Fatalf("month totals = %d, %d", months[0].Total, months[1].Total)
	}
}

func TestGroupByLabel(t *testing.T) {
	ivs := []interval.Interval{
		{Start: 0, End: 10, Labels: interval.NewLabels("web", "api")},
		{Start: 20, End: 30, Labels: interval.NewLabels("web")},
	}
	groups := GroupByLabel(ivs)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Label != "api" || len(groups[0].Intervals) != 1 {
		t.Fatalf("groups[0] = %+v", groups[0])
	}
	if groups[1].Label != "web" || len(groups[1].Intervals) != 2 {
		t.Fatalf("groups[1] = %+v", groups[1])
	}

	totals := LabelTotals(ivs, 5, 25)
	if totals["web"] != 10 || totals["api"] != 5 {
		t.Fatalf("LabelTotals = %v, want web=10 api=5", totals)
	}
}

func TestParseUnitAndWeekday(t *testing.T) {
	for in, want := range map[string]Unit{"day": Day, "Weeks": Week, "monthly": Month} {
		got, err := ParseUnit(in)
		if err != nil || got != want {
			t.Fatalf("ParseUnit(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseUnit("fortnight"); err == nil {
		t.Fatal("ParseUnit(fortnight) should fail")
	}

	d, err := ParseWeekday("sun")
	if err != nil || d != time.Sunday {
		t.Fatalf("ParseWeekday(sun) = %v, %v", d, err)
	}
}
