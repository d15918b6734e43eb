// Package bucketing groups timestamped values into fixed, interval-aligned,
// half-open buckets. Trend resampling and historical averages both use it so
// the two always agree on boundaries.
package bucketing

import (
	"fmt"
	"sort"
	"time"
)

// Epoch is the default origin for bucket alignment
var Epoch = time.Unix(0, 0).UTC()

// Bucketizer aligns timestamps to multiples of Interval counted from Origin
type Bucketizer struct {
	Interval time.Duration
	Origin   time.Time
}

// New returns a bucketizer; the interval must be positive.
func New(interval time.Duration, origin time.Time) (Bucketizer, error) {
	if interval <= 0 {
		return Bucketizer{}, fmt.Errorf("bucket interval must be positive, got %s", interval)
	}
	return Bucketizer{Interval: interval, Origin: origin.UTC()}, nil
}

// Floor snaps ts down to the boundary at or before it
func (b Bucketizer) Floor(ts time.Time) time.Time {
	offset := ts.Sub(b.Origin)
	n := offset / b.Interval
	if offset%b.Interval < 0 {
		n--
	}
	return b.Origin.Add(n * b.Interval)
}

// Ceil returns ts when it is aligned, otherwise the next boundary
func (b Bucketizer) Ceil(ts time.Time) time.Time {
	floor := b.Floor(ts)
	if floor.Equal(ts) {
		return floor
	}
	return floor.Add(b.Interval)
}

// Span is the aligned [Start, End) range covered by a bucketing run
type Span struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the half-open span
func (s Span) Contains(ts time.Time) bool {
	return !ts.Before(s.Start) && ts.Before(s.End)
}

// Span aligns a reference window. A single-instant window is widened to one bucket.
func (b Bucketizer) Span(start, end time.Time) Span {
	span := Span{Start: b.Floor(start), End: b.Ceil(end)}
	if !span.End.After(span.Start) {
		span.End = span.Start.Add(b.Interval)
	}
	return span
}

// Sample is one value to aggregate
type Sample struct {
	ControllerID string
	Parameter    string
	Timestamp    time.Time
	Value        float64
}

// Bucket accumulates the samples of one (controller, parameter, interval start) key
type Bucket struct {
	Start        time.Time
	End          time.Time
	ControllerID string
	Parameter    string
	Sum          float64
	Count        int
}

// Average of the bucket; Aggregate never emits empty buckets
func (b Bucket) Average() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.Sum / float64(b.Count)
}

type bucketKey struct {
	controllerID string
	parameter    string
	start        int64
}

// Aggregate sums samples per bucket inside span. Keys before span.Start are
// raised to it, keys at or after span.End are dropped. The result is sorted by
// start, controller and parameter, independent of input order.
func (b Bucketizer) Aggregate(samples []Sample, span Span) []Bucket {
	acc := make(map[bucketKey]*Bucket)
	for _, s := range samples {
		start := b.Floor(s.Timestamp)
		if start.Before(span.Start) {
			start = span.Start
		}
		if !start.Before(span.End) {
			continue
		}
		key := bucketKey{controllerID: s.ControllerID, parameter: s.Parameter, start: start.UnixNano()}
		bucket, ok := acc[key]
		if !ok {
			bucket = &Bucket{
				Start:        start,
				End:          start.Add(b.Interval),
				ControllerID: s.ControllerID,
				Parameter:    s.Parameter,
			}
			acc[key] = bucket
		}
		bucket.Sum += s.Value
		bucket.Count++
	}

	out := make([]Bucket, 0, len(acc))
	for _, bucket := range acc {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].ControllerID != out[j].ControllerID {
			return out[i].ControllerID < out[j].ControllerID
		}
		return out[i].Parameter < out[j].Parameter
	})
	return out
}

// Bounds returns the earliest and latest sample timestamps
func Bounds(samples []Sample) (time.Time, time.Time, bool) {
	if len(samples) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max := samples[0].Timestamp, samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.Before(min) {
			min = s.Timestamp
		}
		if s.Timestamp.After(max) {
			max = s.Timestamp
		}
	}
	return min, max, true
}
