package bucketing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func mustNew(t *testing.T, interval time.Duration, origin time.Time) Bucketizer {
	t.Helper()
	b, err := New(interval, origin)
	require.NoError(t, err)
	return b
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := New(0, Epoch)
	assert.Error(t, err)
	_, err = New(-time.Minute, Epoch)
	assert.Error(t, err)
}

func TestFloorCeil(t *testing.T) {
	b := mustNew(t, 15*time.Minute, Epoch)

	assert.True(t, b.Floor(base.Add(7*time.Minute)).Equal(base))
	assert.True(t, b.Floor(base).Equal(base))
	assert.True(t, b.Ceil(base).Equal(base))
	assert.True(t, b.Ceil(base.Add(time.Second)).Equal(base.Add(15*time.Minute)))

	t.Run("timestamps before the origin floor downwards", func(t *testing.T) {
		b := mustNew(t, time.Hour, base)
		assert.True(t, b.Floor(base.Add(-30*time.Minute)).Equal(base.Add(-time.Hour)))
		assert.True(t, b.Floor(base.Add(-time.Hour)).Equal(base.Add(-time.Hour)))
	})

	t.Run("custom origin shifts boundaries", func(t *testing.T) {
		b := mustNew(t, time.Hour, base.Add(20*time.Minute))
		assert.True(t, b.Floor(base.Add(90*time.Minute)).Equal(base.Add(80*time.Minute)))
	})
}

func TestSpan(t *testing.T) {
	b := mustNew(t, 15*time.Minute, Epoch)

	span := b.Span(base.Add(2*time.Minute), base.Add(35*time.Minute))
	assert.True(t, span.Start.Equal(base))
	assert.True(t, span.End.Equal(base.Add(45*time.Minute)))

	degenerate := b.Span(base, base)
	assert.True(t, degenerate.Start.Equal(base))
	assert.True(t, degenerate.End.Equal(base.Add(15*time.Minute)))

	assert.True(t, span.Contains(base))
	assert.False(t, span.Contains(base.Add(45*time.Minute)))
}

func scenarioSamples() []Sample {
	return []Sample{
		{ControllerID: "dev-1", Parameter: "temperature", Timestamp: base.Add(2 * time.Minute), Value: 20},
		{ControllerID: "dev-1", Parameter: "temperature", Timestamp: base.Add(10 * time.Minute), Value: 22},
		{ControllerID: "dev-1", Parameter: "temperature", Timestamp: base.Add(20 * time.Minute), Value: 26},
		{ControllerID: "dev-1", Parameter: "temperature", Timestamp: base.Add(35 * time.Minute), Value: 30},
	}
}

func TestAggregateScenario(t *testing.T) {
	b := mustNew(t, 15*time.Minute, Epoch)
	span := b.Span(base, base.Add(45*time.Minute))

	buckets := b.Aggregate(scenarioSamples(), span)
	require.Len(t, buckets, 3)

	expected := []struct {
		offset  time.Duration
		average float64
		count   int
	}{
		{0, 21, 2},
		{15 * time.Minute, 26, 1},
		{30 * time.Minute, 30, 1},
	}
	for i, e := range expected {
		assert.True(t, buckets[i].Start.Equal(base.Add(e.offset)), "bucket %d start", i)
		assert.True(t, buckets[i].End.Equal(base.Add(e.offset+15*time.Minute)), "bucket %d end", i)
		assert.InDelta(t, e.average, buckets[i].Average(), 1e-9)
		assert.Equal(t, e.count, buckets[i].Count)
	}
}

func TestAggregateIsIdempotentAndOrderIndependent(t *testing.T) {
	b := mustNew(t, 15*time.Minute, Epoch)
	span := b.Span(base, base.Add(45*time.Minute))
	samples := scenarioSamples()
	samples = append(samples,
		Sample{ControllerID: "dev-0", Parameter: "air_humidity", Timestamp: base.Add(3 * time.Minute), Value: 55},
		Sample{ControllerID: "dev-0", Parameter: "temperature", Timestamp: base.Add(4 * time.Minute), Value: 19},
	)

	first := b.Aggregate(samples, span)
	second := b.Aggregate(samples, span)
	assert.Equal(t, first, second)

	shuffled := append([]Sample(nil), samples...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	assert.Equal(t, first, b.Aggregate(shuffled, span))

	require.Len(t, first, 5)
	assert.Equal(t, "dev-0", first[0].ControllerID)
	assert.Equal(t, "air_humidity", first[0].Parameter)
	assert.Equal(t, "temperature", first[1].Parameter)
	assert.Equal(t, "dev-1", first[2].ControllerID)
}

func TestAggregateCompleteness(t *testing.T) {
	b := mustNew(t, 30*time.Minute, Epoch)
	rng := rand.New(rand.NewSource(42))

	var samples []Sample
	for i := 0; i < 500; i++ {
		samples = append(samples, Sample{
			ControllerID: []string{"a", "b", "c"}[rng.Intn(3)],
			Parameter:    "soil_humidity",
			Timestamp:    base.Add(time.Duration(rng.Int63n(int64(12 * time.Hour)))),
			Value:        rng.Float64(),
		})
	}
	min, max, ok := Bounds(samples)
	require.True(t, ok)
	span := b.Span(min, max)

	inside := 0
	for _, s := range samples {
		if span.Contains(s.Timestamp) {
			inside++
		}
	}

	total := 0
	for _, bucket := range b.Aggregate(samples, span) {
		assert.Positive(t, bucket.Count)
		assert.Equal(t, 30*time.Minute, bucket.End.Sub(bucket.Start))
		total += bucket.Count
	}
	assert.Equal(t, inside, total)
}

func TestAggregateClampsAndDrops(t *testing.T) {
	b := mustNew(t, time.Hour, Epoch)
	span := Span{Start: base, End: base.Add(2 * time.Hour)}

	buckets := b.Aggregate([]Sample{
		{ControllerID: "x", Parameter: "temperature", Timestamp: base.Add(-90 * time.Minute), Value: 10},
		{ControllerID: "x", Parameter: "temperature", Timestamp: base.Add(10 * time.Minute), Value: 20},
		{ControllerID: "x", Parameter: "temperature", Timestamp: base.Add(2 * time.Hour), Value: 99},
	}, span)

	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Start.Equal(base))
	assert.Equal(t, 2, buckets[0].Count)
	assert.InDelta(t, 15.0, buckets[0].Average(), 1e-9)
}

func TestBoundsEmpty(t *testing.T) {
	_, _, ok := Bounds(nil)
	assert.False(t, ok)
}
