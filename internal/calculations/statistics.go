package calculations

import (
	"math"
	"sort"
	"time"
)

// Statistics summarises a sample
type Statistics struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// BasicStatistics computes mean, min, max and the sample standard deviation.
// An empty input yields the zero value.
func BasicStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}
	stats := Statistics{Min: values[0], Max: values[0], Count: len(values)}
	sum := 0.0
	for _, v := range values {
		sum += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	stats.Mean = sum / float64(len(values))
	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - stats.Mean
			ss += d * d
		}
		stats.StdDev = math.Sqrt(ss / float64(len(values)-1))
	}
	return stats
}

// TimePoint is one (timestamp, value) sample
type TimePoint struct {
	Timestamp time.Time
	Value     float64
}

// Trend describes the change between the first and last point of a series
type Trend struct {
	StartValue    float64
	EndValue      float64
	Change        float64
	PercentChange float64
	DurationHours float64
	SlopePerHour  float64
	DataPoints    int
}

// TrendMetrics expects an ascending series and returns nil below two points.
func TrendMetrics(series []TimePoint) *Trend {
	if len(series) < 2 {
		return nil
	}
	first, last := series[0], series[len(series)-1]
	t := &Trend{
		StartValue: first.Value,
		EndValue:   last.Value,
		Change:     last.Value - first.Value,
		DataPoints: len(series),
	}
	if first.Value != 0 {
		t.PercentChange = t.Change / first.Value * 100
	}
	t.DurationHours = math.Max(0, last.Timestamp.Sub(first.Timestamp).Hours())
	if t.DurationHours > 0 {
		t.SlopePerHour = t.Change / t.DurationHours
	}
	return t
}

// Percentile interpolates linearly between closest ranks; sorted must be ascending.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	p = clamp(p, 0, 100)
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Sorted returns an ascending copy of values
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Skewness is the adjusted Fisher-Pearson sample skewness; 0 when n < 3 or the spread is 0.
func Skewness(values []float64) float64 {
	n := float64(len(values))
	if n < 3 {
		return 0
	}
	stats := BasicStatistics(values)
	if stats.StdDev == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Pow((v-stats.Mean)/stats.StdDev, 3)
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// Kurtosis is the sample excess kurtosis; 0 when n < 4 or the spread is 0.
func Kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n < 4 {
		return 0
	}
	stats := BasicStatistics(values)
	if stats.StdDev == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Pow((v-stats.Mean)/stats.StdDev, 4)
	}
	term := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3)) * sum
	return term - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// Fences are the Tukey outlier bounds of a sample
type Fences struct {
	Q1    float64
	Q3    float64
	IQR   float64
	Lower float64
	Upper float64
}

// IQRFences computes the Tukey fences with multiplier k (1.5 when k <= 0).
func IQRFences(values []float64, k float64) Fences {
	if k <= 0 {
		k = 1.5
	}
	sorted := Sorted(values)
	q1 := Percentile(sorted, 25)
	q3 := Percentile(sorted, 75)
	iqr := q3 - q1
	return Fences{Q1: q1, Q3: q3, IQR: iqr, Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// IQRAnomalies returns the indices of values outside the Tukey fences.
// Fewer than four values never produce anomalies.
func IQRAnomalies(values []float64, k float64) ([]int, Fences) {
	fences := IQRFences(values, k)
	if len(values) < 4 {
		return nil, fences
	}
	var idx []int
	for i, v := range values {
		if v < fences.Lower || v > fences.Upper {
			idx = append(idx, i)
		}
	}
	return idx, fences
}

// Regression is a least-squares line fit
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// LinearRegression fits ys = slope*xs + intercept over the common prefix of xs and ys.
func LinearRegression(xs, ys []float64) Regression {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		if n == 1 {
			return Regression{Intercept: ys[0]}
		}
		return Regression{}
	}
	var sx, sy float64
	for i := 0; i < n; i++ {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/float64(n), sy/float64(n)
	var sxx, sxy, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Regression{Intercept: my}
	}
	r := Regression{Slope: sxy / sxx}
	r.Intercept = my - r.Slope*mx
	if syy > 0 {
		r.RSquared = sxy * sxy / (sxx * syy)
	}
	return r
}

// Autocorrelation of values at the given lag; 0 when lag is out of range or the variance is 0.
func Autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || lag >= n {
		return 0
	}
	mean := BasicStatistics(values).Mean
	var num, den float64
	for i, v := range values {
		d := v - mean
		den += d * d
		if i+lag < n {
			num += d * (values[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Seasonality is the strongest periodic lag found in a series
type Seasonality struct {
	Lag             int
	Autocorrelation float64
	Detected        bool
}

// DetectSeasonality scans lags 2..maxLag (bounded by n/2) for the highest
// autocorrelation. Detected is set when it reaches threshold (0.5 when <= 0).
func DetectSeasonality(values []float64, maxLag int, threshold float64) Seasonality {
	if threshold <= 0 {
		threshold = 0.5
	}
	if limit := len(values) / 2; maxLag > limit {
		maxLag = limit
	}
	best := Seasonality{}
	for lag := 2; lag <= maxLag; lag++ {
		acf := Autocorrelation(values, lag)
		if best.Lag == 0 || acf > best.Autocorrelation {
			best = Seasonality{Lag: lag, Autocorrelation: acf}
		}
	}
	best.Detected = best.Lag > 0 && best.Autocorrelation >= threshold
	return best
}

// PearsonCorrelation over the common prefix of xs and ys; 0 when undefined.
func PearsonCorrelation(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0
	}
	mx := BasicStatistics(xs[:n]).Mean
	my := BasicStatistics(ys[:n]).Mean
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}
