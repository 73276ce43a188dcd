package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9, math.NaN()})
	assert.Equal(t, 8, s.Count)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, 2.0, s.StdDev)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
}

func TestPercentileInterpolates(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 4.0, Percentile(values, 100))
	assert.Equal(t, 2.5, Percentile(values, 50))
	assert.InDelta(t, 1.75, Percentile(values, 25), 1e-9)
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 4.0, Percentile(values, 150))
}

func TestBoxPlotOutliers(t *testing.T) {
	box := NewBoxPlot([]float64{10, 12, 12, 13, 12, 11, 14, 13, 15, 10, 10, 10, 100})
	require.Equal(t, 13, box.Count)
	assert.Equal(t, []float64{100}, box.Outliers)
	assert.Equal(t, 10.0, box.LowerWhisker)
	assert.Equal(t, 15.0, box.UpperWhisker)
	assert.Equal(t, 12.0, box.Median)
}

func TestBoxPlotEmpty(t *testing.T) {
	box := NewBoxPlot(nil)
	assert.Equal(t, 0, box.Count)
	assert.NotNil(t, box.Outliers)
}

func TestGini(t *testing.T) {
	g, err := Gini([]float64{5, 5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, g)

	g, err = Gini([]float64{0, 0, 0, 10})
	require.NoError(t, err)
	assert.Equal(t, 0.75, g)

	g, err = Gini(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g)

	g, err = Gini([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, g)

	_, err = Gini([]float64{-1, 2})
	require.ErrorIs(t, err, ErrNegativeValue)
}

func TestCorrelationMatrix(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{2, 4, 6, 8}
	c := []float64{4, 3, 2, 1}
	constant := []float64{3, 3, 3, 3}
	m := CorrelationMatrix([][]float64{a, b, c, constant})

	require.NotNil(t, m[0][1])
	assert.InDelta(t, 1.0, *m[0][1], 1e-9)
	require.NotNil(t, m[0][2])
	assert.InDelta(t, -1.0, *m[0][2], 1e-9)
	assert.Nil(t, m[0][3])
	assert.Nil(t, m[3][3])
	require.NotNil(t, m[1][1])
	assert.InDelta(t, 1.0, *m[1][1], 1e-9)
}

func TestCorrelationMatrixSkipsMissing(t *testing.T) {
	nan := math.NaN()
	m := CorrelationMatrix([][]float64{{1, 2, nan, 4}, {1, 2, 3, nan}})
	require.NotNil(t, m[0][1])
	assert.InDelta(t, 1.0, *m[0][1], 1e-9)

	m = CorrelationMatrix([][]float64{{1, nan, 3}, {1, 2, nan}})
	assert.Nil(t, m[0][1])
}

func TestHistogram(t *testing.T) {
	bands := Histogram([]float64{0, 19.9, 20, 55, 100, 100}, 20)
	require.Len(t, bands, 5)
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, 1, bands[1].Count)
	assert.Equal(t, 1, bands[2].Count)
	assert.Equal(t, 2, bands[4].Count)
	assert.Equal(t, 100.0, bands[4].To)
}

func TestRatingDistribution(t *testing.T) {
	dist := RatingDistribution([]float64{3.2, 3.7, 4.1, 4.9})
	assert.Equal(t, map[int]int{3: 1, 4: 2, 5: 1}, dist)
}

func TestMeanGap(t *testing.T) {
	gap, n := MeanGap([]float64{4, 5, math.NaN()}, []float64{3, 3, 2})
	assert.Equal(t, 1.5, gap)
	assert.Equal(t, 2, n)

	gap, n = MeanGap(nil, nil)
	assert.Equal(t, 0.0, gap)
	assert.Equal(t, 0, n)
}
