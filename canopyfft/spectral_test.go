package canopyfft

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RFFT(t *testing.T) {
	for _, n := range []int{7, 24, 120} {
		x := make([]float64, n)
		assert.Len(t, RFFT(x), n/2+1)
		assert.Len(t, RFFTFreq(n), n/2+1)
	}
	assert.Nil(t, RFFT(nil))
	assert.Nil(t, RFFTFreq(0))

	freq := RFFTFreq(120)
	assert.InDelta(t, 0.0, freq[0], 1e-12)
	assert.InDelta(t, 1.0/24, freq[5], 1e-12)
	assert.InDelta(t, 0.5, freq[60], 1e-12)
}

func Test_Scaled_Mean(t *testing.T) {
	// 一定値
	c := make([]float64, 120)
	for i := range c {
		c[i] = 17.25
	}
	assert.InDelta(t, 17.25, Scaled(RFFT(c), len(c))[0]/2, 1e-9)

	// 直線
	ramp := make([]float64, 120)
	for i := range ramp {
		ramp[i] = 2 + 0.5*float64(i)
	}
	mean := 2 + 0.5*119/2
	assert.InDelta(t, mean, Scaled(RFFT(ramp), len(ramp))[0]/2, 1e-9)
}

func Test_Scaled_Sine(t *testing.T) {
	// 振幅 3 の24時間周期
	x := make([]float64, 120)
	for i := range x {
		x[i] = 10 + 3*math.Sin(2*math.Pi*float64(i)/24)
	}
	mag := Scaled(RFFT(x), len(x))
	assert.InDelta(t, 3.0, mag[5], 1e-9)
	assert.InDelta(t, 0.0, mag[4], 1e-9)
	assert.InDelta(t, 0.0, mag[6], 1e-9)
}

func Test_BinForPeriod(t *testing.T) {
	bin, err := BinForPeriod(120, 24)
	require.NoError(t, err)
	assert.Equal(t, 5, bin)

	bin, err = BinForPeriod(120, 2)
	require.NoError(t, err)
	assert.Equal(t, 60, bin)

	for _, hours := range []float64{7, 240, 1, 0, -24} {
		_, err := BinForPeriod(120, hours)
		assert.True(t, errors.Is(err, ErrFrequency), "period %g", hours)
	}
}

func Test_Compare(t *testing.T) {
	tbl := hourlyTable(seq(0, 240), func(i int) float64 { return float64(i % 24) }, func(i int) float64 { return 5 })

	spec, err := Compare(tbl, hour(0), hour(119))
	require.NoError(t, err)
	assert.Equal(t, 120, spec.N)
	assert.Len(t, spec.Freq, 61)
	assert.Len(t, spec.Sensor, 61)
	assert.Len(t, spec.Reanalysis, 61)
	assert.InDelta(t, 5.0, Scaled(spec.Reanalysis, spec.N)[0]/2, 1e-9)

	_, err = Compare(tbl, hour(1000), hour(1100))
	assert.True(t, errors.Is(err, ErrEmptyRange))

	tbl.Sensor[10] = math.NaN()
	_, err = Compare(tbl, hour(0), hour(119))
	assert.True(t, errors.Is(err, ErrMissingValue))
}

func Test_Windows(t *testing.T) {
	one := func(i int) float64 { return 1 }

	// 10日間: 0, 72 時から始まる窓だけが120行そろう
	tbl := hourlyTable(seq(0, 240), one, one)
	windows, err := Windows(tbl, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	if assert.Len(t, windows, 2) {
		assert.Equal(t, hour(0), windows[0].Start)
		assert.Equal(t, hour(72), windows[1].Start)
		assert.Len(t, windows[1].Sensor, 120)
	}

	// 30時が欠けると最初の窓 (0..119時) だけ除外
	gap := hourlyTable(append(seq(0, 30), seq(31, 240)...), one, one)
	windows, err = Windows(gap, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	if assert.Len(t, windows, 1) {
		assert.Equal(t, hour(72), windows[0].Start)
	}

	// 100時は両方の窓に含まれるので何も残らない
	gap = hourlyTable(append(seq(0, 100), seq(101, 240)...), one, one)
	windows, err = Windows(gap, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	assert.Empty(t, windows)

	// NaN を含む窓も除外
	nan := hourlyTable(seq(0, 240), one, one)
	nan.Reanalysis[10] = math.NaN()
	windows, err = Windows(nan, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	if assert.Len(t, windows, 1) {
		assert.Equal(t, hour(72), windows[0].Start)
	}

	_, err = Windows(tbl, hour(0), hour(240), 0, 3)
	assert.True(t, errors.Is(err, ErrWindow))
	_, err = Windows(tbl, hour(0), hour(240), 5, 0)
	assert.True(t, errors.Is(err, ErrWindow))
}

func Test_FrequencyPairs(t *testing.T) {
	tbl := hourlyTable(seq(0, 240),
		func(i int) float64 { return float64(i) },
		func(i int) float64 { return 3 + 2*math.Sin(2*math.Pi*float64(i)/24) },
	)

	// 平均 (0番目のビンの半分)
	pairs, err := FrequencyPairs(tbl, hour(0), hour(240), 5, 3, 0)
	require.NoError(t, err)
	pairs = ScalePairs(pairs, 0.5)
	if assert.Len(t, pairs, 2) {
		assert.InDelta(t, 3.0, pairs[0].Reanalysis, 1e-9)
		assert.InDelta(t, 59.5, pairs[0].Sensor, 1e-9)
		assert.InDelta(t, 72+59.5, pairs[1].Sensor, 1e-9)
	}

	// 24時間周期の振幅
	bin, err := BinForPeriod(120, 24)
	require.NoError(t, err)
	pairs, err = FrequencyPairs(tbl, hour(0), hour(240), 5, 3, bin)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pairs[0].Reanalysis, 1e-9)

	_, err = FrequencyPairs(tbl, hour(0), hour(240), 5, 3, 61)
	assert.True(t, errors.Is(err, ErrFrequency))
	_, err = FrequencyPairs(tbl, hour(0), hour(240), 5, 3, -1)
	assert.True(t, errors.Is(err, ErrFrequency))

	// 窓幅の誤りは周波数より先に検出
	_, err = FrequencyPairs(tbl, hour(0), hour(240), -1, 3, 0)
	assert.True(t, errors.Is(err, ErrWindow))
	_, err = FrequencyPairs(tbl, hour(0), hour(240), 5, 0, 0)
	assert.True(t, errors.Is(err, ErrWindow))
}

func Test_EnergyPairs(t *testing.T) {
	// 全て0の窓のエネルギーは0
	zero := hourlyTable(seq(0, 240), func(i int) float64 { return 0 }, func(i int) float64 { return 0 })
	pairs, err := EnergyPairs(zero, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Equal(t, 0.0, p.Sensor)
		assert.Equal(t, 0.0, p.Reanalysis)
	}

	// 平均はエネルギーに含まれない。正弦波1つなら振幅と同じ
	tbl := hourlyTable(seq(0, 240),
		func(i int) float64 { return 20 },
		func(i int) float64 { return 8 + 1.5*math.Sin(2*math.Pi*float64(i)/12) },
	)
	pairs, err = EnergyPairs(tbl, hour(0), hour(240), 5, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, pairs[0].Sensor, 1e-9)
	assert.InDelta(t, 1.5, pairs[0].Reanalysis, 1e-9)
}

func Test_ScalePairs(t *testing.T) {
	pairs := []Pair{{Start: hour(0), Reanalysis: 4, Sensor: 6}}
	out := ScalePairs(pairs, 0.5)
	assert.Equal(t, []Pair{{Start: hour(0), Reanalysis: 2, Sensor: 3}}, out)
	assert.Equal(t, 4.0, pairs[0].Reanalysis)
}
