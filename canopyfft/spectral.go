package canopyfft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

//--------------------------------------
// 窓付きの実数FFTによる比較
//--------------------------------------

var (
	ErrWindow       = errors.New("window and shift must be positive days")
	ErrFrequency    = errors.New("frequency index out of range")
	ErrEmptyRange   = errors.New("no data in range")
	ErrMissingValue = errors.New("missing value in range")
)

// 実数列 x の離散フーリエ変換 (非負の周波数側 len(x)/2+1 個)
func RFFT(x []float64) []complex128 {
	if len(x) == 0 {
		return nil
	}
	return fourier.NewFFT(len(x)).Coefficients(nil, x)
}

// n 点の実数FFTの各ビンの周波数 [1/h]
func RFFTFreq(n int) []float64 {
	if n <= 0 {
		return nil
	}
	fft := fourier.NewFFT(n)
	freq := make([]float64, n/2+1)
	for i := range freq {
		freq[i] = fft.Freq(i)
	}
	return freq
}

// 振幅スペクトル 2/N*|F_k|
// 0番目のビンは窓の平均の2倍になります。
func Scaled(coeff []complex128, n int) []float64 {
	out := make([]float64, len(coeff))
	for i, c := range coeff {
		out[i] = 2 / float64(n) * cmplx.Abs(c)
	}
	return out
}

// 周期 hours [h] に対応するビン番号 (5日窓の24時間周期は 5)
func BinForPeriod(n int, hours float64) (int, error) {
	if n <= 0 || hours <= 0 {
		return 0, fmt.Errorf("%w: n=%d period=%gh", ErrFrequency, n, hours)
	}
	k := float64(n) / hours
	bin := math.Round(k)
	if math.Abs(k-bin) > 1e-9 || bin < 1 || int(bin) > n/2 {
		return 0, fmt.Errorf("%w: a %gh period is not a bin of a %d sample window", ErrFrequency, hours, n)
	}
	return int(bin), nil
}

// 1つの期間の両系列のフーリエ係数
type Spectrum struct {
	N          int
	Freq       []float64
	Sensor     []complex128
	Reanalysis []complex128
}

// 期間 from から to (両端を含む) の両系列の実数FFTを計算します。
func Compare(t *Table, from time.Time, to time.Time) (Spectrum, error) {
	w := t.Extract(from, to)
	if w.Len() == 0 {
		return Spectrum{}, fmt.Errorf("%w: %s..%s", ErrEmptyRange, from.Format(EraTimeLayout), to.Format(EraTimeLayout))
	}
	if !w.complete() {
		return Spectrum{}, fmt.Errorf("%w: %s..%s", ErrMissingValue, from.Format(EraTimeLayout), to.Format(EraTimeLayout))
	}

	fft := fourier.NewFFT(w.Len())
	return Spectrum{
		N:          w.Len(),
		Freq:       RFFTFreq(w.Len()),
		Sensor:     fft.Coefficients(nil, w.Sensor),
		Reanalysis: fft.Coefficients(nil, w.Reanalysis),
	}, nil
}

// 1つの窓
type Window struct {
	Start      time.Time
	Sensor     []float64
	Reanalysis []float64
}

// 窓ごとの再解析とセンサーの値の組
type Pair struct {
	Start      time.Time
	Reanalysis float64
	Sensor     float64
}

// 開始日時 begin から終了日時 end まで、windowDays 日の窓を shiftDays 日ずつずらして切り出します。
// 欠測 (行の欠け、NaN) を含む窓は黙って除外します。
func Windows(t *Table, begin time.Time, end time.Time, windowDays int, shiftDays int) ([]Window, error) {
	if windowDays <= 0 || shiftDays <= 0 {
		return nil, fmt.Errorf("%w: window=%d shift=%d", ErrWindow, windowDays, shiftDays)
	}

	n := windowDays * 24
	span := time.Duration(n-1) * time.Hour // 最後の1時間を除く
	shift := time.Duration(shiftDays) * 24 * time.Hour

	var windows []Window
	skipped := 0
	for date := begin; date.Before(end); date = date.Add(shift) {
		w := t.Extract(date, date.Add(span))
		if w.Len() != n || !w.complete() {
			logger.Debugf("window %s skipped: %d of %d rows", date.Format(EraTimeLayout), w.Len(), n)
			skipped++
			continue
		}
		windows = append(windows, Window{
			Start:      date,
			Sensor:     w.Sensor,
			Reanalysis: w.Reanalysis,
		})
	}

	logger.Debugf("%d windows from %s, %d skipped", len(windows), begin.Format(EraTimeLayout), skipped)
	return windows, nil
}

// 各窓の周波数ビン freq の振幅 2/N*|F[freq]| を返します。
// freq = 0 は平均の2倍です。
func FrequencyPairs(t *Table, begin time.Time, end time.Time, windowDays int, shiftDays int, freq int) ([]Pair, error) {
	if windowDays <= 0 || shiftDays <= 0 {
		return nil, fmt.Errorf("%w: window=%d shift=%d", ErrWindow, windowDays, shiftDays)
	}
	n := windowDays * 24
	if freq < 0 || freq > n/2 {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrFrequency, freq, n/2)
	}

	windows, err := Windows(t, begin, end, windowDays, shiftDays)
	if err != nil {
		return nil, err
	}

	fft := fourier.NewFFT(n)
	sensor := make([]complex128, n/2+1)
	reanalysis := make([]complex128, n/2+1)

	pairs := make([]Pair, 0, len(windows))
	for _, w := range windows {
		sensor = fft.Coefficients(sensor, w.Sensor)
		reanalysis = fft.Coefficients(reanalysis, w.Reanalysis)
		pairs = append(pairs, Pair{
			Start:      w.Start,
			Reanalysis: 2 / float64(n) * cmplx.Abs(reanalysis[freq]),
			Sensor:     2 / float64(n) * cmplx.Abs(sensor[freq]),
		})
	}
	return pairs, nil
}

// 各窓の0以外の周波数の振幅のノルム 2/N*||F[1:]|| (平均を除いた変動のエネルギー) を返します。
func EnergyPairs(t *Table, begin time.Time, end time.Time, windowDays int, shiftDays int) ([]Pair, error) {
	windows, err := Windows(t, begin, end, windowDays, shiftDays)
	if err != nil {
		return nil, err
	}

	n := windowDays * 24
	fft := fourier.NewFFT(n)
	coeff := make([]complex128, n/2+1)
	mags := make([]float64, n/2+1)

	energy := func(x []float64) float64 {
		coeff = fft.Coefficients(coeff, x)
		for i, c := range coeff {
			mags[i] = cmplx.Abs(c)
		}
		return 2 / float64(n) * floats.Norm(mags[1:], 2)
	}

	pairs := make([]Pair, 0, len(windows))
	for _, w := range windows {
		pairs = append(pairs, Pair{
			Start:      w.Start,
			Reanalysis: energy(w.Reanalysis),
			Sensor:     energy(w.Sensor),
		})
	}
	return pairs, nil
}

// 値を k 倍した組を返します (0番目のビンを平均に直す場合は 0.5)
func ScalePairs(pairs []Pair, k float64) []Pair {
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Start: p.Start, Reanalysis: p.Reanalysis * k, Sensor: p.Sensor * k}
	}
	return out
}

func (t *Table) complete() bool {
	for i := range t.date {
		if math.IsNaN(t.Sensor[i]) || math.IsNaN(t.Reanalysis[i]) {
			return false
		}
	}
	return true
}
