package canopyfft

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// センサー値を再解析値で回帰した結果 (Sensor = Alpha + Beta*Reanalysis)
type Regression struct {
	N           int
	Alpha       float64
	Beta        float64
	RSquared    float64
	Correlation float64
}

// 最小二乗法による回帰直線 (2組未満の場合は係数が NaN)
func Fit(pairs []Pair) Regression {
	x, y := Columns(pairs)
	if len(pairs) < 2 {
		nan := math.NaN()
		return Regression{N: len(pairs), Alpha: nan, Beta: nan, RSquared: nan, Correlation: nan}
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Regression{
		N:           len(pairs),
		Alpha:       alpha,
		Beta:        beta,
		RSquared:    stat.RSquared(x, y, nil, alpha, beta),
		Correlation: stat.Correlation(x, y, nil),
	}
}

// 回帰直線上の値
func (r Regression) At(x float64) float64 {
	return r.Alpha + r.Beta*x
}

// 組を再解析 (x) とセンサー (y) の列に分けます。
func Columns(pairs []Pair) (x []float64, y []float64) {
	x = make([]float64, len(pairs))
	y = make([]float64, len(pairs))
	for i, p := range pairs {
		x[i] = p.Reanalysis
		y[i] = p.Sensor
	}
	return x, y
}
