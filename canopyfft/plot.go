package canopyfft

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//--------------------------------------
// 描画
//--------------------------------------

var (
	ColorSensor     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff} // tab:green
	ColorReanalysis = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff} // tab:orange
	ColorLeafOn     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff} // tab:green
	ColorLeafOff    = color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff} // tab:brown
	colorGuide      = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff} // tab:grey
)

// 色名 (tab10 の名前) から色を返します。不明な名前は灰色です。
func NamedColor(name string) color.Color {
	switch name {
	case "green":
		return ColorLeafOn
	case "brown":
		return ColorLeafOff
	case "orange":
		return ColorReanalysis
	case "blue":
		return color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	case "red":
		return color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	default:
		return colorGuide
	}
}

// 補助線を引く周期 [h] (0 は平均)
var guidePeriods = []float64{0, 24, 12, 8, 6, 4, 3}

// 目盛りを付ける周期 [h]
var tickPeriods = []float64{0, 24, 12, 8, 6, 3}

const (
	guideLow  = 0.0001
	guideHigh = 100
)

// 振幅スペクトルを片対数で描きます。横軸には周期 [h] の目盛りを付けます。
func PowerSpectrumPlot(spec Spectrum, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Period (in h)"
	p.Y.Label.Text = "Power"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	for _, h := range guidePeriods {
		f := 0.0
		if h > 0 {
			f = 1 / h
		}
		l, err := plotter.NewLine(plotter.XYs{{X: f, Y: guideLow}, {X: f, Y: guideHigh}})
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = colorGuide
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}

	series := []struct {
		label string
		coeff []complex128
		color color.Color
	}{
		{"Hobo", spec.Sensor, ColorSensor},
		{"ERA", spec.Reanalysis, ColorReanalysis},
	}
	for _, s := range series {
		xys := positiveXYs(spec.Freq, Scaled(s.coeff, spec.N))
		if len(xys) == 0 {
			continue
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = s.color
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.label, l)
	}

	ticks := make([]plot.Tick, len(tickPeriods))
	for i, h := range tickPeriods {
		if h == 0 {
			ticks[i] = plot.Tick{Value: 0, Label: "0"}
			continue
		}
		ticks[i] = plot.Tick{Value: 1 / h, Label: fmt.Sprintf("%g", h)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	return p, nil
}

// 散布図の1グループ (着葉期、落葉期)
type Group struct {
	Label string
	Pairs []Pair
	Color color.Color
}

// 再解析 (横軸) とセンサー (縦軸) の散布図と回帰直線を描きます。両軸の範囲は 0 から limit です。
func ComparisonPlot(title string, xlabel string, ylabel string, limit float64, groups ...Group) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for _, g := range groups {
		if len(g.Pairs) == 0 {
			logger.Warnf("%s: no valid window for %q", title, g.Label)
			continue
		}

		pts := make(plotter.XYs, len(g.Pairs))
		for i, pair := range g.Pairs {
			pts[i].X = pair.Reanalysis
			pts[i].Y = pair.Sensor
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Label, err)
		}
		sc.GlyphStyle.Color = g.Color
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(g.Label, sc)

		reg := Fit(g.Pairs)
		if reg.N >= 2 && !math.IsNaN(reg.Alpha) && !math.IsNaN(reg.Beta) {
			line := plotter.NewFunction(reg.At)
			line.XMin = 0
			line.XMax = limit
			line.LineStyle.Color = g.Color
			line.LineStyle.Width = vg.Points(2)
			p.Add(line)
		}
	}

	p.X.Min, p.X.Max = 0, limit
	p.Y.Min, p.Y.Max = 0, limit

	return p, nil
}

// 図を dir/name.format に保存し、保存先のパスを返します。
func SavePlot(p *plot.Plot, dir string, name string, format string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", name, format))
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	logger.Infof("plot saved: %s", path)
	return path, nil
}

// 対数軸に描けない 0 以下の値を除きます。
func positiveXYs(x []float64, y []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(y))
	for i := range y {
		if y[i] > 0 {
			xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	return xys
}
