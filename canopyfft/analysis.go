package canopyfft

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//--------------------------------------
// 解析の手順
//--------------------------------------

// 比較する量
type Metric struct {
	Name   string  // 保存ファイル名
	Title  string  // 図のタイトル
	XLabel string  // 再解析側
	YLabel string  // センサー側
	Limit  float64 // 軸の上限
	Energy bool    // 0以外の全周波数のエネルギー
	Period float64 // 周期 [h] (0 は平均)
	Scale  float64 // 値に掛ける係数
}

// 設定 cfg の3つの比較 (平均気温、24時間周期の振幅、エネルギー)
func Metrics(cfg Config) []Metric {
	return []Metric{
		{Name: "mean", Title: "Mean temperature", XLabel: "ERA temp.", YLabel: "Hobo temp.", Limit: cfg.Limits.Mean, Period: 0, Scale: 0.5},
		{Name: "freq24h", Title: "Frequency 24h", XLabel: "ERA temp.", YLabel: "Hobo temp.", Limit: cfg.Limits.Diurnal, Period: 24, Scale: 1},
		{Name: "energy", Title: "Energy", XLabel: "ERA", YLabel: "Hobo", Limit: cfg.Limits.Energy, Energy: true, Scale: 1},
	}
}

// 比較1つ・期間1つの回帰
type Summary struct {
	Metric string
	Period string
	Regression
}

// 解析の結果
type Result struct {
	Table   *Table    // 補正後の表
	Gaps    []Gap     // 補正前の欠測
	Applied []Applied // 適用した補正
	Plots   []string  // 保存した図
	Summary []Summary
}

// 結合済みの表に対する解析
type Analysis struct {
	Config   Config
	OutDir   string // 図の保存先
	Format   string // png, svg, pdf
	PairsDir string // 空でなければ窓ごとの値をTSVで保存
}

// 解析を実行します。
//
// Args:
//
//	t: センサーと再解析を結合した表
//
// Returns:
//
//	欠測、補正、保存した図、回帰の一覧
func (a Analysis) Run(t *Table) (*Result, error) {
	cfg := a.Config
	if cfg.WindowDays <= 0 || cfg.ShiftDays <= 0 {
		return nil, fmt.Errorf("%w: window=%d shift=%d", ErrWindow, cfg.WindowDays, cfg.ShiftDays)
	}
	format := a.Format
	if format == "" {
		format = "png"
	}

	res := &Result{}

	// 欠測の確認 (補正は設定の補正表で行う)
	res.Gaps = t.ReportGaps()

	// 補正
	res.Table, res.Applied = t.Apply(cfg.Corrections)
	t = res.Table

	// 試験窓のスペクトル
	spec, err := Compare(t, cfg.TestWindow.Start, cfg.TestWindow.End)
	if err != nil {
		if !errors.Is(err, ErrEmptyRange) && !errors.Is(err, ErrMissingValue) {
			return nil, err
		}
		logger.Warnf("spectrum of %s skipped: %v", cfg.TestWindow.Name, err)
	} else {
		title := fmt.Sprintf("Representation of power spectrum (window %ddays)", cfg.WindowDays)
		p, err := PowerSpectrumPlot(spec, title)
		if err != nil {
			return nil, err
		}
		path, err := SavePlot(p, a.OutDir, "spectrum", format)
		if err != nil {
			return nil, err
		}
		res.Plots = append(res.Plots, path)
	}

	// 期間ごとの比較
	for _, m := range Metrics(cfg) {
		groups := make([]Group, 0, len(cfg.Periods))
		for _, period := range cfg.Periods {
			pairs, err := a.pairs(t, m, period)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", m.Name, period.Name, err)
			}

			reg := Fit(pairs)
			logger.Infof("%s %s: n=%d hobo = %.3f + %.3f * era (r2=%.3f, r=%.3f)",
				m.Title, period.Name, reg.N, reg.Alpha, reg.Beta, reg.RSquared, reg.Correlation)
			res.Summary = append(res.Summary, Summary{Metric: m.Name, Period: period.Name, Regression: reg})

			if a.PairsDir != "" {
				if err := writePairs(a.PairsDir, m.Name, period.Name, pairs); err != nil {
					return nil, err
				}
			}

			groups = append(groups, Group{Label: period.Name, Pairs: pairs, Color: NamedColor(period.Color)})
		}

		p, err := ComparisonPlot(m.Title, m.XLabel, m.YLabel, m.Limit, groups...)
		if err != nil {
			return nil, err
		}
		path, err := SavePlot(p, a.OutDir, m.Name, format)
		if err != nil {
			return nil, err
		}
		res.Plots = append(res.Plots, path)
	}

	return res, nil
}

func (a Analysis) pairs(t *Table, m Metric, period Period) ([]Pair, error) {
	cfg := a.Config
	if m.Energy {
		return EnergyPairs(t, period.Start, period.End, cfg.WindowDays, cfg.ShiftDays)
	}

	freq := 0
	if m.Period > 0 {
		var err error
		freq, err = BinForPeriod(cfg.WindowDays*24, m.Period)
		if err != nil {
			return nil, err
		}
	}
	pairs, err := FrequencyPairs(t, period.Start, period.End, cfg.WindowDays, cfg.ShiftDays, freq)
	if err != nil {
		return nil, err
	}
	if m.Scale != 1 {
		pairs = ScalePairs(pairs, m.Scale)
	}
	return pairs, nil
}

func writePairs(dir string, metric string, period string, pairs []Pair) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	name := strings.ToLower(strings.ReplaceAll(period, " ", "_"))
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.tsv", metric, name))

	var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
	PairsToTSV(buf, pairs)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Debugf("pairs saved: %s", path)
	return nil
}
