package canopyfft

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 比較する期間
type Period struct {
	Name  string
	Start time.Time
	End   time.Time
	Color string // 散布図の色 (green, brown, ...)
}

// 図の軸の上限
type Limits struct {
	Mean    float64 `yaml:"mean"`
	Diurnal float64 `yaml:"diurnal"`
	Energy  float64 `yaml:"energy"`
}

// 解析の設定
type Config struct {
	Sensor      SourceSpec
	Reanalysis  SourceSpec
	WindowDays  int
	ShiftDays   int
	TestWindow  Period
	Periods     []Period
	Limits      Limits
	Corrections []Correction
}

// 既定値 (2023年の着葉期・落葉期、5日窓を3日ずつ)
func DefaultConfig() Config {
	return Config{
		Sensor:     DefaultSensorSpec(),
		Reanalysis: DefaultReanalysisSpec(),
		WindowDays: 5,
		ShiftDays:  3,
		TestWindow: Period{
			Name:  "test window",
			Start: time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2023, 7, 6, 23, 0, 0, 0, time.UTC),
		},
		Periods: []Period{
			{
				Name:  "Leaf on",
				Start: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC),
				Color: "green",
			},
			{
				Name:  "Leaf off",
				Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
				Color: "brown",
			},
		},
		Limits:      Limits{Mean: 25, Diurnal: 7, Energy: 8},
		Corrections: DefaultCorrections(),
	}
}

// YAMLファイルの形式
type fileConfig struct {
	Sensor      *SourceSpec       `yaml:"sensor"`
	Reanalysis  *SourceSpec       `yaml:"reanalysis"`
	WindowDays  int               `yaml:"window_days"`
	ShiftDays   int               `yaml:"shift_days"`
	TestWindow  *filePeriod       `yaml:"test_window"`
	Periods     []filePeriod      `yaml:"periods"`
	Limits      *Limits           `yaml:"limits"`
	Corrections *[]fileCorrection `yaml:"corrections"`
}

type filePeriod struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Color string `yaml:"color"`
}

type fileCorrection struct {
	From  string        `yaml:"from"`
	To    string        `yaml:"to"`
	Shift time.Duration `yaml:"shift"`
	Drop  bool          `yaml:"drop"`
	Note  string        `yaml:"note"`
}

// 設定ファイル path を読み込みます。path が空の場合は既定値を返します。
// ファイルに書かれていない項目は既定値のままです。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.parse(b); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) parse(b []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return err
	}

	if fc.Sensor != nil {
		cfg.Sensor = mergeSpec(cfg.Sensor, *fc.Sensor)
	}
	if fc.Reanalysis != nil {
		cfg.Reanalysis = mergeSpec(cfg.Reanalysis, *fc.Reanalysis)
	}
	if fc.WindowDays != 0 {
		cfg.WindowDays = fc.WindowDays
	}
	if fc.ShiftDays != 0 {
		cfg.ShiftDays = fc.ShiftDays
	}
	if cfg.WindowDays < 0 || cfg.ShiftDays < 0 {
		return fmt.Errorf("%w: window_days=%d shift_days=%d", ErrWindow, cfg.WindowDays, cfg.ShiftDays)
	}
	if fc.TestWindow != nil {
		p, err := fc.TestWindow.period()
		if err != nil {
			return fmt.Errorf("test_window: %w", err)
		}
		cfg.TestWindow = p
	}
	if fc.Periods != nil {
		cfg.Periods = make([]Period, len(fc.Periods))
		for i, fp := range fc.Periods {
			p, err := fp.period()
			if err != nil {
				return fmt.Errorf("periods[%d]: %w", i, err)
			}
			cfg.Periods[i] = p
		}
	}
	if fc.Limits != nil {
		cfg.Limits = *fc.Limits
	}
	if fc.Corrections != nil {
		cfg.Corrections = make([]Correction, len(*fc.Corrections))
		for i, c := range *fc.Corrections {
			from, err := ParseTime(c.From)
			if err != nil {
				return fmt.Errorf("corrections[%d].from: %w", i, err)
			}
			to := from
			if c.To != "" {
				if to, err = ParseTime(c.To); err != nil {
					return fmt.Errorf("corrections[%d].to: %w", i, err)
				}
			}
			cfg.Corrections[i] = Correction{From: from, To: to, Shift: c.Shift, Drop: c.Drop, Note: c.Note}
		}
	}
	return nil
}

func (fp filePeriod) period() (Period, error) {
	start, err := ParseTime(fp.Start)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseTime(fp.End)
	if err != nil {
		return Period{}, err
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("period %q ends before it starts", fp.Name)
	}
	return Period{Name: fp.Name, Start: start, End: end, Color: fp.Color}, nil
}

func mergeSpec(base SourceSpec, over SourceSpec) SourceSpec {
	if over.TimeColumn != "" {
		base.TimeColumn = over.TimeColumn
	}
	if over.TimeLayout != "" {
		base.TimeLayout = over.TimeLayout
	}
	if over.ValueColumn != "" {
		base.ValueColumn = over.ValueColumn
	}
	if over.Rename != "" {
		base.Rename = over.Rename
	}
	return base
}

var timeLayouts = []string{
	time.RFC3339,
	EraTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02",
}

// 設定ファイルの日時 (RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02") を UTC として読みます。
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
