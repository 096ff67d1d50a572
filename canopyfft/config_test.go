package canopyfft

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.WindowDays)
	assert.Equal(t, 3, cfg.ShiftDays)
	assert.Equal(t, time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC), cfg.TestWindow.Start)
	assert.Equal(t, time.Date(2023, 7, 6, 23, 0, 0, 0, time.UTC), cfg.TestWindow.End)
	if assert.Len(t, cfg.Periods, 2) {
		assert.Equal(t, "Leaf on", cfg.Periods[0].Name)
		assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), cfg.Periods[0].Start)
		assert.Equal(t, time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), cfg.Periods[0].End)
		assert.Equal(t, "Leaf off", cfg.Periods[1].Name)
		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Periods[1].Start)
	}
	assert.Equal(t, Limits{Mean: 25, Diurnal: 7, Energy: 8}, cfg.Limits)
	assert.Equal(t, DefaultCorrections(), cfg.Corrections)
	assert.Equal(t, DefaultSensorSpec(), cfg.Sensor)
	assert.Equal(t, DefaultReanalysisSpec(), cfg.Reanalysis)
}

const configYAML = `
window_days: 4
sensor:
  value_column: temp
  rename: t_hobo
periods:
  - name: Summer
    start: "2023-06-01"
    end: "2023-08-31 23:00"
    color: blue
limits:
  mean: 30
  diurnal: 10
  energy: 12
corrections:
  - from: "2023-03-26 02:00:00"
    shift: -1h
    note: dst
  - from: "2023-04-10T00:00:00Z"
    to: "2023-04-10T09:00:00Z"
    drop: true
`

func Test_LoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canopyfft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.WindowDays)
	// 書かれていない項目は既定値
	assert.Equal(t, 3, cfg.ShiftDays)
	assert.Equal(t, "datetime", cfg.Sensor.TimeColumn)
	assert.Equal(t, "temp", cfg.Sensor.ValueColumn)
	assert.Equal(t, "t_hobo", cfg.Sensor.Rename)
	assert.Equal(t, DefaultReanalysisSpec(), cfg.Reanalysis)

	if assert.Len(t, cfg.Periods, 1) {
		assert.Equal(t, "Summer", cfg.Periods[0].Name)
		assert.Equal(t, "blue", cfg.Periods[0].Color)
		assert.Equal(t, time.Date(2023, 8, 31, 23, 0, 0, 0, time.UTC), cfg.Periods[0].End)
	}
	assert.Equal(t, Limits{Mean: 30, Diurnal: 10, Energy: 12}, cfg.Limits)

	if assert.Len(t, cfg.Corrections, 2) {
		dst := time.Date(2023, 3, 26, 2, 0, 0, 0, time.UTC)
		assert.Equal(t, dst, cfg.Corrections[0].From)
		assert.Equal(t, dst, cfg.Corrections[0].To)
		assert.Equal(t, -time.Hour, cfg.Corrections[0].Shift)
		assert.True(t, cfg.Corrections[1].Drop)
		assert.Equal(t, time.Date(2023, 4, 10, 9, 0, 0, 0, time.UTC), cfg.Corrections[1].To)
	}
}

func Test_LoadConfig_EmptyCorrections(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.parse([]byte("corrections: []\n")))
	assert.Empty(t, cfg.Corrections)
}

func Test_LoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg := DefaultConfig()
	assert.Error(t, cfg.parse([]byte("periods:\n  - name: x\n    start: 2023-05-01\n    end: 2023-01-01\n")))

	cfg = DefaultConfig()
	assert.Error(t, cfg.parse([]byte("test_window:\n  start: yesterday\n  end: 2023-01-01\n")))

	cfg = DefaultConfig()
	err = cfg.parse([]byte("window_days: -1\n"))
	assert.True(t, errors.Is(err, ErrWindow))

	cfg = DefaultConfig()
	assert.Error(t, cfg.parse([]byte("corrections:\n  - from: 2023-01-01\n    shift: soon\n")))
}

func Test_ParseTime(t *testing.T) {
	want := time.Date(2023, 7, 2, 13, 0, 0, 0, time.UTC)
	for _, s := range []string{"2023-07-02T13:00:00Z", "2023-07-02T15:00:00+02:00", "2023-07-02 13:00:00", "2023-07-02 13:00"} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location())
	}

	got, err := ParseTime("2023-07-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTime("02/07/2023")
	assert.Error(t, err)
}

// 添付の設定例は既定値と同じ
func Test_LoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "canopyfft.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
