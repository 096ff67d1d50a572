package canopyfft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Apply_Shift(t *testing.T) {
	// 2時の値が1時間先にずれて記録されている (1時が欠け、2時と3時が並ぶ)
	tbl := NewTable(
		[]time.Time{hour(0), hour(2), hour(3)},
		[]float64{0, 1, 3},
		[]float64{10, 11, 13},
	)
	corrections := []Correction{{From: hour(2), To: hour(2), Shift: -time.Hour, Note: "dst"}}

	out, applied := tbl.Apply(corrections)

	assert.Equal(t, []time.Time{hour(0), hour(1), hour(3)}, out.Dates())
	assert.Equal(t, []float64{0, 1, 3}, out.Sensor)
	assert.Equal(t, []float64{10, 11, 13}, out.Reanalysis)
	if assert.Len(t, applied, 1) {
		assert.Equal(t, 1, applied[0].Rows)
		assert.Equal(t, "dst", applied[0].Correction.Note)
	}
	// 元の表は変わらない
	assert.Equal(t, hour(2), tbl.Dates()[1])
}

func Test_Apply_Reorder(t *testing.T) {
	// 後ろにずらした行は時刻順に並べ直される
	tbl := NewTable([]time.Time{hour(0), hour(1), hour(2)}, []float64{0, 1, 2}, []float64{0, 1, 2})
	out, _ := tbl.Apply([]Correction{{From: hour(0), To: hour(0), Shift: 5 * time.Hour}})

	assert.Equal(t, []time.Time{hour(1), hour(2), hour(5)}, out.Dates())
	assert.Equal(t, []float64{1, 2, 0}, out.Sensor)
}

func Test_Apply_DropAndNote(t *testing.T) {
	tbl := hourlyTable(seq(0, 6), func(i int) float64 { return float64(i) }, func(i int) float64 { return float64(i) })
	corrections := []Correction{
		{From: hour(1), To: hour(2), Drop: true, Note: "broken"},
		{From: hour(4), To: hour(5), Note: "suspicious"},
	}

	out, applied := tbl.Apply(corrections)

	assert.Equal(t, []float64{0, 3, 4, 5}, out.Sensor)
	assert.Equal(t, 2, applied[0].Rows)
	assert.Equal(t, 2, applied[1].Rows)
	assert.Equal(t, "drop", applied[0].Correction.action())
	assert.Equal(t, "note", applied[1].Correction.action())
}

func Test_Apply_NoMatch(t *testing.T) {
	tbl := hourlyTable(seq(0, 3), func(i int) float64 { return 1 }, func(i int) float64 { return 2 })
	out, applied := tbl.Apply(DefaultCorrections())

	assert.Equal(t, tbl.Dates(), out.Dates())
	assert.Equal(t, 0, applied[0].Rows)
}

func Test_DefaultCorrections(t *testing.T) {
	c := DefaultCorrections()
	if assert.Len(t, c, 1) {
		assert.Equal(t, time.Date(2023, 3, 26, 2, 0, 0, 0, time.UTC), c[0].From)
		assert.Equal(t, c[0].From, c[0].To)
		assert.Equal(t, -time.Hour, c[0].Shift)
		assert.False(t, c[0].Drop)
		assert.Equal(t, "shift -1h0m0s", c[0].action())
	}
}
