package reanalysis

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/forestclim/canopyfft/canopyfft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Dataset_ToTSV(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	d := &Dataset{
		Lat: 50.2,
		Lon: 3.7,
		Series: &canopyfft.Series{
			Name:  "tas",
			Date:  []time.Time{t0, t0.Add(time.Hour)},
			Value: []float64{4.5, 3.75},
		},
	}

	var buf *bytes.Buffer = bytes.NewBuffer([]byte{})
	d.ToTSV(buf)

	assert.Equal(t, "time\tlon\tlat\ttas\n"+
		"2023-01-01 00:00:00\t3.7\t50.2\t4.5\n"+
		"2023-01-01 01:00:00\t3.7\t50.2\t3.75\n", buf.String())

	// 解析側の既定の書式で読み込める
	s, err := canopyfft.LoadSeries(strings.NewReader(buf.String()), canopyfft.DefaultReanalysisSpec())
	require.NoError(t, err)
	assert.Equal(t, "t_era", s.Name)
	assert.Equal(t, d.Series.Date, s.Date)
	assert.Equal(t, d.Series.Value, s.Value)
}
