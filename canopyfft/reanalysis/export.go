package reanalysis

import (
	"bytes"
	"strconv"

	"github.com/forestclim/canopyfft/canopyfft"
)

// TSV形式 (time, lon, lat, tas)
// 時刻の書式は解析側の読み込み (canopyfft.DefaultReanalysisSpec) と同じです。
func (d *Dataset) ToTSV(buf *bytes.Buffer) {
	lon := strconv.FormatFloat(d.Lon, 'f', -1, 64)
	lat := strconv.FormatFloat(d.Lat, 'f', -1, 64)

	buf.WriteString("time\tlon\tlat\ttas\n")
	for i := 0; i < d.Series.Len(); i++ {
		buf.WriteString(d.Series.Date[i].Format(canopyfft.EraTimeLayout))
		buf.WriteString("\t")
		buf.WriteString(lon)
		buf.WriteString("\t")
		buf.WriteString(lat)
		buf.WriteString("\t")
		buf.WriteString(strconv.FormatFloat(d.Series.Value[i], 'f', -1, 64))
		buf.WriteString("\n")
	}
}
