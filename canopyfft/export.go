package canopyfft

import (
	"bytes"
	"strconv"
)

// TSV形式 (datetime, t_hobo, t_era)
func (t *Table) ToTSV(buf *bytes.Buffer) {
	buf.WriteString("datetime\tt_hobo\tt_era\n")
	for i := 0; i < len(t.date); i++ {
		buf.WriteString(t.date[i].Format(EraTimeLayout))
		writeFloat(buf, t.Sensor[i])
		writeFloat(buf, t.Reanalysis[i])
		buf.WriteString("\n")
	}
}

// 窓ごとの組のTSV形式 (start, era, hobo)
func PairsToTSV(buf *bytes.Buffer, pairs []Pair) {
	buf.WriteString("start\tera\thobo\n")
	for _, p := range pairs {
		buf.WriteString(p.Start.Format(EraTimeLayout))
		writeFloat(buf, p.Reanalysis)
		writeFloat(buf, p.Sensor)
		buf.WriteString("\n")
	}
}

func writeFloat(buf *bytes.Buffer, v float64) {
	buf.WriteString("\t")
	buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}
