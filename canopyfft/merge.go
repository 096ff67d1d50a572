package canopyfft

import (
	"sort"
	"time"
)

// 時刻で揃えたセンサーと再解析の気温
type Table struct {
	date []time.Time //参照時刻 (UTC)

	Sensor     []float64 //センサー (HOBO) の気温 [°C]
	Reanalysis []float64 //再解析 (ERA5-Land) の気温 [°C]
}

// 時刻の揃った列から表を作成します。
func NewTable(date []time.Time, sensor []float64, reanalysis []float64) *Table {
	return &Table{
		date:       date,
		Sensor:     sensor,
		Reanalysis: reanalysis,
	}
}

func (t *Table) Len() int { return len(t.date) }

func (t *Table) Dates() []time.Time { return t.date }

// センサー系列 sensor と再解析系列 reanalysis を時刻の完全一致で内部結合します。
// どちらか一方にしかない時刻は捨てられます。同じ時刻が重複する場合はすべての組み合わせを残します。
// 結果は時刻の昇順です。
func Merge(sensor *Series, reanalysis *Series) *Table {
	s := sensor.Sorted()
	r := reanalysis.Sorted()

	byTime := make(map[int64][]int, r.Len())
	for i, d := range r.Date {
		key := d.UnixNano()
		byTime[key] = append(byTime[key], i)
	}

	t := &Table{}
	for i, d := range s.Date {
		for _, j := range byTime[d.UnixNano()] {
			t.date = append(t.date, d)
			t.Sensor = append(t.Sensor, s.Value[i])
			t.Reanalysis = append(t.Reanalysis, r.Value[j])
		}
	}

	logger.Infof("merged %d sensor rows and %d reanalysis rows into %d rows", s.Len(), r.Len(), t.Len())
	return t
}

// 開始日時 from から 終了日時 to まで (両端を含む) のデータを抜き出して新しい構造体を作成します。
func (t *Table) Extract(from time.Time, to time.Time) *Table {
	start_index := sort.Search(len(t.date), func(i int) bool {
		return !t.date[i].Before(from)
	})
	end_index := sort.Search(len(t.date), func(i int) bool {
		return t.date[i].After(to)
	})
	if end_index < start_index {
		end_index = start_index
	}

	return &Table{
		date:       append([]time.Time{}, t.date[start_index:end_index]...),
		Sensor:     append([]float64{}, t.Sensor[start_index:end_index]...),
		Reanalysis: append([]float64{}, t.Reanalysis[start_index:end_index]...),
	}
}

// 1時間を超えて空いている箇所
type Gap struct {
	Index   int       // 空きの直前の行
	Before  time.Time // 空きの直前の時刻
	After   time.Time // 空きの直後の時刻
	Missing int       // 欠けている時間数
}

// 隣り合う行が1時間を超えて離れている箇所をすべて返します。
func (t *Table) Gaps() []Gap {
	var gaps []Gap
	for i := 0; i+1 < len(t.date); i++ {
		step := t.date[i+1].Sub(t.date[i])
		if step > time.Hour {
			gaps = append(gaps, Gap{
				Index:   i,
				Before:  t.date[i],
				After:   t.date[i+1],
				Missing: int(step/time.Hour) - 1,
			})
		}
	}
	return gaps
}

// 欠測の一覧をログに出力します。目視での確認用。
func (t *Table) ReportGaps() []Gap {
	gaps := t.Gaps()
	if len(gaps) == 0 {
		logger.Infof("no lacking hours")
		return gaps
	}
	logger.Warnf("index of data which are lacking:")
	for _, g := range gaps {
		logger.Warnf("  %d: %s -> %s (%d h missing)",
			g.Index, g.Before.Format(EraTimeLayout), g.After.Format(EraTimeLayout), g.Missing)
	}
	return gaps
}
