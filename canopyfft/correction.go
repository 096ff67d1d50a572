package canopyfft

import (
	"fmt"
	"sort"
	"time"
)

// 既知のデータ不良に対する補正
//
// Note:
//
//	From から To まで (両端を含む) の行が対象です。
//	Shift が 0 以外なら時刻をずらし、Drop なら行を削除します。
//	どちらも無い場合は記録のみで何もしません。
type Correction struct {
	From  time.Time
	To    time.Time
	Shift time.Duration
	Drop  bool
	Note  string
}

func (c Correction) contains(d time.Time) bool {
	return !d.Before(c.From) && !d.After(c.To)
}

func (c Correction) action() string {
	switch {
	case c.Drop:
		return "drop"
	case c.Shift != 0:
		return fmt.Sprintf("shift %s", c.Shift)
	default:
		return "note"
	}
}

// 補正ごとの適用結果
type Applied struct {
	Correction Correction
	Rows       int // 対象になった行数
}

// 2023年の HOBO / ERA5-Land の組に必要な補正
// 10時間の欠測は埋めずに残します (Gaps で報告されます)。
func DefaultCorrections() []Correction {
	dst := time.Date(2023, 3, 26, 2, 0, 0, 0, time.UTC)
	return []Correction{
		{
			From:  dst,
			To:    dst,
			Shift: -time.Hour,
			Note:  "summer time switch, logger hour is one ahead",
		},
	}
}

// 補正表 corrections を順に適用した新しい構造体を作成します。
// 結果は時刻順に並べ直されます。
func (t *Table) Apply(corrections []Correction) (*Table, []Applied) {
	applied := make([]Applied, len(corrections))
	for i, c := range corrections {
		applied[i].Correction = c
	}

	out := &Table{}
	for i, d := range t.date {
		drop := false
		for k, c := range corrections {
			if !c.contains(t.date[i]) {
				continue
			}
			applied[k].Rows++
			if c.Drop {
				drop = true
				break
			}
			d = d.Add(c.Shift)
		}
		if drop {
			continue
		}
		out.date = append(out.date, d)
		out.Sensor = append(out.Sensor, t.Sensor[i])
		out.Reanalysis = append(out.Reanalysis, t.Reanalysis[i])
	}

	sort.Stable(byDate{out})

	for _, a := range applied {
		logger.Infof("correction %s..%s %s: %d rows (%s)",
			a.Correction.From.Format(EraTimeLayout), a.Correction.To.Format(EraTimeLayout),
			a.Correction.action(), a.Rows, a.Correction.Note)
	}

	return out, applied
}

type byDate struct{ t *Table }

func (b byDate) Len() int           { return len(b.t.date) }
func (b byDate) Less(i, j int) bool { return b.t.date[i].Before(b.t.date[j]) }
func (b byDate) Swap(i, j int) {
	b.t.date[i], b.t.date[j] = b.t.date[j], b.t.date[i]
	b.t.Sensor[i], b.t.Sensor[j] = b.t.Sensor[j], b.t.Sensor[i]
	b.t.Reanalysis[i], b.t.Reanalysis[j] = b.t.Reanalysis[j], b.t.Reanalysis[i]
}
