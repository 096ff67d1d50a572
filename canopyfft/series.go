package canopyfft

import (
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 読み込んだ1系列の毎時データ
type Series struct {
	Name  string      // 値の列名 (t_hobo, t_era)
	Date  []time.Time // 参照時刻 (UTC)
	Value []float64   // 気温 [°C], 欠測は NaN
}

// 行数
func (s *Series) Len() int { return len(s.Date) }

// ソースファイルの列の定義
type SourceSpec struct {
	TimeColumn  string `yaml:"time_column"`
	TimeLayout  string `yaml:"time_layout"`
	ValueColumn string `yaml:"value_column"`
	Rename      string `yaml:"rename"` // 読み込み後の列名, 空なら ValueColumn
}

// HOBO ロガーの hobo.tsv
func DefaultSensorSpec() SourceSpec {
	return SourceSpec{
		TimeColumn:  "datetime",
		TimeLayout:  "2006-01-02T15:04:05Z",
		ValueColumn: "t_hobo",
	}
}

// getera が書き出す era.tsv
func DefaultReanalysisSpec() SourceSpec {
	return SourceSpec{
		TimeColumn:  "time",
		TimeLayout:  EraTimeLayout,
		ValueColumn: "tas",
		Rename:      "t_era",
	}
}

// era.tsv の時刻の書式
const EraTimeLayout = "2006-01-02 15:04:05"

func (spec SourceSpec) name() string {
	if spec.Rename != "" {
		return spec.Rename
	}
	return spec.ValueColumn
}

// タブ区切りのテーブル r から時刻列と値列を読み込みます。
// Args:
//
//	r(io.Reader): ヘッダー付きのタブ区切りテキスト
//	spec(SourceSpec): 列名と時刻の書式
//
// Returns:
//
//	*Series: 時刻順とは限らない読み込み順の系列
func LoadSeries(r io.Reader, spec SourceSpec) (*Series, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter('\t'),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(map[string]series.Type{
			spec.TimeColumn:  series.String,
			spec.ValueColumn: series.String,
		}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read table: %w", df.Err)
	}

	if !hasColumn(df, spec.TimeColumn) {
		return nil, fmt.Errorf("column %q not found (have %s)", spec.TimeColumn, strings.Join(df.Names(), ", "))
	}
	if !hasColumn(df, spec.ValueColumn) {
		return nil, fmt.Errorf("column %q not found (have %s)", spec.ValueColumn, strings.Join(df.Names(), ", "))
	}

	times := df.Col(spec.TimeColumn).Records()
	values := df.Col(spec.ValueColumn).Records()

	s := &Series{
		Name:  spec.name(),
		Date:  make([]time.Time, len(times)),
		Value: make([]float64, len(values)),
	}
	for i, raw := range times {
		date, err := time.Parse(spec.TimeLayout, strings.TrimSpace(raw))
		if err != nil {
			// ヘッダーが1行目なのでデータは2行目から
			return nil, fmt.Errorf("row %d: %s %q: %w", i+2, spec.TimeColumn, raw, err)
		}
		s.Date[i] = date.UTC()
		s.Value[i] = parseValue(values[i])
	}

	return s, nil
}

// ファイル path から系列を読み込みます。拡張子が .gz の場合は展開します。
func LoadSeriesFile(path string, spec SourceSpec) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gf, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gf.Close()
		r = gf
	}

	s, err := LoadSeries(r, spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

type seriesAndIndex struct {
	Index  int
	Series *Series
	Err    error
}

// センサーと再解析の2ファイルを並行して読み込みます。
func LoadSources(sensorPath string, sensorSpec SourceSpec, reanalysisPath string, reanalysisSpec SourceSpec) (*Series, *Series, error) {
	paths := [2]string{sensorPath, reanalysisPath}
	specs := [2]SourceSpec{sensorSpec, reanalysisSpec}

	c := make(chan seriesAndIndex, len(paths))
	for index := range paths {
		go func(index int) {
			s, err := LoadSeriesFile(paths[index], specs[index])
			c <- seriesAndIndex{index, s, err}
		}(index)
	}

	var loaded [2]*Series
	var firstErr error
	for i := 0; i < len(paths); i++ {
		ret := <-c
		if ret.Err != nil {
			if firstErr == nil {
				firstErr = ret.Err
			}
			continue
		}
		loaded[ret.Index] = ret.Series
		logger.Infof("loaded %s: %d rows (%s)", paths[ret.Index], ret.Series.Len(), ret.Series.Name)
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}

	return loaded[0], loaded[1], nil
}

// 時刻順に並べ替えた新しい系列を返します。
func (s *Series) Sorted() *Series {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Date[idx[a]].Before(s.Date[idx[b]])
	})

	out := &Series{
		Name:  s.Name,
		Date:  make([]time.Time, len(idx)),
		Value: make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Date[i] = s.Date[j]
		out.Value[i] = s.Value[j]
	}
	return out
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func parseValue(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
