// Package reanalysis は1地点の再解析の毎時2m気温 (tas) を取得します。
package reanalysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/forestclim/canopyfft/canopyfft"
	"github.com/hhkbp2/go-logging"
)

var logger = logging.GetLogger("reanalysis")

// 取得する地点と期間
type Query struct {
	Lat     float64   // 緯度（10進法）
	Lon     float64   // 経度（10進法）
	Start   time.Time // 開始日
	End     time.Time // 終了日 (その日を含む)
	Dataset string    // 再解析の名前 (era5_land)
	Project string    // APIキー (空なら無し)
}

// 2023年の ERA5-Land 毎時データ、北緯50.2度 東経3.70度
func DefaultQuery() Query {
	return Query{
		Lat:     50.2,
		Lon:     3.70,
		Start:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Dataset: "era5_land",
	}
}

func (q Query) validate() error {
	if q.Lat < -90 || q.Lat > 90 || q.Lon < -180 || q.Lon > 180 {
		return fmt.Errorf("invalid point lat=%g lon=%g", q.Lat, q.Lon)
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("end %s is before start %s", q.End.Format("2006-01-02"), q.Start.Format("2006-01-02"))
	}
	return nil
}

// キャッシュファイル名
func (q Query) cacheKey() string {
	return fmt.Sprintf("%s_%.4f_%.4f_%s_%s",
		q.Dataset, q.Lat, q.Lon, q.Start.Format("20060102"), q.End.Format("20060102"))
}

// 取得した再解析データ
type Dataset struct {
	Lat      float64 // 格子点の緯度
	Lon      float64 // 格子点の経度
	Distance float64 // 問い合わせ地点から格子点までの距離 [m]
	Series   *canopyfft.Series
}

//--------------------------------------
// 単位変換
//--------------------------------------

// ケルビンから摂氏
func KelvinToCelsius(k float64) float64 {
	return k - 273.15
}

// 華氏から摂氏
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// 単位 unit の気温を摂氏に変換する関数を返します。
func ToCelsius(unit string) (func(float64) float64, error) {
	switch strings.TrimSpace(unit) {
	case "K", "kelvin":
		return KelvinToCelsius, nil
	case "°F", "degF", "fahrenheit":
		return FahrenheitToCelsius, nil
	case "°C", "degC", "celsius", "C":
		return func(c float64) float64 { return c }, nil
	default:
		return nil, fmt.Errorf("unknown temperature unit %q", unit)
	}
}
