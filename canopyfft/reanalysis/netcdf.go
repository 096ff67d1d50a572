package reanalysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/forestclim/canopyfft/canopyfft"
)

//--------------------------------------
// ERA5-Land の netCDF ファイル
//--------------------------------------

// ダウンロード済みの ERA5-Land netCDF ファイル path から、q の地点に最も近い格子点の2m気温を読み込みます。
//
// Note:
//
//	t2m は scale_factor / add_offset でパックされた short か float で、単位はケルビンです。
//	時刻は time (hours since 1900-01-01) または valid_time (seconds since 1970-01-01) です。
func ReadNetCDF(path string, q Query) (*Dataset, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	lats, err := floatValues(nc, "latitude")
	if err != nil {
		return nil, err
	}
	lons, err := floatValues(nc, "longitude")
	if err != nil {
		return nil, err
	}
	times, err := timeValues(nc)
	if err != nil {
		return nil, err
	}

	ilat := nearest(lats, q.Lat)
	ilon := nearest(lons, normalizeLon(q.Lon, lons))
	logger.Infof("netcdf %s: grid point %d,%d (%.3f, %.3f)", path, ilat, ilon, lats[ilat], lons[ilon])

	vr, err := nc.GetVariable("t2m")
	if err != nil {
		return nil, fmt.Errorf("t2m: %w", err)
	}
	scale, offset, fill := packing(vr.Attributes)

	unit := "K"
	if u, ok := vr.Attributes.Get("units"); ok {
		if s, ok := u.(string); ok {
			unit = s
		}
	}
	toCelsius, err := ToCelsius(unit)
	if err != nil {
		return nil, err
	}

	end := q.End.Add(24 * time.Hour)
	s := &canopyfft.Series{Name: "tas"}
	for it, date := range times {
		if date.Before(q.Start) || !date.Before(end) {
			continue
		}
		raw, err := cell(vr.Values, it, ilat, ilon)
		if err != nil {
			return nil, err
		}
		v := math.NaN()
		if !(fill != nil && raw == *fill) {
			v = toCelsius(raw*scale + offset)
		}
		s.Date = append(s.Date, date)
		s.Value = append(s.Value, v)
	}

	data := &Dataset{Lat: lats[ilat], Lon: lons[ilon], Series: s}
	data.locate(q)
	return data, nil
}

func floatValues(nc api.Group, name string) ([]float64, error) {
	vr, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	switch v := vr.Values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i := range v {
			out[i] = float64(v[i])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unexpected type %T", name, vr.Values)
	}
}

func timeValues(nc api.Group) ([]time.Time, error) {
	var vr *api.Variable
	var err error
	for _, name := range []string{"time", "valid_time"} {
		vr, err = nc.GetVariable(name)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errors.New("no time or valid_time variable")
	}

	units := ""
	if u, ok := vr.Attributes.Get("units"); ok {
		units, _ = u.(string)
	}
	step, epoch, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	var offsets []float64
	switch v := vr.Values.(type) {
	case []int32:
		for _, x := range v {
			offsets = append(offsets, float64(x))
		}
	case []int64:
		for _, x := range v {
			offsets = append(offsets, float64(x))
		}
	case []float64:
		offsets = v
	default:
		return nil, fmt.Errorf("time: unexpected type %T", vr.Values)
	}

	times := make([]time.Time, len(offsets))
	for i, x := range offsets {
		times[i] = epoch.Add(time.Duration(x * float64(step)))
	}
	return times, nil
}

// "hours since 1900-01-01 00:00:00.0" の形式の単位を読みます。
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
	}

	var step time.Duration
	switch strings.TrimSpace(parts[0]) {
	case "seconds":
		step = time.Second
	case "minutes":
		step = time.Minute
	case "hours":
		step = time.Hour
	case "days":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
	}

	ref := strings.TrimSuffix(strings.TrimSpace(parts[1]), ".0")
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if epoch, err := time.Parse(layout, ref); err == nil {
			return step, epoch.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("invalid time units %q", units)
}

func packing(attrs api.AttributeMap) (scale float64, offset float64, fill *float64) {
	scale = 1
	if v, ok := attrs.Get("scale_factor"); ok {
		if f, ok := toFloat(v); ok {
			scale = f
		}
	}
	if v, ok := attrs.Get("add_offset"); ok {
		if f, ok := toFloat(v); ok {
			offset = f
		}
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrs.Get(key); ok {
			if f, ok := toFloat(v); ok {
				fill = &f
				break
			}
		}
	}
	return scale, offset, fill
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int16:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

// (time, latitude, longitude) の配列から1つの値を取り出します。
func cell(values interface{}, it int, ilat int, ilon int) (float64, error) {
	switch v := values.(type) {
	case [][][]int16:
		return float64(v[it][ilat][ilon]), nil
	case [][][]float32:
		return float64(v[it][ilat][ilon]), nil
	case [][][]float64:
		return v[it][ilat][ilon], nil
	default:
		return 0, fmt.Errorf("t2m: unexpected type %T", values)
	}
}

func nearest(grid []float64, x float64) int {
	best := 0
	for i := range grid {
		if math.Abs(grid[i]-x) < math.Abs(grid[best]-x) {
			best = i
		}
	}
	return best
}

// 格子が 0..360 の経度の場合は負の経度を合わせます。
func normalizeLon(lon float64, grid []float64) float64 {
	for _, g := range grid {
		if g > 180 {
			if lon < 0 {
				return lon + 360
			}
			return lon
		}
	}
	return lon
}
