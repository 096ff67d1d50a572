package reanalysis

import (
	"errors"
	"math"
)

var errNotConverged = errors.New("vincenty: not converged")

// 2点間の楕円体上の距離 [m] (Vincenty法, GRS80)
//
// Args:
//
//	lat1, lon1: 問い合わせ地点の緯度・経度（10進法）
//	lat2, lon2: 格子点の緯度・経度（10進法）
//
// Notes:
//
//	https://ja.wikipedia.org/wiki/Vincenty法
//	対蹠点の近くなど収束しない場合はエラーを返します。
func Distance(lat1 float64, lon1 float64, lat2 float64, lon2 float64) (float64, error) {
	// 反復計算の上限回数
	const iterationLimit = 10000

	if math.Abs(lat1-lat2) < 1e-9 && math.Abs(lon1-lon2) < 1e-9 {
		return 0.0, nil
	}

	a := 6378137.0         // 長軸半径(GRS80)
	ƒ := 1 / 298.257222101 // 扁平率(GRS80)
	b := (1 - ƒ) * a

	// 更成緯度(補助球上の緯度)
	U1 := math.Atan((1 - ƒ) * math.Tan(lat1*math.Pi/180))
	U2 := math.Atan((1 - ƒ) * math.Tan(lat2*math.Pi/180))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	// 2点間の経度差
	L := (lon2 - lon1) * math.Pi / 180
	ramda := L

	var ramdaPrev, cos2A, sinS, cos2Sm, cosS, sigma float64
	converged := false
	for i := 0; i < iterationLimit; i++ {
		sinR, cosR := math.Sincos(ramda)
		sinS = math.Hypot(cosU2*sinR, cosU1*sinU2-sinU1*cosU2*cosR)
		cosS = sinU1*sinU2 + cosU1*cosU2*cosR
		sigma = math.Atan2(sinS, cosS)
		sinA := cosU1 * cosU2 * sinR / sinS
		cos2A = 1 - sinA*sinA
		cos2Sm = 0
		if cos2A != 0 {
			// 赤道上の2点は cos2A = 0
			cos2Sm = cosS - 2*sinU1*sinU2/cos2A
		}
		C := ƒ / 16 * cos2A * (4 + ƒ*(4-3*cos2A))

		ramdaPrev = ramda
		ramda = L + (1-C)*ƒ*sinA*(sigma+C*sinS*(cos2Sm+C*cosS*(-1+2*cos2Sm*cos2Sm)))

		if math.Abs(ramda-ramdaPrev) <= 1e-12 {
			converged = true
			break
		}
	}
	if !converged {
		return math.NaN(), errNotConverged
	}

	u2 := cos2A * (a*a - b*b) / (b * b)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	dS := B * sinS * (cos2Sm + B/4*(cosS*(-1+2*cos2Sm*cos2Sm)-B/6*cos2Sm*(-3+4*sinS*sinS)*(-3+4*cos2Sm*cos2Sm)))

	return b * A * (sigma - dS), nil
}

// 格子点までの距離をデータに記録してログに出力します。
func (d *Dataset) locate(q Query) {
	dist, err := Distance(q.Lat, q.Lon, d.Lat, d.Lon)
	if err != nil {
		logger.Warnf("grid point distance: %v", err)
	}
	d.Distance = dist
	logger.Infof("grid point (%.4f, %.4f) is %.0f m from (%.4f, %.4f)", d.Lat, d.Lon, dist, q.Lat, q.Lon)
}
