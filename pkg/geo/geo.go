// Package geo 提供打卡所需的球面距离计算
package geo

import "math"

// EarthRadiusMeters 地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// Point 经纬度坐标（角度制）
type Point struct {
	Lat float64
	Lng float64
}

// Distance 使用 haversine 公式计算两点间大圆距离（米）
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := toRad(lat1)
	φ2 := toRad(lat2)
	dφ := toRad(lat2 - lat1)
	dλ := toRad(lng2 - lng1)

	a := math.Sin(dφ/2)*math.Sin(dφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Located 可参与距离比较的对象（门店）
type Located interface {
	Coordinates() (Point, bool)
}

// Nearest 返回距离 p 最近且带坐标的元素下标与距离
// 无可用坐标时 idx 为 -1
func Nearest[T Located](p Point, items []T) (idx int, meters float64) {
	idx = -1
	meters = math.Inf(1)
	for i, it := range items {
		q, ok := it.Coordinates()
		if !ok {
			continue
		}
		d := Distance(p.Lat, p.Lng, q.Lat, q.Lng)
		if d < meters {
			idx, meters = i, d
		}
	}
	return idx, meters
}

// Valid 经纬度是否落在合法范围
func Valid(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lng) &&
		lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
