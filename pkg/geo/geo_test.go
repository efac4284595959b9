package geo

import (
	"math"
	"testing"
)

type site struct {
	p  Point
	ok bool
}

func (s site) Coordinates() (Point, bool) { return s.p, s.ok }

func TestDistance_SamePoint(t *testing.T) {
	if d := Distance(10.77, 106.70, 10.77, 106.70); d != 0 {
		t.Errorf("相同坐标距离应为 0，实际=%v", d)
	}
}

func TestDistance_OneDegreeLatitudeAtEquator(t *testing.T) {
	d := Distance(0, 0, 1, 0)
	// 2πR/360 ≈ 111194.9m
	if math.Abs(d-111194.93) > 1 {
		t.Errorf("赤道 1 度纬度期望约 111195m，实际=%v", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Distance(10.7769, 106.7009, 21.0285, 105.8542)
	b := Distance(21.0285, 105.8542, 10.7769, 106.7009)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("距离应对称: %v vs %v", a, b)
	}
	// 胡志明市—河内直线约 1140km
	if a < 1100000 || a > 1180000 {
		t.Errorf("HCM-HN 距离异常: %v", a)
	}
}

func TestNearest(t *testing.T) {
	sites := []site{
		{ok: false},
		{p: Point{10.7800, 106.7000}, ok: true},
		{p: Point{10.7700, 106.7000}, ok: true},
	}
	idx, d := Nearest(Point{10.7701, 106.7000}, sites)
	if idx != 2 {
		t.Fatalf("期望最近门店下标 2，实际=%d", idx)
	}
	if d > 20 {
		t.Errorf("距离应约 11m，实际=%v", d)
	}
}

func TestNearest_NoCoordinates(t *testing.T) {
	idx, d := Nearest(Point{1, 1}, []site{{ok: false}})
	if idx != -1 || !math.IsInf(d, 1) {
		t.Errorf("无坐标时应返回 -1/Inf，实际=%d/%v", idx, d)
	}
}

func TestValid(t *testing.T) {
	if !Valid(10.77, 106.7) {
		t.Error("合法坐标被拒绝")
	}
	if Valid(91, 0) || Valid(0, 181) || Valid(math.NaN(), 0) {
		t.Error("非法坐标被接受")
	}
}
