package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"tocotoco-hr/portal/pkg/geo"
)

// Store 门店（远端 getStores 返回）
type Store struct {
	StoreID   string `json:"storeId"`
	StoreName string `json:"storeName"`
	Region    string `json:"region"`
	Address   string `json:"address,omitempty"`
	Latitude  Float  `json:"latitude"`
	Longitude Float  `json:"longitude"`
}

// Coordinates 实现 geo.Located；经纬度缺失时返回 false
func (s Store) Coordinates() (geo.Point, bool) {
	if !s.Latitude.Valid || !s.Longitude.Valid {
		return geo.Point{}, false
	}
	if !geo.Valid(s.Latitude.Value, s.Longitude.Value) {
		return geo.Point{}, false
	}
	return geo.Point{Lat: s.Latitude.Value, Lng: s.Longitude.Value}, true
}

// Label 下拉框显示文本
func (s Store) Label() string {
	if s.StoreName == "" {
		return s.StoreID
	}
	return s.StoreName
}

// Float 可选数值：远端可能返回数字、数字字符串、空串或 null
type Float struct {
	Value float64
	Valid bool
}

// NewFloat 构造有效数值
func NewFloat(v float64) Float { return Float{Value: v, Valid: true} }

func (f *Float) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = Float{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = Float{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// 非数字字符串视为缺失
			*f = Float{}
			return nil
		}
		*f = NewFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = NewFloat(v)
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
