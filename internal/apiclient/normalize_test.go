package apiclient

import (
	"encoding/json"
	"reflect"
	"testing"
)

type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNormalizeList_NumericObjectEqualsArray(t *testing.T) {
	arr := json.RawMessage(`[{"id":"a","name":"A"},{"id":"b","name":"B"},{"id":"c","name":"C"}]`)
	obj := json.RawMessage(`{"2":{"id":"c","name":"C"},"0":{"id":"a","name":"A"},"1":{"id":"b","name":"B"},"timestamp":1700000000,"status":"ok"}`)

	fromArr := DecodeList[rec](arr)
	fromObj := DecodeList[rec](obj)
	if !reflect.DeepEqual(fromArr, fromObj) {
		t.Fatalf("数字键对象与数组归一化结果不一致:\n%v\n%v", fromArr, fromObj)
	}
	if len(fromObj) != 3 || fromObj[0].ID != "a" || fromObj[2].ID != "c" {
		t.Errorf("顺序错误: %v", fromObj)
	}
}

func TestNormalizeList_NumericOrderIsNumeric(t *testing.T) {
	// "10" 必须排在 "2" 之后
	obj := json.RawMessage(`{"10":{"id":"k"},"2":{"id":"c"},"0":{"id":"a"}}`)
	got := DecodeList[rec](obj)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []string{"a", "c", "k"}) {
		t.Errorf("数字键应按数值排序: %v", ids)
	}
}

func TestNormalizeList_Shapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"数组", `[{"id":"1"},{"id":"2"}]`, 2},
		{"results", `{"results":[{"id":"1"}],"total":1}`, 1},
		{"data 数组", `{"data":[{"id":"1"},{"id":"2"},{"id":"3"}]}`, 3},
		{"data 数字键对象", `{"data":{"0":{"id":"1"},"timestamp":1}}`, 1},
		{"丢弃非对象元素", `[{"id":"1"},null,"x",3]`, 1},
		{"数字键非对象值", `{"0":"x","1":{"id":"1"}}`, 1},
		{"单个对象", `{"id":"1","name":"x"}`, 0},
		{"字符串", `"hello"`, 0},
		{"null", `null`, 0},
		{"空", ``, 0},
		{"非法 JSON", `{"0":`, 0},
		{"只有元数据", `{"timestamp":1,"status":"ok"}`, 0},
		{"嵌套过深", `{"data":{"data":[{"id":"1"}]}}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NormalizeList(json.RawMessage(c.raw))
			if got == nil {
				t.Fatal("结果不应为 nil")
			}
			if len(got) != c.want {
				t.Errorf("期望 %d 条, 实际 %d 条", c.want, len(got))
			}
		})
	}
}

func TestDecodeList_SkipsBadRecords(t *testing.T) {
	type typed struct {
		N int `json:"n"`
	}
	got := DecodeList[typed](json.RawMessage(`[{"n":1},{"n":"bad"},{"n":3}]`))
	if len(got) != 2 || got[1].N != 3 {
		t.Errorf("应跳过无法解码的记录: %v", got)
	}
}

func TestDecodeField(t *testing.T) {
	raw := json.RawMessage(`{"stats":{"workDaysThisMonth":20},"currentShift":null}`)
	var stats struct {
		WorkDays int `json:"workDaysThisMonth"`
	}
	if !DecodeField(raw, "stats", &stats) || stats.WorkDays != 20 {
		t.Errorf("字段解码失败: %+v", stats)
	}
	var x map[string]interface{}
	if DecodeField(raw, "currentShift", &x) {
		t.Error("null 字段应返回 false")
	}
	if DecodeField(raw, "missing", &x) {
		t.Error("缺失字段应返回 false")
	}
}
