package apiclient

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// NormalizeList 将远端返回的列表统一为有序记录序列
//
// 支持的形状：
//   - 数组 [{...}, {...}]
//   - 数字键对象 {"0": {...}, "1": {...}, "timestamp": ..., "status": ...}
//   - {"results": [...]}
//   - {"data": [...]} 或 {"data": {"0": {...}}}
//
// 非对象元素与非数字键被丢弃；其余形状返回空切片
func NormalizeList(raw json.RawMessage) []json.RawMessage {
	return normalize(raw, 0)
}

// results/data 只向下展开一层
const maxNormalizeDepth = 1

func normalize(raw json.RawMessage, depth int) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []json.RawMessage{}
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []json.RawMessage{}
		}
		return objectsOnly(items)

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return []json.RawMessage{}
		}
		if items := numericValues(obj); len(items) > 0 {
			return items
		}
		if depth >= maxNormalizeDepth {
			return []json.RawMessage{}
		}
		for _, key := range []string{"results", "data"} {
			if inner, ok := obj[key]; ok {
				if items := normalize(inner, depth+1); len(items) > 0 {
					return items
				}
			}
		}
	}
	return []json.RawMessage{}
}

// numericValues 按数字键升序取出对象值
func numericValues(obj map[string]json.RawMessage) []json.RawMessage {
	type kv struct {
		idx int
		val json.RawMessage
	}
	pairs := make([]kv, 0, len(obj))
	for k, v := range obj {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 {
			continue
		}
		pairs = append(pairs, kv{idx: n, val: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })

	items := make([]json.RawMessage, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, p.val)
	}
	return objectsOnly(items)
}

func objectsOnly(items []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) > 0 && it[0] == '{' {
			out = append(out, it)
		}
	}
	return out
}

// DecodeList 归一化后逐条解码，解码失败的记录被跳过
func DecodeList[T any](raw json.RawMessage) []T {
	records := NormalizeList(raw)
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DecodeField 解码对象中的某个字段；字段缺失时返回 false
func DecodeField(raw json.RawMessage, field string, dst interface{}) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	v, ok := obj[field]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return false
	}
	return json.Unmarshal(v, dst) == nil
}
