// Package selection 列表多选、筛选与分页的状态工具
//
// 所有状态都由请求参数恢复（隐藏字段 / data 属性中的 CSV），服务端不保存
package selection

import (
	"strings"

	"tocotoco-hr/portal/internal/model"
)

// Set 保持插入顺序的 ID 集合；重复添加无效果
type Set struct {
	ids   []string
	index map[string]int
}

// NewSet 由 ID 列表构造集合，空值与重复项被忽略
func NewSet(ids ...string) *Set {
	s := &Set{index: make(map[string]int)}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// DecodeSet 解析逗号分隔的 ID
func DecodeSet(csv string) *Set {
	return NewSet(model.SplitCSV(csv)...)
}

// Add 添加 ID，返回是否为新增
func (s *Set) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// Remove 移除 ID，返回是否存在
func (s *Set) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
	return true
}

// Toggle 切换选中状态，返回切换后是否选中
func (s *Set) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	return s.Add(id)
}

func (s *Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// IDs 返回副本
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Set) Len() int { return len(s.ids) }

func (s *Set) Clear() {
	s.ids = nil
	s.index = make(map[string]int)
}

// Encode 序列化为 CSV，与 DecodeSet 对应
func (s *Set) Encode() string {
	return strings.Join(s.ids, ",")
}

// SetAll 全选或全不选给定 ID
func (s *Set) SetAll(ids []string, selected bool) {
	for _, id := range ids {
		if selected {
			s.Add(id)
		} else {
			s.Remove(id)
		}
	}
}
