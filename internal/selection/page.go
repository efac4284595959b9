package selection

// DefaultPageSize 列表固定页大小
const DefaultPageSize = 10

// Page 一页数据；页码从 1 开始
type Page[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
}

// Paginate 分页；页码越界时夹到合法范围，空列表返回第 1 页
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		TotalPages: pages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}

// Pages 页码列表，供模板渲染分页按钮
func (p Page[T]) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
