package util

// Directory pages default to ten malls; oversized requests are clamped so a
// single listing cannot sweep the whole table.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Calculate maps 1-based page/size query values onto an offset/limit pair.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return (page - 1) * size, size
}
