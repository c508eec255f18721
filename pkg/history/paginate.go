package history

const DefaultPageSize = 10

type Page struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// Paginate returns page (1-based) of entries. Pages past the end are empty.
func Paginate(entries []Entry, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(entries)
	p := Page{
		Items:      []Entry{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: total / pageSize,
	}
	if total%pageSize != 0 {
		p.TotalPages++
	}
	if total == 0 || page-1 > (total-1)/pageSize {
		return p
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = entries[start:end]
	return p
}
