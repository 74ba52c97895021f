package types

// Page is one slice of an ordered result: ids keep the order, entities hold the records.
type Page[T any] struct {
	Ids           []string     `json:"ids"`
	Entities      map[string]T `json:"entities"`
	Page          int          `json:"page"`
	TotalPages    int          `json:"totalPages"`
	TotalElements int          `json:"totalElements"`
}

func NewPage[T any](page, size, totalElements int) *Page[T] {
	totalPages := 0
	if size > 0 {
		totalPages = (totalElements + size - 1) / size
	}
	return &Page[T]{
		Ids:           []string{},
		Entities:      map[string]T{},
		Page:          page,
		TotalPages:    totalPages,
		TotalElements: totalElements,
	}
}

func (p *Page[T]) Add(id string, item T) {
	p.Ids = append(p.Ids, id)
	p.Entities[id] = item
}

func (p *Page[T]) Items() []T {
	ret := make([]T, 0, len(p.Ids))
	for _, id := range p.Ids {
		ret = append(ret, p.Entities[id])
	}
	return ret
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = 1000
)

type PageRequest struct {
	Page     int    `json:"page" schema:"page"`
	Size     int    `json:"size" schema:"size"`
	Include  string `json:"include,omitempty" schema:"include"`
	ShopId   string `json:"shopId,omitempty" schema:"shop"`
	CateId   string `json:"cateId,omitempty" schema:"cate"`
	LoadMore bool   `json:"loadMore,omitempty" schema:"loadMore"`
}

func (r *PageRequest) Sanitize() {
	r.Page = clamp(r.Page, 0, MaxPage)
	if r.Size == 0 {
		r.Size = DefaultPageSize
	}
	r.Size = clamp(r.Size, 1, MaxPageSize)
}

func (r PageRequest) IncludeChildren() bool {
	return r.Include == "children"
}

// Offset returns the slice bounds for the page within a sequence of total elements.
func (r PageRequest) Offset(total int) (int, int) {
	start := min(r.Page*r.Size, total)
	end := min(start+r.Size, total)
	return start, end
}

// FetchState mirrors the flags a query layer reports for an asynchronous read.
type FetchState struct {
	IsLoading  bool `json:"isLoading"`
	IsFetching bool `json:"isFetching"`
	IsSuccess  bool `json:"isSuccess"`
	IsError    bool `json:"isError"`
}
