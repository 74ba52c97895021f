package paging

import (
	"slices"

	"github.com/matst80/slask-storefront/pkg/types"
)

const (
	DrawerThreshold  = 4
	SidebarThreshold = 10
)

const (
	LabelShowMore = "Xem thêm"
	LabelShowLess = "Ẩn bớt"
)

// Cursor follows the incremental loading of one option list. IsMore means fetched
// pages are merged into what is already loaded.
type Cursor struct {
	IsMore        bool `json:"isMore"`
	Number        int  `json:"number"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
}

func initialCursor() Cursor {
	return Cursor{IsMore: true}
}

// HasNext reports whether another page can be requested.
func (c Cursor) HasNext() bool {
	return c.Number+1 < c.TotalPages
}

type Placeholder int

const (
	PlaceholderNone Placeholder = iota
	PlaceholderSkeleton
	PlaceholderEmpty
)

type View[T any] struct {
	Placeholder Placeholder `json:"placeholder"`
	Skeletons   int         `json:"skeletons,omitempty"`
	Message     string      `json:"message,omitempty"`
	Visible     []T         `json:"visible"`
	Overflow    []T         `json:"overflow"`
	Expanded    bool        `json:"expanded"`
	Collapsible bool        `json:"collapsible"`
	CanLoadMore bool        `json:"canLoadMore"`
	ToggleLabel string      `json:"toggleLabel,omitempty"`
	Cursor      Cursor      `json:"cursor"`
}

type status int

const (
	statusIdle status = iota
	statusLoading
	statusLoaded
	statusError
)

// Tracker accumulates the pages of one option list and decides whether "show more"
// fetches the next page or only expands what is already loaded.
type Tracker[T any] struct {
	threshold    int
	emptyMessage string
	cursor       Cursor
	loaded       int
	status       status
	hasData      bool
	expanded     bool
	ids          []string
	entities     map[string]T
}

func NewTracker[T any](threshold int, emptyMessage string) *Tracker[T] {
	if threshold <= 0 {
		threshold = DrawerThreshold
	}
	return &Tracker[T]{
		threshold:    threshold,
		emptyMessage: emptyMessage,
		cursor:       initialCursor(),
		ids:          []string{},
		entities:     map[string]T{},
	}
}

func (t *Tracker[T]) Threshold() int {
	return t.threshold
}

func (t *Tracker[T]) Cursor() Cursor {
	return t.cursor
}

func (t *Tracker[T]) Expanded() bool {
	return t.expanded
}

func (t *Tracker[T]) Ids() []string {
	return slices.Clone(t.ids)
}

func (t *Tracker[T]) Get(id string) (T, bool) {
	item, ok := t.entities[id]
	return item, ok
}

// Request is the read to issue for the current cursor.
func (t *Tracker[T]) Request(base types.PageRequest) types.PageRequest {
	base.Page = t.cursor.Number
	base.LoadMore = t.cursor.IsMore
	return base
}

func (t *Tracker[T]) Begin() {
	t.status = statusLoading
}

func (t *Tracker[T]) State() types.FetchState {
	return types.FetchState{
		IsLoading:  t.status == statusLoading && !t.hasData,
		IsFetching: t.status == statusLoading,
		IsSuccess:  t.status == statusLoaded,
		IsError:    t.status == statusError,
	}
}

// Resolve records the outcome of a fetch. A failed fetch keeps what was loaded and moves
// the cursor back to the last loaded page, so the next ShowMore asks for the same page.
func (t *Tracker[T]) Resolve(page *types.Page[T], err error) {
	if err != nil || page == nil {
		t.cursor.Number = t.loaded
		t.status = statusError
		return
	}
	if !t.cursor.IsMore || page.Page == 0 {
		t.ids = t.ids[:0]
		clear(t.entities)
	}
	for _, id := range page.Ids {
		item, ok := page.Entities[id]
		if !ok {
			continue
		}
		if _, exists := t.entities[id]; !exists {
			t.ids = append(t.ids, id)
		}
		t.entities[id] = item
	}
	t.cursor.Number = page.Page
	t.loaded = page.Page
	t.cursor.TotalPages = page.TotalPages
	t.cursor.TotalElements = page.TotalElements
	t.status = statusLoaded
	t.hasData = true
}

// ShowMore advances to the next page when there is one and reports that it has to be
// fetched, the list stays expanded. On the last page it flips the expanded flag.
func (t *Tracker[T]) ShowMore() bool {
	if t.cursor.HasNext() {
		t.cursor.Number++
		t.expanded = true
		return true
	}
	t.expanded = !t.expanded
	return false
}

// Expand opens the list without fetching.
func (t *Tracker[T]) Expand() {
	t.expanded = true
}

// ShowLess collapses the list, loaded pages are kept.
func (t *Tracker[T]) ShowLess() {
	t.expanded = false
}

// Reset starts over from page 0, used when the scope of the list changed.
func (t *Tracker[T]) Reset() {
	t.cursor = initialCursor()
	t.loaded = 0
	t.status = statusIdle
	t.hasData = false
	t.expanded = false
	t.ids = t.ids[:0]
	clear(t.entities)
}

// OverflowSelected reports whether one of the selected ids is not among the first
// threshold items, either loaded further down or not loaded at all.
func (t *Tracker[T]) OverflowSelected(selected ...string) bool {
	for _, id := range selected {
		if id == "" {
			continue
		}
		idx := slices.Index(t.ids, id)
		if idx < 0 || idx >= t.threshold {
			return true
		}
	}
	return false
}

func (t *Tracker[T]) View() View[T] {
	v := View[T]{
		Visible:  []T{},
		Overflow: []T{},
		Expanded: t.expanded,
		Cursor:   t.cursor,
	}
	if t.status == statusIdle || t.status == statusError || (t.status == statusLoading && !t.hasData) {
		v.Placeholder = PlaceholderSkeleton
		v.Skeletons = t.threshold
		return v
	}
	if len(t.ids) == 0 {
		v.Placeholder = PlaceholderEmpty
		v.Message = t.emptyMessage
		return v
	}
	for i, id := range t.ids {
		if i < t.threshold {
			v.Visible = append(v.Visible, t.entities[id])
		} else {
			v.Overflow = append(v.Overflow, t.entities[id])
		}
	}
	v.Collapsible = t.cursor.TotalElements > t.threshold
	v.CanLoadMore = t.cursor.HasNext()
	if v.Collapsible {
		if !t.expanded || v.CanLoadMore {
			v.ToggleLabel = LabelShowMore
		} else {
			v.ToggleLabel = LabelShowLess
		}
	}
	return v
}
