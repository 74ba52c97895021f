package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/paging"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noListings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_listings_total",
		Help: "The total number of processed book listings",
	})
	noOptionLists = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_option_lists_total",
		Help: "The total number of category and publisher pages served",
	})
)

const (
	emptyCategories = "Không có danh mục nào"
	emptyPublishers = "Không có NXB nào"
	maxShowMore     = 20
)

func (ws *WebServer) Categories(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	req, err := types.GetPageRequestFromRequest(r)
	if err != nil {
		return badRequest(err)
	}
	go noOptionLists.Inc()
	page, err := ws.Index.Categories(r.Context(), *req)
	if err != nil {
		return err
	}
	publicHeaders(w, r, "600")
	return writeJson(w, enc, http.StatusOK, page)
}

func (ws *WebServer) Publishers(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	req, err := types.GetPageRequestFromRequest(r)
	if err != nil {
		return badRequest(err)
	}
	go noOptionLists.Inc()
	page, err := ws.Index.Publishers(r.Context(), *req)
	if err != nil {
		return err
	}
	publicHeaders(w, r, "600")
	return writeJson(w, enc, http.StatusOK, page)
}

type FilterOptionsResponse struct {
	*filter.Options
	DrawerThreshold  int `json:"drawerThreshold"`
	SidebarThreshold int `json:"sidebarThreshold"`
}

func (ws *WebServer) FilterOptions(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	publicHeaders(w, r, "3600")
	return writeJson(w, enc, http.StatusOK, FilterOptionsResponse{
		Options:          ws.Options,
		DrawerThreshold:  paging.DrawerThreshold,
		SidebarThreshold: paging.SidebarThreshold,
	})
}

type FilterListsResponse struct {
	Categories paging.View[types.Category]  `json:"categories"`
	Publishers paging.View[types.Publisher] `json:"publishers"`
}

// FilterLists renders the category and publisher lists of the filter panel for the
// filter state in the query. "more" replays that many show more clicks and a list is
// opened when its selected entry is beyond the first entries.
func (ws *WebServer) FilterLists(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	query := r.URL.Query()
	state, err := types.DecodeFilterState(query)
	if err != nil {
		return badRequest(err)
	}
	threshold := paging.DrawerThreshold
	if query.Get("variant") == "sidebar" {
		threshold = paging.SidebarThreshold
	}
	more, _ := strconv.Atoi(query.Get("more"))
	more = min(max(more, 0), maxShowMore)

	ctx := r.Context()
	cates := paging.NewLoader(
		catalog.CategorySource(ws.Index),
		paging.NewTracker[types.Category](threshold, emptyCategories),
		types.PageRequest{ShopId: state.ShopId, Include: "children"},
		ws.Log,
	)
	pubs := paging.NewLoader(
		catalog.PublisherSource(ws.Index),
		paging.NewTracker[types.Publisher](threshold, emptyPublishers),
		types.PageRequest{ShopId: state.ShopId, CateId: state.Cate.Id},
		ws.Log,
	)
	cates.Load(ctx)
	pubs.Load(ctx)
	for range more {
		cates.ShowMore(ctx)
		pubs.ShowMore(ctx)
	}

	if cateId := state.Cate.Id; cateId != "" {
		reveal(ctx, cates, func(c types.Category) bool {
			return c.Id == cateId || c.HasChild(cateId)
		})
	}
	if pubs.Tracker.OverflowSelected(state.PubIds...) {
		reveal(ctx, pubs, func(p types.Publisher) bool {
			return filter.IsSelected(state.PubIds, p.Id)
		})
	}

	defaultHeaders(w, r, "120")
	return writeJson(w, enc, http.StatusOK, FilterListsResponse{
		Categories: cates.View(),
		Publishers: pubs.View(),
	})
}

// reveal loads pages until an entry matching the selection is loaded and expands the
// list when that entry is not among the visible ones.
func reveal[T any](ctx context.Context, l *paging.Loader[T], selected func(T) bool) {
	tr := l.Tracker
	for {
		pos := slices.IndexFunc(tr.Ids(), func(id string) bool {
			item, ok := tr.Get(id)
			return ok && selected(item)
		})
		if pos >= 0 {
			if pos >= tr.Threshold() {
				tr.Expand()
			}
			return
		}
		if !tr.Cursor().HasNext() || tr.State().IsError {
			return
		}
		l.ShowMore(ctx)
	}
}

type ListingResponse struct {
	Filters types.FilterState       `json:"filters"`
	Preset  int                     `json:"preset"`
	Page    *types.Page[types.Book] `json:"page"`
	Draft   *DraftResponse          `json:"draft,omitempty"`
}

func (ws *WebServer) listing(r *http.Request, sessionId int, state types.FilterState, req types.PageRequest) (*ListingResponse, error) {
	go noListings.Inc()
	page, err := ws.Index.Books(r.Context(), state, req)
	if err != nil {
		return nil, err
	}
	if ws.Tracking != nil {
		go ws.Tracking.TrackFilter(sessionId, &state, page.TotalElements, page.Page, r)
	}
	return &ListingResponse{
		Filters: state,
		Preset:  ws.Options.MatchingPreset(state.Value),
		Page:    page,
	}, nil
}

// Books is the immediate mode listing, every change on the client is a new request.
func (ws *WebServer) Books(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	lr, err := types.GetListingFromRequest(r)
	if err != nil {
		return badRequest(err)
	}
	res, err := ws.listing(r, sessionId, lr.Filters, lr.PageRequest)
	if err != nil {
		return httpError(err)
	}
	defaultHeaders(w, r, "120")
	return writeJson(w, enc, http.StatusOK, res)
}

func (ws *WebServer) GetBook(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
	id, err := types.ParseItemId(r.PathValue("id"))
	if err != nil {
		return badRequest(err)
	}
	book, err := ws.Index.Book(id)
	if err != nil {
		return httpError(err)
	}
	publicHeaders(w, r, "120")
	return writeJson(w, enc, http.StatusOK, book)
}
