package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/storage"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customer = types.Account{Id: 1, Username: "khach", Roles: []types.Role{types.RoleUser}}
	stranger = types.Account{Id: 2, Username: "la", Roles: []types.Role{types.RoleUser}}
	seller   = types.Account{Id: 3, Username: "shop", Roles: []types.Role{types.RoleSeller}}
)

func testCatalog() *types.Catalog {
	return &types.Catalog{
		Categories: []types.Category{
			{Id: "1", Slug: "van-hoc", Name: "Văn học", Children: []types.Category{
				{Id: "11", Slug: "tieu-thuyet", Name: "Tiểu thuyết"},
			}},
			{Id: "2", Slug: "kinh-te", Name: "Kinh tế"},
			{Id: "3", Slug: "thieu-nhi", Name: "Thiếu nhi"},
		},
		Publishers: []types.Publisher{
			{Id: "p1", Name: "Nhã Nam"},
			{Id: "p2", Name: "Kim Đồng"},
			{Id: "p3", Name: "Trẻ"},
			{Id: "p4", Name: "Tổng hợp"},
			{Id: "p5", Name: "Phụ nữ"},
			{Id: "p6", Name: "Văn học"},
		},
		Books: []types.Book{
			{Id: 1, Title: "A", Price: 100000, Amount: 1, Type: "PAPERBACK", Rating: 4.5, PublisherId: "p1", CategoryId: "11", ShopId: "s1"},
			{Id: 2, Title: "B", Price: 400000, Amount: 0, Type: "HARDCOVER", Rating: 3, PublisherId: "p2", CategoryId: "1", ShopId: "s1"},
			{Id: 3, Title: "C", Price: 800000, Amount: 2, Type: "BOXSET", Rating: 5, PublisherId: "p6", CategoryId: "2", ShopId: "s2"},
		},
	}
}

type testServer struct {
	ws      *WebServer
	handler http.Handler
	repo    *storage.MemoryOrderRepository
	tokens  map[int64]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	idx := catalog.NewIndex()
	idx.Load(testCatalog())

	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	repo := storage.NewMemoryOrderRepository(nil)
	repo.Put(
		types.OrderDetail{Id: 100, OrderId: 10, UserId: customer.Id, ShopOwnerId: seller.Id, Status: types.StatusShipping,
			PaymentStatus: types.PaymentPaid, TotalPrice: 100000, OrderedDate: now.Add(-48 * time.Hour), Date: now.Add(-time.Hour),
			Items: []types.OrderItem{{BookId: 1, Title: "A", Price: 100000, Quantity: 1}, {BookId: 2, Title: "B", Price: 400000, Quantity: 1}}},
		types.OrderDetail{Id: 101, OrderId: 11, UserId: customer.Id, ShopOwnerId: seller.Id, Status: types.StatusPending,
			OrderedDate: now.Add(-24 * time.Hour), Date: now.Add(-24 * time.Hour)},
	)
	repo.PutPayments(
		types.PaymentInfo{Id: 1, OrderId: 10, Amount: 100000, Status: types.PaymentPaid},
		types.PaymentInfo{Id: 2, OrderId: 11, Status: types.PaymentPending},
	)
	orders := order.NewService(repo, order.Config{Now: func() time.Time { return now }})

	auth, err := NewTokenAuth("test-secret", time.Hour)
	require.NoError(t, err)
	tokens := map[int64]string{}
	for _, acct := range []types.Account{customer, stranger, seller} {
		token, err := auth.CreateToken(acct)
		require.NoError(t, err)
		tokens[acct.Id] = token
	}

	ws := NewWebServer(idx, filter.NewMemoryDraftStore(time.Hour), orders, auth, nil)
	return &testServer{ws: ws, handler: ws.ClientHandler(), repo: repo, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, target string, body any, acct *types.Account) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if acct != nil {
		req.Header.Set("Authorization", "Bearer "+s.tokens[acct.Id])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCategoriesPage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/categories?size=2&include=children", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	page := decode[types.Page[types.Category]](t, rec)
	assert.Equal(t, []string{"1", "2"}, page.Ids)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Entities["1"].Children, 1)
}

func TestBooksListing(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/books?cate=1&type=PAPERBACK||HARDCOVER&value=0-150000", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[ListingResponse](t, rec)
	assert.Equal(t, []string{"1"}, res.Page.Ids)
	assert.Equal(t, []string{"PAPERBACK", "HARDCOVER"}, res.Filters.Types)
	assert.Equal(t, 0, res.Preset)

	rec = s.do(t, http.MethodGet, "/api/books?value=cheap", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[common.ErrorResponse](t, rec).Error, "invalid price range")
}

func TestGetBook(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/books/3", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/books/99", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/books/abc", nil, nil).Code)
}

func TestFilterListsRevealSelectedPublisher(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/filter-lists?pubId=p6", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[FilterListsResponse](t, rec)
	assert.True(t, res.Publishers.Expanded)
	assert.Len(t, res.Publishers.Visible, 4)
	assert.Len(t, res.Publishers.Overflow, 2)
	assert.Equal(t, "Ẩn bớt", res.Publishers.ToggleLabel)

	rec = s.do(t, http.MethodGet, "/api/filter-lists?cate=11", nil, nil)
	res = decode[FilterListsResponse](t, rec)
	assert.False(t, res.Categories.Expanded, "the parent of the selected category is visible")
	assert.Len(t, res.Categories.Visible, 3)
	require.Len(t, res.Publishers.Visible, 1)
	assert.Equal(t, "p1", res.Publishers.Visible[0].Id)

	rec = s.do(t, http.MethodGet, "/api/filter-lists?variant=sidebar&shop=missing", nil, nil)
	res = decode[FilterListsResponse](t, rec)
	assert.Equal(t, "Không có danh mục nào", res.Categories.Message)
}

func TestFilterOptions(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/filter-options", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[FilterOptionsResponse](t, rec)
	assert.Len(t, res.Prices, 5)
	assert.Equal(t, 4, res.DrawerThreshold)
	assert.Equal(t, 10, res.SidebarThreshold)
}

func TestDraftFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/drafts?type=BOXSET", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	draft := decode[DraftResponse](t, rec)
	require.NotEmpty(t, draft.Id)
	assert.False(t, draft.Dirty)
	assert.Equal(t, []string{"BOXSET"}, draft.Current.Types)

	rec = s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/changes", ChangesRequest{Changes: []filter.Change{
		{Op: filter.OpToggleType, Value: "BOXSET"},
		{Op: filter.OpTogglePublisher, Value: "p1"},
		{Op: filter.OpPreset, Index: 0},
	}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft = decode[DraftResponse](t, rec)
	assert.True(t, draft.Dirty)
	assert.Equal(t, []string{"p1"}, draft.Current.PubIds)
	assert.Equal(t, []string{"BOXSET"}, draft.Committed.Types)
	assert.Equal(t, 0, draft.Preset)

	rec = s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/apply", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listing := decode[ListingResponse](t, rec)
	assert.Equal(t, []string{"1"}, listing.Page.Ids)
	require.NotNil(t, listing.Draft)
	assert.False(t, listing.Draft.Dirty)

	rec = s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/reset", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing = decode[ListingResponse](t, rec)
	assert.Empty(t, listing.Filters.PubIds)
	assert.Len(t, listing.Page.Ids, 3)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/drafts/"+draft.Id, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/drafts/"+draft.Id, nil, nil).Code)
}

func TestDraftFromPartialBodyKeepsDefaults(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/drafts", map[string]any{
		"initial":  map[string]any{"cate": map[string]string{"id": "1"}},
		"defaults": map[string]any{"rating": 3},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draft := decode[DraftResponse](t, rec)
	assert.Equal(t, types.DefaultPriceRange(), draft.Current.Value)
	assert.Equal(t, types.DefaultPriceRange(), draft.Defaults.Value)
	assert.Equal(t, 3, draft.Defaults.Rating)

	rec = s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/apply", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listing := decode[ListingResponse](t, rec)
	assert.Equal(t, types.DefaultPriceRange(), listing.Filters.Value)
	assert.Equal(t, 2, listing.Page.TotalElements)
}

func TestDraftCancelDropsChanges(t *testing.T) {
	s := newTestServer(t)
	draft := decode[DraftResponse](t, s.do(t, http.MethodPost, "/api/drafts", nil, nil))

	s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/changes", ChangesRequest{Changes: []filter.Change{
		{Op: filter.OpRating, Rating: 4},
	}}, nil)
	rec := s.do(t, http.MethodPost, "/api/drafts/"+draft.Id+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	draft = decode[DraftResponse](t, rec)
	assert.Equal(t, 0, draft.Current.Rating)
	assert.False(t, draft.Dirty)
}

func TestDraftRejectsInvalidChanges(t *testing.T) {
	s := newTestServer(t)
	draft := decode[DraftResponse](t, s.do(t, http.MethodPost, "/api/drafts", nil, nil))
	path := "/api/drafts/" + draft.Id + "/changes"

	tests := []struct {
		name string
		body any
	}{
		{"empty", ChangesRequest{}},
		{"unknown op", ChangesRequest{Changes: []filter.Change{{Op: "explode"}}}},
		{"bad rating", ChangesRequest{Changes: []filter.Change{{Op: filter.OpRating, Rating: 9}}}},
		{"bad preset", ChangesRequest{Changes: []filter.Change{{Op: filter.OpPreset, Index: 12}}}},
		{"bad cover", ChangesRequest{Changes: []filter.Change{{Op: filter.OpToggleType, Value: "SCROLL"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path, tt.body, nil).Code)
		})
	}

	stored := decode[DraftResponse](t, s.do(t, http.MethodGet, "/api/drafts/"+draft.Id, nil, nil))
	assert.False(t, stored.Dirty)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/drafts/missing/changes", ChangesRequest{Changes: []filter.Change{
		{Op: filter.OpRating, Rating: 1},
	}}, nil).Code)
}

func TestOrdersRequireToken(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/orders", nil, nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/100", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/100", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: s.tokens[customer.Id]})
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenRejectsOtherSigningKey(t *testing.T) {
	other, err := NewTokenAuth("other-secret", time.Hour)
	require.NoError(t, err)
	token, err := other.CreateToken(customer)
	require.NoError(t, err)

	auth, err := NewTokenAuth("test-secret", time.Hour)
	require.NoError(t, err)
	_, err = auth.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	acct, err := other.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, customer.Id, acct.Id)
	assert.Equal(t, customer.Roles, acct.Roles)

	_, err = NewTokenAuth("", time.Hour)
	assert.Error(t, err)
}

func TestGetOrderView(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders/100", nil, &customer)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[OrderView](t, rec)
	assert.Equal(t, int64(100), view.Id)
	assert.Equal(t, []order.Action{order.ActionConfirm}, view.Actions)
	require.NotNil(t, view.Step)
	require.NotNil(t, view.StatusInfo)
	assert.Equal(t, "Đang giao", view.StatusInfo.Label)
	assert.False(t, view.ShowReason)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/orders/100", nil, &stranger).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/orders/999", nil, &customer).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/orders/x", nil, &customer).Code)
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders?size=1", nil, &customer)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[types.Page[OrderView]](t, rec)
	assert.Equal(t, 2, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Ids, 1)

	page = decode[types.Page[OrderView]](t, s.do(t, http.MethodGet, "/api/orders", nil, &stranger))
	assert.Equal(t, 0, page.TotalElements)
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/orders/101/cancel", ReasonRequest{}, &customer).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/orders/101/cancel", ReasonRequest{Reason: "x"}, &stranger).Code)

	rec := s.do(t, http.MethodPost, "/api/orders/101/cancel", ReasonRequest{Reason: "Đổi ý"}, &customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[OrderView](t, rec)
	assert.Equal(t, types.StatusCanceled, view.Status)
	assert.Equal(t, "Đổi ý", view.Note)
	assert.True(t, view.ShowReason)
	assert.Equal(t, []order.Action{order.ActionRebuy}, view.Actions)

	rec = s.do(t, http.MethodPost, "/api/orders/101/cancel", ReasonRequest{Reason: "again"}, &customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, order.ErrInvalidStatus.Error(), decode[common.ErrorResponse](t, rec).Error)
}

func TestConfirmThenRefund(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/orders/100/confirm", nil, &customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[OrderView](t, rec)
	assert.Equal(t, types.StatusCompleted, view.Status)
	assert.Equal(t, []order.Action{order.ActionRebuy, order.ActionRefund}, view.Actions)

	rec = s.do(t, http.MethodPost, "/api/orders/100/refund", ReasonRequest{Reason: "Sách lỗi"}, &customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.StatusPendingReturn, decode[OrderView](t, rec).Status)
}

func TestConfirmRequiresPaidOrder(t *testing.T) {
	s := newTestServer(t)
	s.repo.Put(types.OrderDetail{Id: 102, OrderId: 11, UserId: customer.Id, Status: types.StatusShipping})
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/orders/102/confirm", nil, &customer).Code)
}

func TestChangeOrderStatus(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/orders/101/status", StatusRequest{Status: types.StatusShipping}, &customer).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/orders/101/status", StatusRequest{Status: "LOST"}, &seller).Code)

	rec := s.do(t, http.MethodPut, "/api/orders/101/status", StatusRequest{Status: types.StatusShipping}, &seller)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, types.StatusShipping, decode[OrderView](t, rec).Status)
}

func TestRebuyOrder(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/orders/100/rebuy", nil, &customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[order.RebuyResult](t, rec)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, types.ItemId(1), res.Lines[0].Book.Id)
	assert.Equal(t, []types.ItemId{2}, res.OutOfStock)
	assert.Equal(t, []string{order.MessageOutOfStock}, res.Messages)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/orders/101/rebuy", nil, &customer).Code)
}

func TestOrderInvoice(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders/100/invoice", nil, &customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/orders/100/invoice", nil, &stranger).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/orders/100/invoice", nil, nil).Code)
}

func TestDebugHandler(t *testing.T) {
	h := DebugHandler(false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestOptionsPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
