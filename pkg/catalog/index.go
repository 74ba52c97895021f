package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_upserts_total",
		Help: "The total number of book upserts",
	})
	noDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_catalog_deletes_total",
		Help: "The total number of book deletions",
	})
)

var ErrBookNotFound = errors.New("book not found")

type categoryNode struct {
	types.Category
	children []string
}

// Index keeps the catalog in memory with a bitmap of book ids per category, publisher,
// cover type and shop.
type Index struct {
	mu          sync.RWMutex
	categories  map[string]*categoryNode
	bySlug      map[string]string
	order       []string
	roots       []string
	publishers  []types.Publisher
	books       map[types.ItemId]types.Book
	all         *roaring.Bitmap
	byCategory  map[string]*roaring.Bitmap
	byPublisher map[string]*roaring.Bitmap
	byType      map[string]*roaring.Bitmap
	byShop      map[string]*roaring.Bitmap
}

func NewIndex() *Index {
	idx := &Index{}
	idx.reset()
	return idx
}

func (i *Index) reset() {
	i.categories = map[string]*categoryNode{}
	i.bySlug = map[string]string{}
	i.order = []string{}
	i.roots = []string{}
	i.publishers = []types.Publisher{}
	i.books = map[types.ItemId]types.Book{}
	i.all = roaring.New()
	i.byCategory = map[string]*roaring.Bitmap{}
	i.byPublisher = map[string]*roaring.Bitmap{}
	i.byType = map[string]*roaring.Bitmap{}
	i.byShop = map[string]*roaring.Bitmap{}
}

// Load replaces the content of the index.
func (i *Index) Load(c *types.Catalog) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.reset()
	for _, cat := range c.Categories {
		i.addCategory(cat, cat.ParentId)
	}
	for _, id := range i.order {
		node := i.categories[id]
		if ParentLoops(id, i.parentOf) {
			node.ParentId = ""
			i.roots = append(i.roots, id)
		}
	}
	for _, id := range i.order {
		node := i.categories[id]
		if parent, ok := i.categories[node.ParentId]; ok && !slices.Contains(parent.children, node.Id) {
			parent.children = append(parent.children, node.Id)
		}
	}
	i.publishers = slices.Clone(c.Publishers)
	for _, b := range c.Books {
		i.addBook(b)
	}
}

func (i *Index) parentOf(id string) (string, bool) {
	node, ok := i.categories[id]
	if !ok || node.ParentId == "" {
		return "", false
	}
	return node.ParentId, true
}

// ParentLoops reports whether following the parents of id leads back to id. A category
// on such a loop is indexed as a root.
func ParentLoops(id string, parentOf func(string) (string, bool)) bool {
	seen := map[string]struct{}{}
	for cur := id; ; {
		parent, ok := parentOf(cur)
		if !ok {
			return false
		}
		if parent == id {
			return true
		}
		if _, visited := seen[parent]; visited {
			return false
		}
		seen[parent] = struct{}{}
		cur = parent
	}
}

func (i *Index) addCategory(cat types.Category, parentId string) {
	node := &categoryNode{Category: cat}
	node.ParentId = parentId
	node.Children = nil
	if _, exists := i.categories[cat.Id]; !exists {
		i.order = append(i.order, cat.Id)
		if parentId == "" {
			i.roots = append(i.roots, cat.Id)
		}
	}
	i.categories[cat.Id] = node
	if cat.Slug != "" {
		i.bySlug[cat.Slug] = cat.Id
	}
	for _, child := range cat.Children {
		i.addCategory(child, cat.Id)
	}
}

func add(m map[string]*roaring.Bitmap, key string, id types.ItemId) {
	if key == "" {
		return
	}
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(uint32(id))
}

func remove(m map[string]*roaring.Bitmap, key string, id types.ItemId) {
	if bm, ok := m[key]; ok {
		bm.Remove(uint32(id))
	}
}

func (i *Index) addBook(b types.Book) {
	i.books[b.Id] = b
	i.all.Add(uint32(b.Id))
	add(i.byCategory, b.CategoryId, b.Id)
	add(i.byPublisher, b.PublisherId, b.Id)
	add(i.byType, b.Type, b.Id)
	add(i.byShop, b.ShopId, b.Id)
}

func (i *Index) removeBook(b types.Book) {
	delete(i.books, b.Id)
	i.all.Remove(uint32(b.Id))
	remove(i.byCategory, b.CategoryId, b.Id)
	remove(i.byPublisher, b.PublisherId, b.Id)
	remove(i.byType, b.Type, b.Id)
	remove(i.byShop, b.ShopId, b.Id)
}

func (i *Index) UpsertBook(b types.Book) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.books[b.Id]; ok {
		i.removeBook(existing)
	}
	i.addBook(b)
	noUpserts.Inc()
}

func (i *Index) DeleteBook(id types.ItemId) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.books[id]; ok {
		i.removeBook(existing)
		noDeletes.Inc()
	}
}

// Snapshot returns the catalog as it is currently indexed.
func (i *Index) Snapshot() *types.Catalog {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ret := &types.Catalog{
		Categories: make([]types.Category, 0, len(i.categories)),
		Publishers: slices.Clone(i.publishers),
		Books:      make([]types.Book, 0, len(i.books)),
	}
	var walk func(id string)
	walk = func(id string) {
		node := i.categories[id]
		ret.Categories = append(ret.Categories, node.Category)
		for _, child := range node.children {
			walk(child)
		}
	}
	for _, id := range i.roots {
		walk(id)
	}
	it := i.all.Iterator()
	for it.HasNext() {
		ret.Books = append(ret.Books, i.books[types.ItemId(it.Next())])
	}
	return ret
}

// subtree is the union of the books in a category and all its descendants.
func (i *Index) subtree(id string) *roaring.Bitmap {
	acc := roaring.New()
	var walk func(id string)
	walk = func(id string) {
		if bm, ok := i.byCategory[id]; ok {
			acc.Or(bm)
		}
		if node, ok := i.categories[id]; ok {
			for _, child := range node.children {
				walk(child)
			}
		}
	}
	walk(id)
	return acc
}

func (i *Index) resolveCategory(ref types.CategoryRef) (string, bool) {
	if _, ok := i.categories[ref.Id]; ok {
		return ref.Id, true
	}
	if id, ok := i.bySlug[ref.Slug]; ok {
		return id, true
	}
	return "", false
}

func (i *Index) union(m map[string]*roaring.Bitmap, keys []string) *roaring.Bitmap {
	acc := roaring.New()
	for _, key := range keys {
		if bm, ok := m[key]; ok {
			acc.Or(bm)
		}
	}
	return acc
}

func paged[T any](req types.PageRequest, ids []string, get func(string) T) *types.Page[T] {
	start, end := req.Offset(len(ids))
	page := types.NewPage[T](req.Page, req.Size, len(ids))
	for _, id := range ids[start:end] {
		page.Add(id, get(id))
	}
	return page
}

// scope is the set of books a category or publisher list is relevant for.
func (i *Index) scope(req types.PageRequest) *roaring.Bitmap {
	bm := i.all.Clone()
	if req.ShopId != "" {
		bm.And(i.union(i.byShop, []string{req.ShopId}))
	}
	if req.CateId != "" {
		bm.And(i.subtree(req.CateId))
	}
	return bm
}

// Categories pages the root categories, with the children attached when requested.
// A shop scope keeps the categories that shop sells books in.
func (i *Index) Categories(ctx context.Context, req types.PageRequest) (*types.Page[types.Category], error) {
	req.Sanitize()
	i.mu.RLock()
	defer i.mu.RUnlock()

	var shop *roaring.Bitmap
	if req.ShopId != "" {
		shop = i.union(i.byShop, []string{req.ShopId})
	}
	relevant := func(id string) bool {
		return shop == nil || i.subtree(id).Intersects(shop)
	}
	ids := make([]string, 0, len(i.roots))
	for _, id := range i.roots {
		if relevant(id) {
			ids = append(ids, id)
		}
	}
	return paged(req, ids, func(id string) types.Category {
		node := i.categories[id]
		cat := node.Category
		if req.IncludeChildren() {
			cat.Children = make([]types.Category, 0, len(node.children))
			for _, childId := range node.children {
				if relevant(childId) {
					cat.Children = append(cat.Children, i.categories[childId].Category)
				}
			}
		}
		return cat
	}), nil
}

// Publishers pages the publishers that have books within the category and shop scope.
func (i *Index) Publishers(ctx context.Context, req types.PageRequest) (*types.Page[types.Publisher], error) {
	req.Sanitize()
	i.mu.RLock()
	defer i.mu.RUnlock()

	scoped := req.ShopId != "" || req.CateId != ""
	books := i.scope(req)
	byId := make(map[string]types.Publisher, len(i.publishers))
	ids := make([]string, 0, len(i.publishers))
	for _, p := range i.publishers {
		if scoped {
			bm, ok := i.byPublisher[p.Id]
			if !ok || !bm.Intersects(books) {
				continue
			}
		}
		byId[p.Id] = p
		ids = append(ids, p.Id)
	}
	return paged(req, ids, func(id string) types.Publisher {
		return byId[id]
	}), nil
}

// Books is the listing for a filter state, ordered by id.
func (i *Index) Books(ctx context.Context, state types.FilterState, req types.PageRequest) (*types.Page[types.Book], error) {
	req.Sanitize()
	state.Sanitize()
	i.mu.RLock()
	defer i.mu.RUnlock()

	bm := i.all.Clone()
	if !state.Cate.IsEmpty() {
		id, ok := i.resolveCategory(state.Cate)
		if !ok {
			return types.NewPage[types.Book](req.Page, req.Size, 0), nil
		}
		bm.And(i.subtree(id))
	}
	if len(state.PubIds) > 0 {
		bm.And(i.union(i.byPublisher, state.PubIds))
	}
	if len(state.Types) > 0 {
		bm.And(i.union(i.byType, state.Types))
	}
	if state.ShopId != "" {
		bm.And(i.union(i.byShop, []string{state.ShopId}))
	}

	ids := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		b := i.books[types.ItemId(it.Next())]
		if !state.Value.Contains(b.FinalPrice()) {
			continue
		}
		if state.Rating > 0 && b.Rating < float64(state.Rating) {
			continue
		}
		ids = append(ids, b.Id.String())
	}
	return paged(req, ids, func(id string) types.Book {
		bid, _ := types.ParseItemId(id)
		return i.books[bid]
	}), nil
}

func (i *Index) Book(id types.ItemId) (types.Book, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	b, ok := i.books[id]
	if !ok {
		return types.Book{}, ErrBookNotFound
	}
	return b, nil
}

// BooksByIds returns the known books in the order asked for, unknown ids are skipped.
func (i *Index) BooksByIds(ctx context.Context, ids []types.ItemId) (*types.Page[types.Book], error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	page := types.NewPage[types.Book](0, max(len(ids), 1), 0)
	for _, id := range ids {
		if b, ok := i.books[id]; ok {
			if _, seen := page.Entities[id.String()]; !seen {
				page.Add(id.String(), b)
			}
		}
	}
	page.TotalElements = len(page.Ids)
	page.TotalPages = min(page.TotalElements, 1)
	return page, nil
}
