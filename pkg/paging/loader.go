package paging

import (
	"context"

	"github.com/matst80/slask-storefront/pkg/types"
	"go.uber.org/zap"
)

type Source[T any] interface {
	Fetch(ctx context.Context, req types.PageRequest) (*types.Page[T], error)
}

type SourceFunc[T any] func(ctx context.Context, req types.PageRequest) (*types.Page[T], error)

func (f SourceFunc[T]) Fetch(ctx context.Context, req types.PageRequest) (*types.Page[T], error) {
	return f(ctx, req)
}

// Loader drives a Tracker from a Source. Fetch errors end up as the tracker's error
// state and are only logged here.
type Loader[T any] struct {
	Tracker *Tracker[T]
	source  Source[T]
	base    types.PageRequest
	log     *zap.SugaredLogger
}

func NewLoader[T any](source Source[T], tracker *Tracker[T], base types.PageRequest, log *zap.SugaredLogger) *Loader[T] {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Loader[T]{
		Tracker: tracker,
		source:  source,
		base:    base,
		log:     log,
	}
}

func (l *Loader[T]) Load(ctx context.Context) {
	req := l.Tracker.Request(l.base)
	l.Tracker.Begin()
	page, err := l.source.Fetch(ctx, req)
	if err != nil {
		l.log.Warnf("failed to load page %d: %v", req.Page, err)
	}
	l.Tracker.Resolve(page, err)
}

// ShowMore loads the next page when the tracker asks for one.
func (l *Loader[T]) ShowMore(ctx context.Context) {
	if l.Tracker.ShowMore() {
		l.Load(ctx)
	}
}

// Rescope changes the scope of the list and reloads it from the first page.
func (l *Loader[T]) Rescope(ctx context.Context, base types.PageRequest) {
	l.base = base
	l.Tracker.Reset()
	l.Load(ctx)
}

func (l *Loader[T]) View() View[T] {
	return l.Tracker.View()
}
