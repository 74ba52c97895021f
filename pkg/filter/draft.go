package filter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-storefront/pkg/types"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrUnknownChange = errors.New("unknown change")
)

// Draft is a buffered filter session kept between requests.
type Draft struct {
	Id        string            `json:"id"`
	Defaults  types.FilterState `json:"defaults"`
	Committed types.FilterState `json:"committed"`
	Current   types.FilterState `json:"current"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewDraft(defaults, initial types.FilterState) *Draft {
	initial.Sanitize()
	defaults.Sanitize()
	return &Draft{
		Id:        uuid.New().String(),
		Defaults:  defaults.Clone(),
		Committed: initial.Clone(),
		Current:   initial.Clone(),
		UpdatedAt: time.Now(),
	}
}

// Controller rebuilds a buffered controller positioned on the draft's working state.
func (d *Draft) Controller(options *Options, emitter Emitter) *Controller {
	c := NewController(Buffered, d.Defaults, d.Committed, options, emitter)
	c.current = d.Current.Clone()
	c.current.Sanitize()
	return c
}

// Update copies the controller state back into the draft.
func (d *Draft) Update(c *Controller) {
	d.Committed = c.Committed()
	d.Current = c.State()
	d.UpdatedAt = time.Now()
}

type ChangeOp string

const (
	OpCategory        ChangeOp = "cate"
	OpTogglePublisher ChangeOp = "togglePublisher"
	OpSetPublishers   ChangeOp = "setPublishers"
	OpToggleType      ChangeOp = "toggleType"
	OpSetTypes        ChangeOp = "setTypes"
	OpRange           ChangeOp = "range"
	OpPreset          ChangeOp = "preset"
	OpRating          ChangeOp = "rating"
)

// Change is one user interaction sent to a draft.
type Change struct {
	Op     ChangeOp           `json:"op" validate:"required,oneof=cate togglePublisher setPublishers toggleType setTypes range preset rating"`
	Cate   *types.CategoryRef `json:"cate,omitempty"`
	Value  string             `json:"value,omitempty"`
	Values []string           `json:"values,omitempty"`
	Range  *types.PriceRange  `json:"range,omitempty"`
	Index  int                `json:"index,omitempty"`
	Rating int                `json:"rating,omitempty"`
}

func ApplyChange(c *Controller, ch Change) error {
	switch ch.Op {
	case OpCategory:
		ref := types.CategoryRef{}
		if ch.Cate != nil {
			ref = *ch.Cate
		}
		c.ChangeCategory(ref)
	case OpTogglePublisher:
		if ch.Value == "" {
			return fmt.Errorf("%w: %s without value", ErrUnknownChange, ch.Op)
		}
		c.TogglePublisher(ch.Value)
	case OpSetPublishers:
		c.SetPublishers(ch.Values)
	case OpToggleType:
		if !c.options.IsCoverType(ch.Value) {
			return fmt.Errorf("%w: cover type %q", ErrUnknownChange, ch.Value)
		}
		c.ToggleType(ch.Value)
	case OpSetTypes:
		c.SetTypes(ch.Values)
	case OpRange:
		if ch.Range == nil {
			return fmt.Errorf("%w: %s without range", ErrUnknownChange, ch.Op)
		}
		c.ChangeRange(*ch.Range)
	case OpPreset:
		return c.SelectPricePreset(ch.Index)
	case OpRating:
		return c.ChangeRating(ch.Rating)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownChange, ch.Op)
	}
	return nil
}

type DraftStore interface {
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, id string) error
}

// MemoryDraftStore keeps drafts in process, expired drafts are dropped on read.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	ttl    time.Duration
	drafts map[string]Draft
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{
		ttl:    ttl,
		drafts: make(map[string]Draft),
	}
}

func (s *MemoryDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	if s.ttl > 0 && time.Since(d.UpdatedAt) > s.ttl {
		_ = s.Delete(ctx, id)
		return nil, ErrDraftNotFound
	}
	return &d, nil
}

func (s *MemoryDraftStore) Save(ctx context.Context, draft *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *draft
	d.Defaults = draft.Defaults.Clone()
	d.Committed = draft.Committed.Clone()
	d.Current = draft.Current.Clone()
	s.drafts[draft.Id] = d
	return nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
