package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-storefront/pkg/filter"
)

const draftPrefix = "storefront:draft:"

// DraftStore keeps filter drafts in redis, every save refreshes the ttl. Drafts skip the
// local copy since any storefront instance may serve the next change.
type DraftStore struct {
	cache *Cache
	ttl   time.Duration
}

func NewDraftStore(cache *Cache, ttl time.Duration) *DraftStore {
	return &DraftStore{cache: cache, ttl: ttl}
}

func draftKey(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", filter.ErrDraftNotFound
	}
	return draftPrefix + id, nil
}

func (s *DraftStore) Get(ctx context.Context, id string) (*filter.Draft, error) {
	key, err := draftKey(id)
	if err != nil {
		return nil, err
	}
	draft := &filter.Draft{}
	if err := s.cache.GetShared(ctx, key, draft); err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, filter.ErrDraftNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (s *DraftStore) Save(ctx context.Context, draft *filter.Draft) error {
	key, err := draftKey(draft.Id)
	if err != nil {
		return err
	}
	return s.cache.SetShared(ctx, key, draft, s.ttl)
}

func (s *DraftStore) Delete(ctx context.Context, id string) error {
	key, err := draftKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, key)
}
