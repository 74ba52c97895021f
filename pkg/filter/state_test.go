package filter

import (
	"testing"

	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	changes []Field
	states  []types.FilterState
	applied []types.FilterState
	resets  int
}

func (r *recordingEmitter) Changed(field Field, state types.FilterState) {
	r.changes = append(r.changes, field)
	r.states = append(r.states, state)
}

func (r *recordingEmitter) Applied(state types.FilterState) {
	r.applied = append(r.applied, state)
}

func (r *recordingEmitter) Reset(defaults types.FilterState) {
	r.resets++
}

func defaultsWithPubs(pubs ...string) types.FilterState {
	d := types.DefaultFilterState()
	d.PubIds = pubs
	return d
}

func TestChangeCategoryResetsPublishers(t *testing.T) {
	defaults := defaultsWithPubs("7")
	initial := defaults.Clone()
	initial.PubIds = []string{"1", "2", "3"}

	c := NewController(Buffered, defaults, initial, nil, nil)
	c.ChangeCategory(types.CategoryRef{Id: "10", Slug: "sach-thieu-nhi"})

	state := c.State()
	assert.Equal(t, types.CategoryRef{Id: "10", Slug: "sach-thieu-nhi"}, state.Cate)
	assert.Equal(t, []string{"7"}, state.PubIds)

	c.TogglePublisher("9")
	c.ChangeCategory(types.CategoryRef{Id: "11", Slug: "van-hoc"})
	assert.Equal(t, []string{"7"}, c.State().PubIds)
}

func TestChangeCategoryTwiceClearsSelection(t *testing.T) {
	c := NewController(Buffered, types.DefaultFilterState(), types.DefaultFilterState(), nil, nil)
	ref := types.CategoryRef{Id: "3", Slug: "kinh-te"}
	c.ChangeCategory(ref)
	c.ChangeCategory(ref)
	assert.True(t, c.State().Cate.IsEmpty())
}

func TestChangeRatingToggles(t *testing.T) {
	c := NewController(Buffered, types.DefaultFilterState(), types.DefaultFilterState(), nil, nil)

	require.NoError(t, c.ChangeRating(4))
	assert.Equal(t, 4, c.State().Rating)

	require.NoError(t, c.ChangeRating(2))
	assert.Equal(t, 2, c.State().Rating)

	require.NoError(t, c.ChangeRating(2))
	assert.Equal(t, 0, c.State().Rating)

	assert.ErrorIs(t, c.ChangeRating(6), types.ErrInvalidRating)
	assert.Equal(t, 0, c.State().Rating)
}

func TestChangeRangeKeepsBoundsOrdered(t *testing.T) {
	c := NewController(Buffered, types.DefaultFilterState(), types.DefaultFilterState(), nil, nil)
	c.ChangeRange(types.PriceRange{Min: 500000, Max: 100000})
	assert.Equal(t, types.PriceRange{Min: 100000, Max: 500000}, c.State().Value)

	require.NoError(t, c.SelectPricePreset(1))
	assert.Equal(t, types.PriceRange{Min: 150000, Max: 300000}, c.State().Value)
	assert.ErrorIs(t, c.SelectPricePreset(42), ErrUnknownPreset)
}

func TestBufferedModeEmitsOnlyOnApply(t *testing.T) {
	rec := &recordingEmitter{}
	c := NewController(Buffered, types.DefaultFilterState(), types.DefaultFilterState(), nil, rec)

	c.TogglePublisher("1")
	c.ToggleType("HARDCOVER")
	require.NoError(t, c.ChangeRating(5))

	assert.Empty(t, rec.changes)
	assert.Empty(t, rec.applied)
	assert.True(t, c.Dirty())

	applied := c.Apply()
	require.Len(t, rec.applied, 1)
	assert.Equal(t, applied, rec.applied[0])
	assert.Equal(t, []string{"1"}, applied.PubIds)
	assert.Equal(t, []string{"HARDCOVER"}, applied.Types)
	assert.Equal(t, 5, applied.Rating)
	assert.False(t, c.Dirty())
}

func TestBufferedCancelDiscardsChanges(t *testing.T) {
	initial := types.DefaultFilterState()
	initial.PubIds = []string{"4"}
	c := NewController(Buffered, types.DefaultFilterState(), initial, nil, nil)

	c.TogglePublisher("5")
	c.ChangeRange(types.PriceRange{Min: 1, Max: 2})
	state := c.Cancel()

	assert.Equal(t, []string{"4"}, state.PubIds)
	assert.Equal(t, types.DefaultPriceRange(), state.Value)
	assert.False(t, c.Dirty())
}

func TestImmediateModeEmitsEveryChange(t *testing.T) {
	rec := &recordingEmitter{}
	c := NewController(Immediate, types.DefaultFilterState(), types.DefaultFilterState(), nil, rec)

	c.ChangeCategory(types.CategoryRef{Id: "1", Slug: "a"})
	c.TogglePublisher("2")
	c.ChangeRange(types.PriceRange{Min: 0, Max: 150000})
	c.ToggleType("PAPERBACK")
	require.NoError(t, c.ChangeRating(3))

	assert.Equal(t, []Field{FieldCategory, FieldPublishers, FieldRange, FieldTypes, FieldRating}, rec.changes)
	last := rec.states[len(rec.states)-1]
	assert.Equal(t, "1", last.Cate.Id)
	assert.Equal(t, []string{"2"}, last.PubIds)
	assert.Equal(t, 3, last.Rating)
	assert.False(t, c.Dirty())
}

func TestEmittedStateIsACopy(t *testing.T) {
	rec := &recordingEmitter{}
	c := NewController(Immediate, types.DefaultFilterState(), types.DefaultFilterState(), nil, rec)
	c.TogglePublisher("1")
	rec.states[0].PubIds[0] = "changed"
	assert.Equal(t, []string{"1"}, c.State().PubIds)
}

func TestResetRestoresDefaults(t *testing.T) {
	rec := &recordingEmitter{}
	defaults := defaultsWithPubs("8")
	c := NewController(Buffered, defaults, types.DefaultFilterState(), nil, rec)
	c.ToggleType("BOXSET")
	state := c.Reset()

	assert.Equal(t, []string{"8"}, state.PubIds)
	assert.Empty(t, state.Types)
	assert.Equal(t, 1, rec.resets)
}

func TestDraftRoundTripThroughController(t *testing.T) {
	store := NewMemoryDraftStore(0)
	draft := NewDraft(defaultsWithPubs("1"), types.DefaultFilterState())
	require.NoError(t, store.Save(t.Context(), draft))

	loaded, err := store.Get(t.Context(), draft.Id)
	require.NoError(t, err)
	c := loaded.Controller(nil, nil)
	require.NoError(t, ApplyChange(c, Change{Op: OpTogglePublisher, Value: "3"}))
	require.NoError(t, ApplyChange(c, Change{Op: OpRating, Rating: 4}))
	loaded.Update(c)
	require.NoError(t, store.Save(t.Context(), loaded))

	again, err := store.Get(t.Context(), draft.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, again.Current.PubIds)
	assert.Equal(t, 4, again.Current.Rating)
	assert.Empty(t, again.Committed.PubIds)

	c = again.Controller(nil, nil)
	applied := c.Apply()
	assert.Equal(t, []string{"3"}, applied.PubIds)

	require.NoError(t, store.Delete(t.Context(), draft.Id))
	_, err = store.Get(t.Context(), draft.Id)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestApplyChangeRejectsUnknownInput(t *testing.T) {
	c := NewController(Buffered, types.DefaultFilterState(), types.DefaultFilterState(), nil, nil)
	assert.ErrorIs(t, ApplyChange(c, Change{Op: "explode"}), ErrUnknownChange)
	assert.ErrorIs(t, ApplyChange(c, Change{Op: OpToggleType, Value: "SCROLL"}), ErrUnknownChange)
	assert.ErrorIs(t, ApplyChange(c, Change{Op: OpRange}), ErrUnknownChange)
}
