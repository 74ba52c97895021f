package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matst80/slask-storefront/pkg/types"
)

type Mode int

const (
	// Buffered keeps changes local until Apply, the drawer variant.
	Buffered Mode = iota
	// Immediate emits on every change, the sidebar variant.
	Immediate
)

func (m Mode) String() string {
	if m == Immediate {
		return "immediate"
	}
	return "buffered"
}

type Field string

const (
	FieldCategory   Field = "cate"
	FieldPublishers Field = "pubIds"
	FieldRange      Field = "value"
	FieldTypes      Field = "types"
	FieldRating     Field = "rating"
)

var ErrUnknownPreset = errors.New("unknown price preset")

type Emitter interface {
	Changed(field Field, state types.FilterState)
	Applied(state types.FilterState)
	Reset(defaults types.FilterState)
}

// EmitterFuncs adapts plain functions to an Emitter, nil members are skipped.
type EmitterFuncs struct {
	OnChange func(field Field, state types.FilterState)
	OnApply  func(state types.FilterState)
	OnReset  func(defaults types.FilterState)
}

func (e EmitterFuncs) Changed(field Field, state types.FilterState) {
	if e.OnChange != nil {
		e.OnChange(field, state)
	}
}

func (e EmitterFuncs) Applied(state types.FilterState) {
	if e.OnApply != nil {
		e.OnApply(state)
	}
}

func (e EmitterFuncs) Reset(defaults types.FilterState) {
	if e.OnReset != nil {
		e.OnReset(defaults)
	}
}

// Controller owns one FilterState. Each handler updates a single field, except a
// category change which also puts the publishers back to the defaults.
type Controller struct {
	mode      Mode
	options   *Options
	emitter   Emitter
	defaults  types.FilterState
	committed types.FilterState
	current   types.FilterState
}

func NewController(mode Mode, defaults, initial types.FilterState, options *Options, emitter Emitter) *Controller {
	if options == nil {
		options = NewOptions()
	}
	if emitter == nil {
		emitter = EmitterFuncs{}
	}
	initial.Sanitize()
	defaults.Sanitize()
	return &Controller{
		mode:      mode,
		options:   options,
		emitter:   emitter,
		defaults:  defaults.Clone(),
		committed: initial.Clone(),
		current:   initial.Clone(),
	}
}

func (c *Controller) Mode() Mode {
	return c.mode
}

// State returns a copy of the working state.
func (c *Controller) State() types.FilterState {
	return c.current.Clone()
}

func (c *Controller) Committed() types.FilterState {
	return c.committed.Clone()
}

func (c *Controller) Defaults() types.FilterState {
	return c.defaults.Clone()
}

// Dirty reports uncommitted changes in buffered mode.
func (c *Controller) Dirty() bool {
	return !equalState(c.current, c.committed)
}

func (c *Controller) ChangeCategory(ref types.CategoryRef) {
	if c.current.Cate.Id == ref.Id {
		c.current.Cate = types.CategoryRef{}
	} else {
		c.current.Cate = ref
	}
	c.current.PubIds = c.defaults.Clone().PubIds
	c.changed(FieldCategory)
}

func (c *Controller) TogglePublisher(id string) {
	c.current.PubIds = Toggle(c.current.PubIds, id)
	c.changed(FieldPublishers)
}

func (c *Controller) SetPublishers(ids []string) {
	next := c.current
	next.PubIds = ids
	next.Sanitize()
	c.current.PubIds = next.PubIds
	c.changed(FieldPublishers)
}

func (c *Controller) ToggleType(t string) {
	c.current.Types = Toggle(c.current.Types, t)
	c.changed(FieldTypes)
}

func (c *Controller) SetTypes(ts []string) {
	next := c.current
	next.Types = ts
	next.Sanitize()
	c.current.Types = next.Types
	c.changed(FieldTypes)
}

func (c *Controller) ChangeRange(r types.PriceRange) {
	c.current.Value = r.Normalize()
	c.changed(FieldRange)
}

func (c *Controller) SelectPricePreset(idx int) error {
	preset, ok := c.options.Preset(idx)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPreset, idx)
	}
	c.ChangeRange(preset.Value)
	return nil
}

// ChangeRating selects a rating, picking the current one again clears it.
func (c *Controller) ChangeRating(rating int) error {
	if err := types.ValidateRating(rating); err != nil {
		return err
	}
	if c.current.Rating == rating {
		c.current.Rating = 0
	} else {
		c.current.Rating = rating
	}
	c.changed(FieldRating)
	return nil
}

// Apply commits the working state and emits it.
func (c *Controller) Apply() types.FilterState {
	c.committed = c.current.Clone()
	state := c.current.Clone()
	c.emitter.Applied(state)
	return state
}

// Cancel drops uncommitted changes.
func (c *Controller) Cancel() types.FilterState {
	c.current = c.committed.Clone()
	return c.current.Clone()
}

func (c *Controller) Reset() types.FilterState {
	c.current = c.defaults.Clone()
	c.committed = c.defaults.Clone()
	c.emitter.Reset(c.defaults.Clone())
	return c.current.Clone()
}

func (c *Controller) changed(field Field) {
	if c.mode != Immediate {
		return
	}
	c.committed = c.current.Clone()
	c.emitter.Changed(field, c.current.Clone())
}

func equalState(a, b types.FilterState) bool {
	if a.Cate != b.Cate || a.Value != b.Value || a.Rating != b.Rating || a.ShopId != b.ShopId {
		return false
	}
	return slices.Equal(a.PubIds, b.PubIds) && slices.Equal(a.Types, b.Types)
}
