package order

import (
	"context"
	"fmt"

	"github.com/matst80/slask-storefront/pkg/types"
)

type Action string

const (
	ActionCancel  Action = "cancel"
	ActionConfirm Action = "confirm"
	ActionRebuy   Action = "rebuy"
	ActionRefund  Action = "refund"
)

// Actions lists what the customer can do with a detail in its current state.
func Actions(detail *types.OrderDetail) []Action {
	if detail == nil {
		return []Action{}
	}
	switch {
	case detail.Status == types.StatusPending:
		return []Action{ActionCancel}
	case detail.Status == types.StatusShipping && detail.PaymentStatus == types.PaymentPaid:
		return []Action{ActionConfirm}
	case detail.Status == types.StatusCompleted:
		return []Action{ActionRebuy, ActionRefund}
	}
	return []Action{ActionRebuy}
}

// ShowReason reports whether the note on the detail is a cancel or refund reason.
func ShowReason(detail *types.OrderDetail) bool {
	if detail == nil || detail.Note == "" {
		return false
	}
	switch detail.Status {
	case types.StatusCanceled, types.StatusPendingReturn, types.StatusPendingRefund, types.StatusRefunded:
		return true
	}
	return false
}

const (
	MessageOutOfStock  = "Sản phẩm đã hết hàng!"
	MessageRebuyFailed = "Mua lại sản phẩm thất bại!"
)

type BookLookup interface {
	BooksByIds(ctx context.Context, ids []types.ItemId) (*types.Page[types.Book], error)
}

type CartLine struct {
	Book     types.Book `json:"book"`
	Quantity int        `json:"quantity"`
}

type RebuyResult struct {
	Lines      []CartLine     `json:"lines"`
	OutOfStock []types.ItemId `json:"outOfStock"`
	Messages   []string       `json:"messages"`
}

// Rebuy reads the current state of the books in a detail, books still in stock become
// cart lines of one.
func Rebuy(ctx context.Context, books BookLookup, detail *types.OrderDetail) (*RebuyResult, error) {
	ids := make([]types.ItemId, 0, len(detail.Items))
	for _, item := range detail.Items {
		ids = append(ids, item.BookId)
	}
	page, err := books.BooksByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MessageRebuyFailed, err)
	}
	ret := &RebuyResult{
		Lines:      []CartLine{},
		OutOfStock: []types.ItemId{},
		Messages:   []string{},
	}
	for _, book := range page.Items() {
		if book.InStock() {
			ret.Lines = append(ret.Lines, CartLine{Book: book, Quantity: 1})
		} else {
			ret.OutOfStock = append(ret.OutOfStock, book.Id)
			ret.Messages = append(ret.Messages, MessageOutOfStock)
		}
	}
	return ret, nil
}
