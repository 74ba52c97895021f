package messaging

import "github.com/matst80/slask-storefront/pkg/types"

type ChangeTopic string

const (
	OrderChanged   ChangeTopic = "order_changed"
	CatalogChanged ChangeTopic = "catalog_changed"
	Tracking       ChangeTopic = "tracking"
)

// BookChange is a catalog update, Deleted removes the book with the id.
type BookChange struct {
	Book    types.Book `json:"book"`
	Deleted bool       `json:"deleted,omitempty"`
}
