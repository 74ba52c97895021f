package types

import (
	"math"
	"strconv"
)

type ItemId uint32

func (id ItemId) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseItemId(s string) (ItemId, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return ItemId(v), nil
}

type Category struct {
	Id       string     `json:"id"`
	Slug     string     `json:"slug"`
	Name     string     `json:"name"`
	ParentId string     `json:"parentId,omitempty"`
	Children []Category `json:"children,omitempty"`
}

func (c Category) Ref() CategoryRef {
	return CategoryRef{Id: c.Id, Slug: c.Slug}
}

// HasChild reports whether one of the direct children has the id.
func (c Category) HasChild(id string) bool {
	for _, child := range c.Children {
		if child.Id == id {
			return true
		}
	}
	return false
}

type Publisher struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	Id          ItemId  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Image       string  `json:"image,omitempty"`
	Price       int64   `json:"price"`
	Discount    float64 `json:"discount"`
	Amount      int     `json:"amount"`
	Type        string  `json:"type"`
	Rating      float64 `json:"rating"`
	PublisherId string  `json:"publisherId"`
	CategoryId  string  `json:"categoryId"`
	ShopId      string  `json:"shopId"`
}

// FinalPrice is the price after the discount fraction is applied.
func (b *Book) FinalPrice() int64 {
	return int64(math.Round(float64(b.Price) * (1 - b.Discount)))
}

func (b *Book) InStock() bool {
	return b.Amount > 0
}

type Catalog struct {
	Categories []Category  `json:"categories"`
	Publishers []Publisher `json:"publishers"`
	Books      []Book      `json:"books"`
}
