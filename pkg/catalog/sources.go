package catalog

import (
	"github.com/matst80/slask-storefront/pkg/paging"
	"github.com/matst80/slask-storefront/pkg/types"
)

func CategorySource(idx *Index) paging.Source[types.Category] {
	return paging.SourceFunc[types.Category](idx.Categories)
}

func PublisherSource(idx *Index) paging.Source[types.Publisher] {
	return paging.SourceFunc[types.Publisher](idx.Publishers)
}
