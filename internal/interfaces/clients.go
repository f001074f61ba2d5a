// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// PriceSource fetches the current price for one symbol from one external
// provider. Implementations never return partial data: either a fully
// populated quote or a tagged pricing error.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (*models.PriceQuote, error)
}

// NAVCatalogSource downloads the full mutual fund code→NAV catalog in one
// request. There is no per-symbol query upstream; the gateway indexes the
// catalog and serves lookups from it.
type NAVCatalogSource interface {
	FetchCatalog(ctx context.Context) (map[string]*models.PriceQuote, error)
}
