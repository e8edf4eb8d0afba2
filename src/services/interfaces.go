package services

import (
	"context"
	"net/url"

	"github.com/mmngreco/ine-go/src/ine"
)

// SeriesService is the gateway's view of the INE client. Every method takes the
// language explicitly so concurrent requests never share mutable client state.
type SeriesService interface {
	GetSeries(ctx context.Context, lang ine.Language, code string, q ine.Query) (*ine.SeriesResult, error)
	GetFunctions(ctx context.Context, lang ine.Language, function string) (*ine.Table, error)
	GetInput(ctx context.Context, lang ine.Language, input string, params url.Values) (any, error)
	GetTables(ctx context.Context, lang ine.Language) (*ine.Table, error)
}

// INEClient is the subset of *ine.Client the service uses.
type INEClient interface {
	GetSeries(ctx context.Context, series string, q ine.Query) (*ine.SeriesResult, error)
	GetFunctions(ctx context.Context, function string) (*ine.Table, error)
	GetInput(ctx context.Context, input string, params url.Values) (any, error)
	GetTables(ctx context.Context) (*ine.Table, error)
}
