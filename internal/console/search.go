package console

import (
	"context"
	"strings"

	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/querycache"
)

// SearchQuery builds the cached site search read. Queries shorter than the
// configured minimum are disabled and never reach the network.
func (c *Console) SearchQuery(q, lang string) querycache.Query[*models.SearchResult] {
	q = strings.TrimSpace(q)
	return querycache.Query[*models.SearchResult]{
		Key:       querycache.NewKey(models.QuerySearch, map[string]string{"q": q, "lang": lang}),
		StaleTime: c.opts.SearchStaleTime,
		Disabled:  len([]rune(q)) < c.opts.SearchMinLength,
		Fetch: func(ctx context.Context) (*models.SearchResult, error) {
			return c.client.Search(ctx, q, lang)
		},
	}
}

// Search runs a site search through the cache. A disabled query returns
// querycache.ErrDisabled.
func (c *Console) Search(ctx context.Context, q, lang string) (*models.SearchResult, error) {
	return querycache.Fetch(ctx, c.cache, c.SearchQuery(q, lang))
}

// BeginSearch prepares a site search. The returned function only touches
// the client and cache.
func (c *Console) BeginSearch(q, lang string) func(ctx context.Context) (*models.SearchResult, error) {
	query := c.SearchQuery(q, lang)
	cache := c.cache
	return func(ctx context.Context) (*models.SearchResult, error) {
		return querycache.Fetch(ctx, cache, query)
	}
}
