package contentapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mitaan/mitaan/internal/models"
)

// Filter narrows a list request. Empty fields are omitted.
type Filter struct {
	Category string
	Language string
	Query    string
}

func (f Filter) encode() string {
	params := url.Values{}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.Language != "" {
		params.Set("lang", f.Language)
	}
	if f.Query != "" {
		params.Set("q", f.Query)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// Collection is a typed accessor for a list-shaped resource.
type Collection[T any] struct {
	client *Client
	path   string
}

// List fetches every record matching f.
func (r Collection[T]) List(ctx context.Context, f Filter) ([]T, error) {
	var resp []T
	if err := r.client.do(ctx, http.MethodGet, r.path+f.encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []T{}
	}
	return resp, nil
}

// Get fetches a single record by id.
func (r Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var resp T
	if err := r.client.do(ctx, http.MethodGet, r.itemPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create posts a new record and returns the stored version with its
// server-assigned id.
func (r Collection[T]) Create(ctx context.Context, rec *T) (*T, error) {
	var resp T
	if err := r.client.do(ctx, http.MethodPost, r.path, rec, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update replaces the record with the given id.
func (r Collection[T]) Update(ctx context.Context, id string, rec *T) (*T, error) {
	var resp T
	if err := r.client.do(ctx, http.MethodPut, r.itemPath(id), rec, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes the record with the given id.
func (r Collection[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
}

func (r Collection[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Singleton is a typed accessor for a resource with exactly one record.
type Singleton[T any] struct {
	client *Client
	path   string
}

// Get fetches the record.
func (r Singleton[T]) Get(ctx context.Context) (*T, error) {
	var resp T
	if err := r.client.do(ctx, http.MethodGet, r.path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update replaces the record.
func (r Singleton[T]) Update(ctx context.Context, rec *T) (*T, error) {
	var resp T
	if err := r.client.do(ctx, http.MethodPut, r.path, rec, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Articles() Collection[models.Article] {
	return Collection[models.Article]{client: c, path: "/articles"}
}

func (c *Client) Headlines() Collection[models.Headline] {
	return Collection[models.Headline]{client: c, path: "/headlines"}
}

func (c *Client) Photos() Collection[models.Photo] {
	return Collection[models.Photo]{client: c, path: "/photos"}
}

func (c *Client) Impacts() Collection[models.ImpactStat] {
	return Collection[models.ImpactStat]{client: c, path: "/impacts"}
}

func (c *Client) GlobalEvents() Collection[models.GlobalEvent] {
	return Collection[models.GlobalEvent]{client: c, path: "/global_events"}
}

func (c *Client) Timeline() Collection[models.TimelineItem] {
	return Collection[models.TimelineItem]{client: c, path: "/timeline"}
}

func (c *Client) Perspectives() Collection[models.Perspective] {
	return Collection[models.Perspective]{client: c, path: "/perspectives"}
}

func (c *Client) ContactMessages() Collection[models.ContactMessage] {
	return Collection[models.ContactMessage]{client: c, path: "/contact_messages"}
}

func (c *Client) ArchiveBooks() Collection[models.ArchiveBook] {
	return Collection[models.ArchiveBook]{client: c, path: "/archive_books"}
}

func (c *Client) GlobalAnchors() Collection[models.GlobalAnchor] {
	return Collection[models.GlobalAnchor]{client: c, path: "/global_anchors"}
}

func (c *Client) Ads() Collection[models.Advertisement] {
	return Collection[models.Advertisement]{client: c, path: "/ads"}
}

func (c *Client) AboutConfig() Singleton[models.AboutConfig] {
	return Singleton[models.AboutConfig]{client: c, path: "/about_config"}
}

func (c *Client) DonationConfig() Singleton[models.DonationConfig] {
	return Singleton[models.DonationConfig]{client: c, path: "/donation_config"}
}

// Search runs a site-wide search over articles and archive books.
func (c *Client) Search(ctx context.Context, query, lang string) (*models.SearchResult, error) {
	var resp models.SearchResult
	path := "/search" + Filter{Query: query, Language: lang}.encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
