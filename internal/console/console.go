// Package console is the state machine behind the admin console. It is
// generic over registry views: one code path lists, creates, edits and
// deletes every entity type.
//
// Network work is split into Begin/Run/Apply steps. Begin and Apply mutate
// console state and must be called from a single goroutine (the UI loop);
// Run only touches the client and cache and may run anywhere.
package console

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/mitaan/mitaan/internal/registry"
	"go.uber.org/zap"
)

// Mode is the console's primary state.
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeCreating
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeEditing:
		return "editing"
	default:
		return "browsing"
	}
}

// Toast messages.
const (
	MsgCreated = "Record Distributed"
	MsgUpdated = "Revision Committed"
	MsgDeleted = "Record purged from database."

	saveFailedPrefix   = "Operation failed: "
	deleteFailedPrefix = "Purge failed: "
)

// Errors returned by console operations.
var (
	ErrUnknownView  = errors.New("unknown view")
	ErrUnsupported  = errors.New("operation not supported by this view")
	ErrNoDraft      = errors.New("no record is being edited")
	ErrBusy         = errors.New("a write is already in progress")
	ErrNotConfirmed = errors.New("deletion has not been requested")
	ErrNoRecord     = errors.New("record not loaded")
)

// ToastKind distinguishes success from error notifications.
type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

// Toast is a transient notification.
type Toast struct {
	ID        uint64
	Message   string
	Kind      ToastKind
	ExpiresAt time.Time
}

// Options configures a Console.
type Options struct {
	// Author is preset on new articles.
	Author string
	// Language filters article lists; empty lists every language.
	Language string
	// ToastDuration is how long a toast stays visible.
	ToastDuration time.Duration
	// StaleTime is the freshness window for list reads. Zero uses the
	// cache default.
	StaleTime time.Duration
	// SearchStaleTime is the freshness window for search results.
	SearchStaleTime time.Duration
	// SearchMinLength is the shortest query that reaches the network.
	SearchMinLength int
	Now             func() time.Time
	Logger          *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Author == "" {
		o.Author = registry.DefaultAuthor
	}
	if o.ToastDuration == 0 {
		o.ToastDuration = 3 * time.Second
	}
	if o.SearchStaleTime == 0 {
		o.SearchStaleTime = 5 * time.Minute
	}
	if o.SearchMinLength == 0 {
		o.SearchMinLength = 3
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Console holds the state of one admin session.
type Console struct {
	reg    *registry.Registry
	client *contentapi.Client
	cache  *querycache.Cache
	opts   Options

	view    *registry.View
	viewSeq uint64

	mode      Mode
	editingID string
	draft     models.Record

	confirming bool
	confirmID  string

	toast    *Toast
	toastSeq uint64

	items    []models.Record
	record   models.Record
	loadErr  error
	loading  bool
	loadedAt time.Time

	pending bool
}

// New creates a console showing the first registry view.
func New(reg *registry.Registry, client *contentapi.Client, cache *querycache.Cache, opts Options) *Console {
	opts.setDefaults()
	return &Console{
		reg:    reg,
		client: client,
		cache:  cache,
		opts:   opts,
		view:   reg.First(),
	}
}

// Registry returns the view registry.
func (c *Console) Registry() *registry.Registry { return c.reg }

// View returns the active view.
func (c *Console) View() *registry.View { return c.view }

// Mode returns the primary state.
func (c *Console) Mode() Mode { return c.mode }

// EditingID returns the id of the record under edit, if any.
func (c *Console) EditingID() string { return c.editingID }

// Draft returns the record being created or edited. The UI binds form
// fields to it directly. It is nil while browsing.
func (c *Console) Draft() models.Record { return c.draft }

// Items returns the last loaded list for a collection view.
func (c *Console) Items() []models.Record { return c.items }

// Record returns the loaded record of a singleton view.
func (c *Console) Record() models.Record { return c.record }

// LoadErr returns the error of the last list read, if it failed.
func (c *Console) LoadErr() error { return c.loadErr }

// Loading reports whether a read for the active view is outstanding.
func (c *Console) Loading() bool { return c.loading }

// LoadedAt returns when the active view was last read successfully.
func (c *Console) LoadedAt() time.Time { return c.loadedAt }

// Pending reports whether a write is outstanding.
func (c *Console) Pending() bool { return c.pending }

// Language returns the article language filter.
func (c *Console) Language() string { return c.opts.Language }

// Confirming returns the id awaiting delete confirmation.
func (c *Console) Confirming() (string, bool) { return c.confirmID, c.confirming }

// SelectView switches to another view. Any open form is discarded and the
// console returns to browsing.
func (c *Console) SelectView(key registry.ViewKey) error {
	v, ok := c.reg.Lookup(key)
	if !ok {
		return ErrUnknownView
	}
	c.view = v
	c.viewSeq++
	c.resetForm()
	c.confirming = false
	c.confirmID = ""
	c.items = nil
	c.record = nil
	c.loadErr = nil
	c.loading = false
	return nil
}

// SetLanguage changes the article language filter and invalidates the
// current list.
func (c *Console) SetLanguage(lang string) {
	c.opts.Language = lang
	c.viewSeq++
	c.loading = false
}

// OpenCreate enters Creating with a draft seeded from the view's defaults.
func (c *Console) OpenCreate() error {
	if !c.view.CanCreate() {
		return ErrUnsupported
	}
	c.mode = ModeCreating
	c.editingID = ""
	c.draft = c.view.Collection.New(registry.Defaults{Author: c.opts.Author, Today: c.opts.Now()})
	return nil
}

// OpenEdit enters Editing with a draft copied from the cached record. For
// singleton views id is ignored.
func (c *Console) OpenEdit(id string) error {
	if !c.view.CanEdit() {
		return ErrUnsupported
	}
	if c.view.Singleton != nil {
		if c.record == nil {
			return ErrNoRecord
		}
		c.mode = ModeEditing
		c.editingID = c.record.RecordID()
		c.draft = c.record.Clone()
		return nil
	}
	rec := c.find(id)
	if rec == nil {
		return ErrNoRecord
	}
	c.mode = ModeEditing
	c.editingID = id
	c.draft = rec.Clone()
	return nil
}

// Cancel discards the draft and returns to browsing. No write is made.
func (c *Console) Cancel() {
	c.resetForm()
}

// RequestDelete opens the delete confirmation for id.
func (c *Console) RequestDelete(id string) error {
	if !c.view.CanDelete() {
		return ErrUnsupported
	}
	if id == "" {
		return ErrNoRecord
	}
	c.confirming = true
	c.confirmID = id
	return nil
}

// CancelDelete closes the confirmation without deleting.
func (c *Console) CancelDelete() {
	c.confirming = false
	c.confirmID = ""
}

// Toast returns the visible toast, or nil.
func (c *Console) Toast() *Toast {
	if c.toast != nil && !c.opts.Now().Before(c.toast.ExpiresAt) {
		c.toast = nil
	}
	return c.toast
}

// DismissToast hides the toast with the given id. A newer toast is left in
// place.
func (c *Console) DismissToast(id uint64) {
	if c.toast != nil && c.toast.ID == id {
		c.toast = nil
	}
}

func (c *Console) showToast(kind ToastKind, msg string) *Toast {
	c.toastSeq++
	c.toast = &Toast{
		ID:        c.toastSeq,
		Message:   msg,
		Kind:      kind,
		ExpiresAt: c.opts.Now().Add(c.opts.ToastDuration),
	}
	return c.toast
}

func (c *Console) resetForm() {
	c.mode = ModeBrowsing
	c.editingID = ""
	c.draft = nil
}

func (c *Console) find(id string) models.Record {
	for _, r := range c.items {
		if r.RecordID() == id {
			return r
		}
	}
	return nil
}

// Describe reduces an error to a short reason suitable for a toast.
func Describe(err error) string {
	var verr *models.ValidationError
	var apiErr *contentapi.APIError
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, contentapi.ErrUnauthorized), errors.Is(err, contentapi.ErrForbidden):
		return "Access Denied"
	case errors.Is(err, contentapi.ErrNotFound):
		return "Not Found"
	case errors.Is(err, contentapi.ErrRateLimited):
		return "Too Many Requests"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 || apiErr.Message == "" {
			return "Server error"
		}
		return truncate(apiErr.Message, 80)
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		return "Network unreachable"
	default:
		return "Unexpected error"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
