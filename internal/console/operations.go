package console

import (
	"context"
	"time"

	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/mitaan/mitaan/internal/registry"
	"go.uber.org/zap"
)

// Load is a pending read of the active view.
type Load struct {
	seq       uint64
	view      *registry.View
	key       querycache.Key
	lang      string
	staleTime time.Duration
	client    *contentapi.Client
	cache     *querycache.Cache
}

// LoadResult is the outcome of a Load.
type LoadResult struct {
	seq    uint64
	View   registry.ViewKey
	Items  []models.Record
	Record models.Record
	Err    error
}

// CacheKey returns the key of the active view's read.
func (c *Console) CacheKey() querycache.Key {
	return querycache.NewKey(c.view.Entity, c.view.Params(c.opts.Language))
}

// BeginLoad prepares a read of the active view. Any cached data is shown
// immediately, even when stale.
func (c *Console) BeginLoad() *Load {
	key := c.CacheKey()
	if snap := c.cache.Peek(key, c.opts.StaleTime); snap.Status != querycache.StatusIdle {
		c.applyData(snap.Data)
	}
	c.loading = true
	return &Load{
		seq:       c.viewSeq,
		view:      c.view,
		key:       key,
		lang:      c.opts.Language,
		staleTime: c.opts.StaleTime,
		client:    c.client,
		cache:     c.cache,
	}
}

// BeginRefresh marks every cached read of the active view's entity stale
// and prepares a read that goes to the network.
func (c *Console) BeginRefresh() *Load {
	c.cache.Invalidate(c.view.Entity)
	return c.BeginLoad()
}

// Run performs the read through the cache.
func (l *Load) Run(ctx context.Context) LoadResult {
	res := LoadResult{seq: l.seq, View: l.view.Key}
	if l.view.Singleton != nil {
		res.Record, res.Err = querycache.Fetch(ctx, l.cache, querycache.Query[models.Record]{
			Key:       l.key,
			StaleTime: l.staleTime,
			Fetch: func(ctx context.Context) (models.Record, error) {
				return l.view.Singleton.Get(ctx, l.client)
			},
		})
		return res
	}
	res.Items, res.Err = querycache.Fetch(ctx, l.cache, querycache.Query[[]models.Record]{
		Key:       l.key,
		StaleTime: l.staleTime,
		Fetch: func(ctx context.Context) ([]models.Record, error) {
			return l.view.Collection.List(ctx, l.client, l.lang)
		},
	})
	return res
}

// ApplyLoad records a read result. Results for a view that is no longer
// active are ignored; it reports whether the result was applied. On error
// the last good data stays visible.
func (c *Console) ApplyLoad(r LoadResult) bool {
	if r.seq != c.viewSeq {
		return false
	}
	c.loading = false
	if r.Err != nil {
		c.loadErr = r.Err
		c.opts.Logger.Warn("load failed", zap.String("view", string(r.View)), zap.Error(r.Err))
		return true
	}
	c.loadErr = nil
	c.loadedAt = c.opts.Now()
	if r.Record != nil {
		c.record = r.Record
	} else {
		c.items = r.Items
	}
	return true
}

func (c *Console) applyData(data any) {
	switch v := data.(type) {
	case []models.Record:
		c.items = v
	case models.Record:
		c.record = v
	}
}

// Submission is a pending create or update of the draft.
type Submission struct {
	seq    uint64
	view   *registry.View
	mode   Mode
	id     string
	record models.Record
	client *contentapi.Client
	cache  *querycache.Cache
}

// SubmitResult is the outcome of a Submission.
type SubmitResult struct {
	seq    uint64
	mode   Mode
	Record models.Record
	Err    error
}

// BeginSubmit validates the draft and prepares the write. Validation
// failures are reported as an error toast and leave the form open.
func (c *Console) BeginSubmit() (*Submission, error) {
	if c.mode == ModeBrowsing || c.draft == nil {
		return nil, ErrNoDraft
	}
	if c.pending {
		return nil, ErrBusy
	}
	if err := models.Validate(c.draft); err != nil {
		c.showToast(ToastError, saveFailedPrefix+Describe(err))
		return nil, err
	}
	c.pending = true
	return &Submission{
		seq:    c.viewSeq,
		view:   c.view,
		mode:   c.mode,
		id:     c.editingID,
		record: c.draft.Clone(),
		client: c.client,
		cache:  c.cache,
	}, nil
}

// Run performs the write and invalidates the view's entity on success.
func (s *Submission) Run(ctx context.Context) SubmitResult {
	rec, err := querycache.Mutate(ctx, s.cache, []models.EntityType{s.view.Entity}, func(ctx context.Context) (models.Record, error) {
		switch {
		case s.view.Singleton != nil:
			return s.view.Singleton.Update(ctx, s.client, s.record)
		case s.mode == ModeCreating:
			return s.view.Collection.Create(ctx, s.client, s.record)
		default:
			return s.view.Collection.Update(ctx, s.client, s.id, s.record)
		}
	})
	return SubmitResult{seq: s.seq, mode: s.mode, Record: rec, Err: err}
}

// ApplySubmit records a write result. On success the form closes; on
// failure the draft and mode are kept so nothing typed is lost. It returns
// true when the active view should be reloaded.
func (c *Console) ApplySubmit(r SubmitResult) bool {
	c.pending = false
	if r.Err != nil {
		c.showToast(ToastError, saveFailedPrefix+Describe(r.Err))
		c.opts.Logger.Warn("save failed", zap.String("mode", r.mode.String()), zap.Error(r.Err))
		return false
	}
	if r.mode == ModeCreating {
		c.showToast(ToastSuccess, MsgCreated)
	} else {
		c.showToast(ToastSuccess, MsgUpdated)
	}
	if r.seq != c.viewSeq {
		return false
	}
	c.resetForm()
	return true
}

// Deletion is a pending confirmed delete.
type Deletion struct {
	seq    uint64
	view   *registry.View
	id     string
	client *contentapi.Client
	cache  *querycache.Cache
}

// DeleteResult is the outcome of a Deletion.
type DeleteResult struct {
	seq uint64
	ID  string
	Err error
}

// BeginDelete confirms the requested deletion and prepares it.
func (c *Console) BeginDelete() (*Deletion, error) {
	if !c.confirming {
		return nil, ErrNotConfirmed
	}
	if c.pending {
		return nil, ErrBusy
	}
	id := c.confirmID
	c.confirming = false
	c.confirmID = ""
	c.pending = true
	return &Deletion{
		seq:    c.viewSeq,
		view:   c.view,
		id:     id,
		client: c.client,
		cache:  c.cache,
	}, nil
}

// Run performs the delete and invalidates the view's entity on success.
func (d *Deletion) Run(ctx context.Context) DeleteResult {
	_, err := querycache.Mutate(ctx, d.cache, []models.EntityType{d.view.Entity}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.view.Collection.Delete(ctx, d.client, d.id)
	})
	return DeleteResult{seq: d.seq, ID: d.id, Err: err}
}

// ApplyDelete records a delete result. It returns true when the active
// view should be reloaded.
func (c *Console) ApplyDelete(r DeleteResult) bool {
	c.pending = false
	if r.Err != nil {
		c.showToast(ToastError, deleteFailedPrefix+Describe(r.Err))
		c.opts.Logger.Warn("delete failed", zap.String("id", r.ID), zap.Error(r.Err))
		return false
	}
	c.showToast(ToastSuccess, MsgDeleted)
	if r.seq != c.viewSeq {
		return false
	}
	if c.mode == ModeEditing && c.editingID == r.ID {
		c.resetForm()
	}
	return true
}

// Reload reads the active view synchronously.
func (c *Console) Reload(ctx context.Context) error {
	res := c.BeginLoad().Run(ctx)
	c.ApplyLoad(res)
	return res.Err
}

// Submit validates and writes the draft synchronously, then reloads the
// view on success.
func (c *Console) Submit(ctx context.Context) error {
	sub, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	res := sub.Run(ctx)
	if c.ApplySubmit(res) {
		return c.Reload(ctx)
	}
	return res.Err
}

// ConfirmDelete performs the requested deletion synchronously, then
// reloads the view on success.
func (c *Console) ConfirmDelete(ctx context.Context) error {
	del, err := c.BeginDelete()
	if err != nil {
		return err
	}
	res := del.Run(ctx)
	if c.ApplyDelete(res) {
		return c.Reload(ctx)
	}
	return res.Err
}
