// Package registry describes every content view of the admin console: which
// entity it manages, which form edits it, and which backend operations it
// supports. The console is generic over these descriptors.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/models"
)

// ViewKey names a console view.
type ViewKey string

const (
	ViewEditorials      ViewKey = "editorials"
	ViewOpinions        ViewKey = "opinions"
	ViewStories         ViewKey = "stories"
	ViewArchives        ViewKey = "archives"
	ViewHeadlines       ViewKey = "headlines"
	ViewTimeline        ViewKey = "timeline"
	ViewPhotos          ViewKey = "photos"
	ViewImpacts         ViewKey = "impacts"
	ViewEvents          ViewKey = "events"
	ViewAboutHero       ViewKey = "abouthero"
	ViewPerspectives    ViewKey = "perspectives"
	ViewContactMessages ViewKey = "contact_messages"
	ViewArchiveBooks    ViewKey = "archivebooks"
	ViewAnchors         ViewKey = "anchors"
	ViewAds             ViewKey = "ads"
	ViewDonations       ViewKey = "donations"
)

// Sidebar sections.
const (
	SectionPensieve = "Pensieve"
	SectionSystem   = "System"
)

// FormKind selects the form layout used to edit a view's records.
type FormKind string

const (
	FormArticle     FormKind = "article"
	FormStory       FormKind = "story"
	FormHeadline    FormKind = "headline"
	FormPhoto       FormKind = "photo"
	FormImpact      FormKind = "impact"
	FormEvent       FormKind = "event"
	FormTimeline    FormKind = "timeline"
	FormAbout       FormKind = "about"
	FormPerspective FormKind = "perspective"
	FormContact     FormKind = "contact"
	FormBook        FormKind = "book"
	FormAnchor      FormKind = "anchor"
	FormAd          FormKind = "ad"
	FormDonation    FormKind = "donation"
)

// Defaults seeds new records.
type Defaults struct {
	Author string
	Today  time.Time
}

// DefaultAuthor is the byline preset on new articles.
const DefaultAuthor = "Shridhar Rao"

// DateLayout is how article dates are rendered.
const DateLayout = "Jan 2, 2006"

// Collection is a list-shaped resource. Nil operations are unsupported by
// the view.
type Collection struct {
	List   func(ctx context.Context, c *contentapi.Client, lang string) ([]models.Record, error)
	New    func(d Defaults) models.Record
	Create func(ctx context.Context, c *contentapi.Client, rec models.Record) (models.Record, error)
	Update func(ctx context.Context, c *contentapi.Client, id string, rec models.Record) (models.Record, error)
	Delete func(ctx context.Context, c *contentapi.Client, id string) error
}

// Singleton is a resource with exactly one record. It is read and replaced,
// never created or deleted.
type Singleton struct {
	Get    func(ctx context.Context, c *contentapi.Client) (models.Record, error)
	Update func(ctx context.Context, c *contentapi.Client, rec models.Record) (models.Record, error)
}

// View is one row of the registry. Exactly one of Collection and Singleton
// is set.
type View struct {
	Key     ViewKey
	Label   string
	Section string
	Entity  models.EntityType
	Form    FormKind
	// Category is the article category this view is scoped to, if any.
	Category models.Category

	Collection *Collection
	Singleton  *Singleton
}

// CanCreate reports whether new records can be added from this view.
func (v *View) CanCreate() bool {
	return v.Collection != nil && v.Collection.Create != nil
}

// CanEdit reports whether existing records can be edited.
func (v *View) CanEdit() bool {
	return v.Singleton != nil || (v.Collection != nil && v.Collection.Update != nil)
}

// CanDelete reports whether records can be deleted.
func (v *View) CanDelete() bool {
	return v.Collection != nil && v.Collection.Delete != nil
}

// Params returns the filter parameters that scope this view's list read.
func (v *View) Params(lang string) map[string]string {
	p := map[string]string{}
	if v.Category != "" {
		p["category"] = string(v.Category)
	}
	if lang != "" && v.Entity.IsArticle() {
		p["lang"] = lang
	}
	return p
}

// Registry is an ordered set of views.
type Registry struct {
	views []*View
	byKey map[ViewKey]*View
}

// New builds a registry from views in sidebar order. Duplicate keys are an
// error.
func New(views ...*View) (*Registry, error) {
	r := &Registry{byKey: make(map[ViewKey]*View, len(views))}
	for _, v := range views {
		if _, dup := r.byKey[v.Key]; dup {
			return nil, fmt.Errorf("duplicate view %q", v.Key)
		}
		if (v.Collection == nil) == (v.Singleton == nil) {
			return nil, fmt.Errorf("view %q must be exactly one of collection or singleton", v.Key)
		}
		r.views = append(r.views, v)
		r.byKey[v.Key] = v
	}
	return r, nil
}

// Lookup returns the view for key.
func (r *Registry) Lookup(key ViewKey) (*View, bool) {
	v, ok := r.byKey[key]
	return v, ok
}

// Views returns all views in sidebar order.
func (r *Registry) Views() []*View {
	out := make([]*View, len(r.views))
	copy(out, r.views)
	return out
}

// First returns the first view in sidebar order.
func (r *Registry) First() *View {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// Sections returns section names in order of first appearance.
func (r *Registry) Sections() []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range r.views {
		if !seen[v.Section] {
			seen[v.Section] = true
			out = append(out, v.Section)
		}
	}
	return out
}

// Keys returns every view key in sidebar order.
func (r *Registry) Keys() []ViewKey {
	out := make([]ViewKey, len(r.views))
	for i, v := range r.views {
		out[i] = v.Key
	}
	return out
}
