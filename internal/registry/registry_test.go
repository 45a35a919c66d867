package registry

import (
	"context"
	"testing"
	"time"

	"github.com/mitaan/mitaan/internal/apitest"
	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/credstore"
	"github.com/mitaan/mitaan/internal/models"
)

func TestDefaultRegistryShape(t *testing.T) {
	r := Default()

	if got := len(r.Views()); got != 16 {
		t.Fatalf("views = %d, want 16", got)
	}
	if got := r.Sections(); len(got) != 2 || got[0] != SectionPensieve || got[1] != SectionSystem {
		t.Errorf("Sections() = %v", got)
	}
	if r.First().Key != ViewEditorials {
		t.Errorf("First() = %s, want editorials", r.First().Key)
	}

	tests := []struct {
		key                      ViewKey
		entity                   models.EntityType
		create, edit, del, singl bool
	}{
		{ViewEditorials, models.EntityEditorial, true, true, true, false},
		{ViewStories, models.EntityStory, true, true, true, false},
		{ViewPhotos, models.EntityPhoto, true, true, true, false},
		{ViewAboutHero, models.EntityAboutConfig, false, true, false, true},
		{ViewDonations, models.EntityDonationConfig, false, true, false, true},
		{ViewPerspectives, models.EntityPerspective, false, false, true, false},
		{ViewContactMessages, models.EntityContactMessage, false, false, true, false},
	}
	for _, tt := range tests {
		v, ok := r.Lookup(tt.key)
		if !ok {
			t.Fatalf("Lookup(%s) missing", tt.key)
		}
		if v.Entity != tt.entity {
			t.Errorf("%s entity = %s, want %s", tt.key, v.Entity, tt.entity)
		}
		if v.CanCreate() != tt.create || v.CanEdit() != tt.edit || v.CanDelete() != tt.del {
			t.Errorf("%s capabilities = %v/%v/%v", tt.key, v.CanCreate(), v.CanEdit(), v.CanDelete())
		}
		if (v.Singleton != nil) != tt.singl {
			t.Errorf("%s singleton = %v", tt.key, v.Singleton != nil)
		}
	}
}

func TestEveryEntityTypeHasAView(t *testing.T) {
	seen := map[models.EntityType]bool{}
	for _, v := range Default().Views() {
		seen[v.Entity] = true
	}
	for _, et := range models.AllEntityTypes() {
		if !seen[et] {
			t.Errorf("no view for %s", et)
		}
	}
}

func TestNewRejectsBadViews(t *testing.T) {
	c := &Collection{}
	if _, err := New(&View{Key: "a", Collection: c}, &View{Key: "a", Collection: c}); err == nil {
		t.Error("duplicate keys accepted")
	}
	if _, err := New(&View{Key: "b"}); err == nil {
		t.Error("view without resource accepted")
	}
	if _, err := New(&View{Key: "c", Collection: c, Singleton: &Singleton{}}); err == nil {
		t.Error("view with both resources accepted")
	}
}

func TestParams(t *testing.T) {
	r := Default()
	ed, _ := r.Lookup(ViewEditorials)
	if p := ed.Params("hi"); p["category"] != "Editorial" || p["lang"] != "hi" {
		t.Errorf("editorial params = %v", p)
	}
	ph, _ := r.Lookup(ViewPhotos)
	if p := ph.Params("hi"); len(p) != 0 {
		t.Errorf("photo params = %v, want none", p)
	}
}

func TestArticleDefaults(t *testing.T) {
	v, _ := Default().Lookup(ViewOpinions)
	today := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	rec := v.Collection.New(Defaults{Author: DefaultAuthor, Today: today}).(*models.Article)

	if rec.Category != "Opinion" || rec.Author != "Shridhar Rao" || rec.Language != "en" || rec.Date != "Mar 7, 2026" {
		t.Errorf("defaults = %+v", rec)
	}
}

func TestFormDefaults(t *testing.T) {
	r := Default()
	tests := []struct {
		key   ViewKey
		check func(models.Record) bool
	}{
		{ViewHeadlines, func(r models.Record) bool { return r.(*models.Headline).Time == "Now" }},
		{ViewPhotos, func(r models.Record) bool { return r.(*models.Photo).Category == "Field" }},
		{ViewImpacts, func(r models.Record) bool {
			s := r.(*models.ImpactStat)
			return s.Icon == "Users" && s.Color == "bg-primary"
		}},
		{ViewAnchors, func(r models.Record) bool { return r.(*models.GlobalAnchor).Icon == "Award" }},
		{ViewAds, func(r models.Record) bool {
			a := r.(*models.Advertisement)
			return a.Type == "banner" && a.IsActive && a.Position == "right"
		}},
	}
	for _, tt := range tests {
		v, _ := r.Lookup(tt.key)
		if rec := v.Collection.New(Defaults{}); !tt.check(rec) {
			t.Errorf("%s defaults = %+v", tt.key, rec)
		}
	}
}

func TestArticleCreateInjectsCategory(t *testing.T) {
	srv := apitest.New(t)
	c := contentapi.New(srv.URL, credstore.NewMemoryStore())
	ctx := context.Background()
	if err := c.Login(ctx, apitest.Username, apitest.Password); err != nil {
		t.Fatal(err)
	}

	v, _ := Default().Lookup(ViewStories)
	draft := &models.Article{Category: "Editorial", Title: "T", Excerpt: "e", Author: "a", Content: "[]"}
	created, err := v.Collection.Create(ctx, c, draft)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.(*models.Article).Category != "Story" {
		t.Errorf("category = %q, want Story", created.(*models.Article).Category)
	}
	if draft.Category != "Editorial" {
		t.Error("Create mutated the caller's draft")
	}

	items, err := v.Collection.List(ctx, c, "")
	if err != nil || len(items) != 1 {
		t.Fatalf("List() = %v, %v", items, err)
	}
	ed, _ := Default().Lookup(ViewEditorials)
	if items, _ := ed.Collection.List(ctx, c, ""); len(items) != 0 {
		t.Errorf("editorials list leaked a story: %v", items)
	}
}

func TestCreateRejectsWrongRecordType(t *testing.T) {
	v, _ := Default().Lookup(ViewHeadlines)
	if _, err := v.Collection.Create(context.Background(), nil, &models.Photo{}); err == nil {
		t.Error("wrong record type accepted")
	}
}
