package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mitaan/mitaan/internal/apitest"
	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/credstore"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/mitaan/mitaan/internal/registry"
)

type fixture struct {
	srv     *apitest.Server
	client  *contentapi.Client
	cache   *querycache.Cache
	console *Console
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		srv: apitest.New(t),
		now: time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.client = contentapi.New(f.srv.URL, credstore.NewMemoryStore())
	f.cache = querycache.New(querycache.WithClock(clock), querycache.WithDefaultStaleTime(30*time.Second))
	f.console = New(registry.Default(), f.client, f.cache, Options{Now: clock})
	if err := f.client.Login(context.Background(), apitest.Username, apitest.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return f
}

func (f *fixture) selectView(t *testing.T, key registry.ViewKey) {
	t.Helper()
	if err := f.console.SelectView(key); err != nil {
		t.Fatalf("SelectView(%s): %v", key, err)
	}
	if err := f.console.Reload(context.Background()); err != nil {
		t.Fatalf("Reload(%s): %v", key, err)
	}
}

func TestCreateEditorial(t *testing.T) {
	f := newFixture(t)
	c := f.console
	ctx := context.Background()
	f.selectView(t, registry.ViewEditorials)

	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != ModeCreating {
		t.Fatalf("mode = %s, want creating", c.Mode())
	}
	a := c.Draft().(*models.Article)
	a.Title = "X"
	a.Excerpt = "Y"
	a.Content = "Z"

	if err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Mode() != ModeBrowsing || c.Draft() != nil {
		t.Errorf("form still open: mode=%s", c.Mode())
	}
	if toast := c.Toast(); toast == nil || toast.Message != MsgCreated || toast.Kind != ToastSuccess {
		t.Errorf("toast = %+v, want %q", toast, MsgCreated)
	}
	items := c.Items()
	if len(items) != 1 || items[0].Label() != "X" {
		t.Fatalf("items = %v", items)
	}
	got := items[0].(*models.Article)
	if got.Category != "Editorial" || got.Author != registry.DefaultAuthor || got.Date != "Mar 7, 2026" {
		t.Errorf("created article = %+v", got)
	}
}

func TestEveryCreatableViewRoundTrips(t *testing.T) {
	fill := map[registry.ViewKey]func(models.Record){
		registry.ViewEditorials: fillArticle,
		registry.ViewOpinions:   fillArticle,
		registry.ViewStories:    fillArticle,
		registry.ViewArchives:   fillArticle,
		registry.ViewHeadlines:  func(r models.Record) { r.(*models.Headline).Title = "Flash" },
		registry.ViewTimeline: func(r models.Record) {
			r.(*models.TimelineItem).Year = "1999"
			r.(*models.TimelineItem).Title = "Start"
		},
		registry.ViewPhotos: func(r models.Record) {
			r.(*models.Photo).Title = "Dawn"
			r.(*models.Photo).ImageURL = "https://cdn.test/dawn.jpg"
		},
		registry.ViewImpacts: func(r models.Record) { r.(*models.ImpactStat).Title = "Reach" },
		registry.ViewEvents:  func(r models.Record) { r.(*models.GlobalEvent).Title = "Summit" },
		registry.ViewArchiveBooks: func(r models.Record) {
			r.(*models.ArchiveBook).Title = "Book"
			r.(*models.ArchiveBook).Author = "Author"
		},
		registry.ViewAnchors: func(r models.Record) { r.(*models.GlobalAnchor).Name = "Anchor" },
		registry.ViewAds:     func(r models.Record) { r.(*models.Advertisement).ImageURL = "https://cdn.test/ad.png" },
	}

	f := newFixture(t)
	c := f.console
	for _, v := range c.Registry().Views() {
		if !v.CanCreate() {
			continue
		}
		t.Run(string(v.Key), func(t *testing.T) {
			fn, ok := fill[v.Key]
			if !ok {
				t.Fatalf("no fixture for creatable view %s", v.Key)
			}
			f.selectView(t, v.Key)
			before := len(c.Items())
			if err := c.OpenCreate(); err != nil {
				t.Fatal(err)
			}
			fn(c.Draft())
			label := c.Draft().Label()
			if err := c.Submit(context.Background()); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if got := len(c.Items()); got != before+1 {
				t.Fatalf("items = %d, want %d", got, before+1)
			}
			created := c.Items()[len(c.Items())-1]
			if created.Label() != label || created.RecordID() == "" {
				t.Errorf("created = %+v", created)
			}

			if err := c.OpenEdit(created.RecordID()); err != nil {
				t.Fatalf("OpenEdit: %v", err)
			}
			if c.Draft() == created {
				t.Error("draft aliases the cached record")
			}
			if err := c.Submit(context.Background()); err != nil {
				t.Fatalf("update Submit: %v", err)
			}
			if toast := c.Toast(); toast == nil || toast.Message != MsgUpdated {
				t.Errorf("toast = %+v, want %q", toast, MsgUpdated)
			}
		})
	}
}

func fillArticle(r models.Record) {
	a := r.(*models.Article)
	a.Title = "Title"
	a.Excerpt = "Excerpt"
	a.Content = "Body"
}

func TestExpiredTokenRefreshesOnceDuringSubmit(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewEditorials)

	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	fillArticle(c.Draft())
	f.srv.ExpireTokens()

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := f.srv.Calls(http.MethodPost, "/admin/refresh"); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if got := f.srv.Calls(http.MethodPost, "/articles"); got != 2 {
		t.Errorf("article POSTs = %d, want 2", got)
	}
	if toast := c.Toast(); toast == nil || toast.Message != MsgCreated {
		t.Errorf("toast = %+v", toast)
	}
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.srv.Seed("headlines", models.Headline{Title: "one"})
	target := f.srv.Seed("headlines", models.Headline{Title: "two"})
	f.srv.Seed("headlines", models.Headline{Title: "three"})
	f.selectView(t, registry.ViewHeadlines)

	if _, err := c.BeginDelete(); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("BeginDelete without request = %v, want ErrNotConfirmed", err)
	}
	if err := c.RequestDelete(target); err != nil {
		t.Fatal(err)
	}
	if id, ok := c.Confirming(); !ok || id != target {
		t.Fatalf("Confirming() = %q, %v", id, ok)
	}
	if err := c.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	if toast := c.Toast(); toast == nil || toast.Message != MsgDeleted {
		t.Errorf("toast = %+v", toast)
	}
	var labels []string
	for _, r := range c.Items() {
		labels = append(labels, r.Label())
	}
	if strings.Join(labels, ",") != "one,three" {
		t.Errorf("remaining = %v", labels)
	}
}

func TestCancelDeleteMakesNoRequest(t *testing.T) {
	f := newFixture(t)
	c := f.console
	id := f.srv.Seed("headlines", models.Headline{Title: "keep"})
	f.selectView(t, registry.ViewHeadlines)

	if err := c.RequestDelete(id); err != nil {
		t.Fatal(err)
	}
	c.CancelDelete()
	if _, ok := c.Confirming(); ok {
		t.Error("confirmation still open")
	}
	if got := f.srv.Calls(http.MethodDelete, "/headlines/"+id); got != 0 {
		t.Errorf("DELETE calls = %d, want 0", got)
	}
}

func TestFailedDeleteKeepsRecord(t *testing.T) {
	f := newFixture(t)
	c := f.console
	id := f.srv.Seed("headlines", models.Headline{Title: "keep"})
	f.selectView(t, registry.ViewHeadlines)
	f.srv.FailNext(http.MethodDelete, "/headlines/"+id, http.StatusInternalServerError)

	if err := c.RequestDelete(id); err != nil {
		t.Fatal(err)
	}
	if err := c.ConfirmDelete(context.Background()); err == nil {
		t.Fatal("ConfirmDelete succeeded")
	}
	toast := c.Toast()
	if toast == nil || toast.Kind != ToastError || toast.Message != "Purge failed: Server error" {
		t.Errorf("toast = %+v", toast)
	}
	if len(c.Items()) != 1 {
		t.Errorf("items = %v", c.Items())
	}
}

func TestCancelMakesNoWrites(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewHeadlines)

	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	c.Draft().(*models.Headline).Title = "draft"
	c.Cancel()
	if c.Mode() != ModeBrowsing || c.Draft() != nil {
		t.Errorf("mode = %s, draft = %v", c.Mode(), c.Draft())
	}
	if got := f.srv.Calls(http.MethodPost, "/headlines"); got != 0 {
		t.Errorf("POST calls = %d, want 0", got)
	}
	if _, err := c.BeginSubmit(); !errors.Is(err, ErrNoDraft) {
		t.Errorf("BeginSubmit while browsing = %v, want ErrNoDraft", err)
	}
}

func TestSelectViewResetsForm(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewHeadlines)
	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestDelete("hl-1"); err != nil {
		t.Fatal(err)
	}

	if err := c.SelectView(registry.ViewPhotos); err != nil {
		t.Fatal(err)
	}
	if c.Mode() != ModeBrowsing || c.Draft() != nil {
		t.Errorf("mode = %s after switching views", c.Mode())
	}
	if _, ok := c.Confirming(); ok {
		t.Error("confirmation survived a view switch")
	}
	if err := c.SelectView("nope"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("SelectView(nope) = %v", err)
	}
}

func TestCapabilitiesEnforced(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewContactMessages)
	if err := c.OpenCreate(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("OpenCreate on inquiries = %v", err)
	}
	if err := c.OpenEdit("1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("OpenEdit on inquiries = %v", err)
	}
	f.selectView(t, registry.ViewAboutHero)
	if err := c.RequestDelete("1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("RequestDelete on about hero = %v", err)
	}
}

func TestSingletonEdit(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewDonations)
	if c.Record() == nil {
		t.Fatal("singleton not loaded")
	}
	if err := c.OpenEdit(""); err != nil {
		t.Fatal(err)
	}
	c.Draft().(*models.DonationConfig).UPIID = "mitaan@upi"
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := c.Record().(*models.DonationConfig).UPIID; got != "mitaan@upi" {
		t.Errorf("UPIID = %q", got)
	}
	if got := f.srv.Singleton("donation_config")["upiId"]; got != "mitaan@upi" {
		t.Errorf("server upiId = %v", got)
	}
}

func TestLateLoadIgnored(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.srv.Seed("headlines", models.Headline{Title: "late"})
	if err := c.SelectView(registry.ViewHeadlines); err != nil {
		t.Fatal(err)
	}
	load := c.BeginLoad()
	if err := c.SelectView(registry.ViewPhotos); err != nil {
		t.Fatal(err)
	}

	res := load.Run(context.Background())
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if c.ApplyLoad(res) {
		t.Error("stale load applied")
	}
	if len(c.Items()) != 0 {
		t.Errorf("photos view shows %v", c.Items())
	}
}

func TestValidationFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewPhotos)
	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	c.Draft().(*models.Photo).Title = "untitled"

	err := c.Submit(context.Background())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit() = %v, want validation error", err)
	}
	if c.Mode() != ModeCreating || c.Draft().(*models.Photo).Title != "untitled" {
		t.Error("draft lost after validation failure")
	}
	if toast := c.Toast(); toast == nil || toast.Kind != ToastError || !strings.HasPrefix(toast.Message, "Operation failed: ") {
		t.Errorf("toast = %+v", toast)
	}
	if got := f.srv.Calls(http.MethodPost, "/photos"); got != 0 {
		t.Errorf("POST calls = %d, want 0", got)
	}
}

func TestServerErrorKeepsDraft(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewHeadlines)
	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	c.Draft().(*models.Headline).Title = "retry me"
	f.srv.FailNext(http.MethodPost, "/headlines", http.StatusBadRequest)

	if err := c.Submit(context.Background()); err == nil {
		t.Fatal("Submit succeeded")
	}
	if c.Mode() != ModeCreating || c.Draft().(*models.Headline).Title != "retry me" {
		t.Error("draft lost after server error")
	}
	if c.Pending() {
		t.Error("pending not cleared")
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
}

func TestMutationInvalidatesOnlyItsEntity(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.selectView(t, registry.ViewHeadlines)
	f.selectView(t, registry.ViewPhotos)
	if err := c.OpenCreate(); err != nil {
		t.Fatal(err)
	}
	p := c.Draft().(*models.Photo)
	p.Title = "p"
	p.ImageURL = "https://cdn.test/p.jpg"
	if err := c.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.srv.Calls(http.MethodGet, "/photos"); got != 2 {
		t.Errorf("photo reads = %d, want 2", got)
	}

	f.selectView(t, registry.ViewHeadlines)
	if got := f.srv.Calls(http.MethodGet, "/headlines"); got != 1 {
		t.Errorf("headline reads = %d, want 1", got)
	}
}

func TestFreshListServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.selectView(t, registry.ViewHeadlines)
	f.selectView(t, registry.ViewHeadlines)
	if got := f.srv.Calls(http.MethodGet, "/headlines"); got != 1 {
		t.Errorf("reads = %d, want 1", got)
	}

	f.now = f.now.Add(31 * time.Second)
	f.selectView(t, registry.ViewHeadlines)
	if got := f.srv.Calls(http.MethodGet, "/headlines"); got != 2 {
		t.Errorf("reads after stale = %d, want 2", got)
	}
}

func TestLanguageFilter(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.srv.Seed("articles", models.Article{Category: "Opinion", Title: "en", Language: "en"})
	f.srv.Seed("articles", models.Article{Category: "Opinion", Title: "hi", Language: "hi"})
	f.selectView(t, registry.ViewOpinions)
	if len(c.Items()) != 2 {
		t.Fatalf("items = %d, want 2", len(c.Items()))
	}
	c.SetLanguage("hi")
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(c.Items()) != 1 || c.Items()[0].Label() != "hi" {
		t.Errorf("hindi items = %v", c.Items())
	}
}

func TestToastLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.console
	first := c.showToast(ToastSuccess, "one")
	second := c.showToast(ToastError, "two")

	c.DismissToast(first.ID)
	if got := c.Toast(); got == nil || got.ID != second.ID {
		t.Fatalf("dismissing an old toast hid the new one: %+v", got)
	}
	f.now = f.now.Add(3 * time.Second)
	if got := c.Toast(); got != nil {
		t.Errorf("toast outlived its duration: %+v", got)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	c := f.console
	f.srv.Seed("articles", models.Article{Category: "Story", Title: "River journal", Language: "en"})
	f.srv.Seed("archive_books", models.ArchiveBook{Title: "River Songs", Author: "A"})
	ctx := context.Background()

	if _, err := c.Search(ctx, "ri", ""); !errors.Is(err, querycache.ErrDisabled) {
		t.Errorf("short query = %v, want ErrDisabled", err)
	}
	if got := f.srv.Calls(http.MethodGet, "/search"); got != 0 {
		t.Errorf("short query reached the network %d times", got)
	}

	res, err := c.Search(ctx, "river", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Articles) != 1 || len(res.Books) != 1 {
		t.Errorf("result = %+v", res)
	}
	f.now = f.now.Add(4 * time.Minute)
	if _, err := c.Search(ctx, "river", ""); err != nil {
		t.Fatal(err)
	}
	if got := f.srv.Calls(http.MethodGet, "/search"); got != 1 {
		t.Errorf("search calls = %d, want 1 within the stale window", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&models.ValidationError{Field: "title", Rule: "required"}, "title is required"},
		{fmt.Errorf("x: %w", contentapi.ErrUnauthorized), "Access Denied"},
		{contentapi.ErrNotFound, "Not Found"},
		{contentapi.ErrRateLimited, "Too Many Requests"},
		{context.DeadlineExceeded, "Request timed out"},
		{&contentapi.APIError{Status: 400, Message: "missing required fields: title"}, "missing required fields: title"},
		{&contentapi.APIError{Status: 502, Message: "bad gateway"}, "Server error"},
		{errors.New("boom"), "Unexpected error"},
	}
	for _, tt := range tests {
		if got := Describe(tt.err); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
