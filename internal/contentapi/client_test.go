package contentapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/mitaan/mitaan/internal/apitest"
	"github.com/mitaan/mitaan/internal/credstore"
	"github.com/mitaan/mitaan/internal/models"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server, *credstore.MemoryStore) {
	t.Helper()
	srv := apitest.New(t)
	store := credstore.NewMemoryStore()
	return New(srv.URL, store), srv, store
}

func login(t *testing.T, c *Client) {
	t.Helper()
	if err := c.Login(context.Background(), apitest.Username, apitest.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginStoresCredentials(t *testing.T) {
	c, _, store := newTestClient(t)
	login(t, c)

	if tok, ok, _ := store.Get(credstore.KeyAdminToken); !ok || tok == "" {
		t.Error("access token not stored")
	}
	if rt, ok, _ := store.Get(credstore.KeyRefreshToken); !ok || rt == "" {
		t.Error("refresh cookie not stored")
	}
	ok, err := c.Verify(context.Background())
	if err != nil || !ok {
		t.Errorf("Verify() = %v, %v", ok, err)
	}
}

func TestLoginBadPassword(t *testing.T) {
	c, _, store := newTestClient(t)
	err := c.Login(context.Background(), apitest.Username, "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(err.Error(), "Authentication failed") {
		t.Errorf("error should carry server message: %v", err)
	}
	if _, ok, _ := store.Get(credstore.KeyAdminToken); ok {
		t.Error("token stored after failed login")
	}
}

func TestRefreshRetriesOnce(t *testing.T) {
	c, srv, store := newTestClient(t)
	login(t, c)
	oldToken, _, _ := store.Get(credstore.KeyAdminToken)

	srv.ExpireTokens()
	created, err := c.Headlines().Create(context.Background(), &models.Headline{Title: "Breaking", Time: "Now"})
	if err != nil {
		t.Fatalf("Create after expiry: %v", err)
	}
	if created.ID == "" {
		t.Error("created headline has no id")
	}

	if got := srv.Calls(http.MethodPost, "/admin/refresh"); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if got := srv.Calls(http.MethodPost, "/headlines"); got != 2 {
		t.Errorf("headline POSTs = %d, want 2 (original + one retry)", got)
	}
	newToken, _, _ := store.Get(credstore.KeyAdminToken)
	if newToken == oldToken {
		t.Error("token not replaced after refresh")
	}
}

func TestRetryAtMostOnce(t *testing.T) {
	c, srv, _ := newTestClient(t)
	login(t, c)

	// Both the original request and the retry are rejected.
	srv.FailNext(http.MethodGet, "/contact_messages", http.StatusUnauthorized)
	srv.FailNext(http.MethodGet, "/contact_messages", http.StatusUnauthorized)

	_, err := c.ContactMessages().List(context.Background(), Filter{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("List() error = %v, want ErrUnauthorized", err)
	}
	if got := srv.Calls(http.MethodGet, "/contact_messages"); got != 2 {
		t.Errorf("list calls = %d, want 2", got)
	}
	if got := srv.Calls(http.MethodPost, "/admin/refresh"); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestFailedRefreshClearsCredential(t *testing.T) {
	c, srv, store := newTestClient(t)
	login(t, c)

	srv.ExpireTokens()
	srv.RevokeRefresh()

	_, err := c.Photos().Create(context.Background(), &models.Photo{Title: "p", ImageURL: "https://cdn/x.png"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Create() error = %v, want ErrUnauthorized", err)
	}
	if _, ok, _ := store.Get(credstore.KeyAdminToken); ok {
		t.Error("credential not cleared after failed refresh")
	}
	if got := srv.Calls(http.MethodPost, "/photos"); got != 1 {
		t.Errorf("photo POSTs = %d, want 1", got)
	}
}

func TestConcurrentRefreshSucceeds(t *testing.T) {
	c, srv, _ := newTestClient(t)
	login(t, c)
	srv.ExpireTokens()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ContactMessages().List(context.Background(), Filter{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent List: %v", err)
		}
	}
	if got := srv.Calls(http.MethodPost, "/admin/refresh"); got < 1 || got > 5 {
		t.Errorf("refresh calls = %d, want between 1 and 5", got)
	}
}

func TestPublicReadWithoutCredential(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Seed("headlines", models.Headline{Title: "Morning", Time: "Now"})

	items, err := c.Headlines().List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Morning" {
		t.Errorf("items = %+v", items)
	}
	if got := srv.Calls(http.MethodPost, "/admin/refresh"); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestArticleCategoryFilter(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Seed("articles", models.Article{Category: "Editorial", Title: "E1", Language: "en"})
	srv.Seed("articles", models.Article{Category: "Opinion", Title: "O1", Language: "en"})
	srv.Seed("articles", models.Article{Category: "Editorial", Title: "E2", Language: "hi"})

	tests := []struct {
		filter Filter
		want   []string
	}{
		{Filter{Category: "Editorial"}, []string{"E1", "E2"}},
		{Filter{Category: "Editorial", Language: "hi"}, []string{"E2"}},
		{Filter{Category: "Story"}, nil},
		{Filter{}, []string{"E1", "O1", "E2"}},
	}
	for _, tt := range tests {
		items, err := c.Articles().List(context.Background(), tt.filter)
		if err != nil {
			t.Fatalf("List(%+v): %v", tt.filter, err)
		}
		var got []string
		for _, a := range items {
			got = append(got, a.Title)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("List(%+v) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	c, _, _ := newTestClient(t)
	login(t, c)
	ctx := context.Background()

	created, err := c.GlobalAnchors().Create(ctx, &models.GlobalAnchor{Name: "UN", Icon: "Award"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Name = "United Nations"
	if _, err := c.GlobalAnchors().Update(ctx, created.ID, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := c.GlobalAnchors().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "United Nations" || got.Icon != "Award" {
		t.Errorf("Get() = %+v", got)
	}
	if err := c.GlobalAnchors().Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.GlobalAnchors().Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestSingletonUpdate(t *testing.T) {
	c, srv, _ := newTestClient(t)
	login(t, c)
	ctx := context.Background()

	cfg, err := c.DonationConfig().Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cfg.UPIID = "mitaan@upi"
	if _, err := c.DonationConfig().Update(ctx, cfg); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := srv.Singleton("donation_config")["upiId"]; got != "mitaan@upi" {
		t.Errorf("stored upiId = %v", got)
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c, _, _ := newTestClient(t)
	login(t, c)

	_, err := c.Photos().Create(context.Background(), &models.Photo{Title: "no image"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || !strings.Contains(apiErr.Message, "imageUrl") {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestSearch(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Seed("articles", models.Article{Category: "Story", Title: "Monsoon diaries", Language: "en"})
	srv.Seed("archive_books", models.ArchiveBook{Title: "Monsoon", Author: "R. K. Narayan"})

	res, err := c.Search(context.Background(), "monsoon", "en")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Articles) != 1 || len(res.Books) != 1 {
		t.Errorf("Search() = %d articles, %d books", len(res.Articles), len(res.Books))
	}
}

func TestUpload(t *testing.T) {
	c, srv, _ := newTestClient(t)
	login(t, c)

	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)
	res, err := c.Upload(context.Background(), "cover.png", strings.NewReader(png))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(res.URL, "https://cdn.test/") || !strings.HasSuffix(res.URL, ".png") {
		t.Errorf("URL = %q", res.URL)
	}

	_, err = c.Upload(context.Background(), "notes.txt", strings.NewReader("plain text"))
	if err == nil {
		t.Fatal("text upload should be rejected")
	}
	if srv.Uploads() != 1 {
		t.Errorf("uploads = %d, want 1", srv.Uploads())
	}
}

func TestLogoutClearsEvenOnServerError(t *testing.T) {
	c, srv, store := newTestClient(t)
	login(t, c)
	srv.FailNext(http.MethodPost, "/admin/logout", http.StatusInternalServerError)

	if err := c.Logout(context.Background()); err == nil {
		t.Error("Logout() should report the server failure")
	}
	if _, ok, _ := store.Get(credstore.KeyAdminToken); ok {
		t.Error("token survived logout")
	}
	if _, ok, _ := store.Get(credstore.KeyRefreshToken); ok {
		t.Error("refresh token survived logout")
	}
}
