// Package apitest runs an in-memory content backend for tests. It speaks the
// same REST contract as the real backend: bearer-token admin routes, a
// refresh cookie, multipart uploads and JSON error bodies.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Default admin credentials accepted by the server.
const (
	Username = "admin"
	Password = "secret"
)

// Server is a fake backend. All exported methods are safe for concurrent
// use.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	secret      []byte
	pwHash      []byte
	tokenGen    int
	refreshOK   bool
	collections map[string]*collection
	singletons  map[string]map[string]any
	calls       map[string]int
	failures    map[string][]int
	holds       map[string]chan struct{}
	uploads     int
}

type collection struct {
	prefix  string
	numeric bool
	nextID  int
	order   []string
	records map[string]map[string]any
}

// collection paths and the id prefixes the server assigns.
var collectionPrefixes = map[string]string{
	"articles":         "art",
	"headlines":        "hl",
	"photos":           "ph",
	"impacts":          "imp",
	"global_events":    "ev",
	"timeline":         "tl",
	"perspectives":     "per",
	"contact_messages": "",
	"archive_books":    "bk",
	"global_anchors":   "anch",
	"ads":              "ad",
}

var singletonPaths = []string{"about_config", "donation_config"}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	t.Cleanup(s.Close)
	return s
}

// NewServer starts a server. The caller must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:      []byte("apitest-secret"),
		refreshOK:   true,
		collections: make(map[string]*collection),
		singletons:  make(map[string]map[string]any),
		calls:       make(map[string]int),
		failures:    make(map[string][]int),
		holds:       make(map[string]chan struct{}),
	}
	for path, prefix := range collectionPrefixes {
		s.collections[path] = &collection{
			prefix:  prefix,
			numeric: prefix == "",
			records: make(map[string]map[string]any),
		}
	}
	for _, path := range singletonPaths {
		s.singletons[path] = map[string]any{"id": "1"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.pwHash = hash
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.track)

	r.POST("/admin/login", s.login)
	r.POST("/admin/logout", s.logout)
	r.POST("/admin/refresh", s.refresh)
	r.GET("/admin/verify", s.requireAuth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
	})

	r.GET("/search", s.search)
	r.POST("/upload", s.requireAuth, s.upload)

	for path := range s.collections {
		base := "/" + path
		if path == "perspectives" || path == "contact_messages" {
			r.GET(base, s.requireAuth, s.list(path))
			r.DELETE(base+"/:id", s.requireAuth, s.remove(path))
			continue
		}
		r.GET(base, s.list(path))
		r.GET(base+"/:id", s.get(path))
		r.POST(base, s.requireAuth, s.create(path))
		r.PUT(base+"/:id", s.requireAuth, s.update(path))
		r.DELETE(base+"/:id", s.requireAuth, s.remove(path))
	}
	for _, path := range singletonPaths {
		r.GET("/"+path, s.getSingleton(path))
		r.PUT("/"+path, s.requireAuth, s.putSingleton(path))
	}
	return r
}

// track counts calls, applies injected failures and holds.
func (s *Server) track(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	s.calls[key]++
	hold := s.holds[key]
	var status int
	if queue := s.failures[key]; len(queue) > 0 {
		status = queue[0]
		s.failures[key] = queue[1:]
	}
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Next()
}

// Calls returns how many requests reached method and path (query excluded).
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// FailNext makes the next request to method and path fail with status.
// Repeated calls queue further failures.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], status)
}

// Hold blocks requests to method and path until the returned release
// function is called.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	key := method + " " + path
	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, key)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// ExpireTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenGen++
}

// RevokeRefresh makes every subsequent refresh attempt fail.
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshOK = false
}

// IssueToken returns a currently valid access token.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	gen := s.tokenGen
	s.mu.Unlock()
	tok, _ := s.sign("access", gen, 15*time.Minute)
	return tok
}

// IssueRefreshToken returns a valid refresh token value.
func (s *Server) IssueRefreshToken() string {
	tok, _ := s.sign("refresh", 0, 7*24*time.Hour)
	return tok
}

// Uploads returns how many uploads succeeded.
func (s *Server) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Seed inserts a record into the collection at path and returns its id.
// rec may be any JSON-encodable value.
func (s *Server) Seed(path string, rec any) string {
	m := toMap(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collections[path]
	if col == nil {
		panic("apitest: unknown collection " + path)
	}
	return col.insert(m)
}

// Records returns a snapshot of the collection at path in insertion order.
func (s *Server) Records(path string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collections[path]
	if col == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, copyMap(col.records[id]))
	}
	return out
}

// Singleton returns a snapshot of the singleton at path.
func (s *Server) Singleton(path string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.singletons[path])
}

func (s *Server) sign(typ string, gen int, ttl time.Duration) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin":    true,
		"username": Username,
		"typ":      typ,
		"gen":      gen,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return tok.SignedString(s.secret)
}

func (s *Server) parse(raw, wantTyp string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != wantTyp {
		return nil, fmt.Errorf("wrong token type")
	}
	return claims, nil
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}
	claims, err := s.parse(strings.TrimPrefix(header, "Bearer "), "access")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	gen, _ := claims["gen"].(float64)
	s.mu.Lock()
	current := s.tokenGen
	s.mu.Unlock()
	if int(gen) != current {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
		return
	}
	c.Next()
}

func (s *Server) issuePair(c *gin.Context) {
	s.mu.Lock()
	gen := s.tokenGen
	s.mu.Unlock()
	at, err := s.sign("access", gen, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate tokens"})
		return
	}
	rt, err := s.sign("refresh", 0, 7*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate tokens"})
		return
	}
	c.SetCookie("refresh_token", rt, 60*60*24*7, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": at})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Username != Username || bcrypt.CompareHashAndPassword(s.pwHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}
	s.issuePair(c)
}

func (s *Server) logout(c *gin.Context) {
	c.SetCookie("refresh_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) refresh(c *gin.Context) {
	raw, err := c.Cookie("refresh_token")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token missing"})
		return
	}
	s.mu.Lock()
	ok := s.refreshOK
	s.mu.Unlock()
	if _, err := s.parse(raw, "refresh"); err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	s.issuePair(c)
}

func (s *Server) list(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Query("category")
		lang := c.Query("lang")

		s.mu.Lock()
		col := s.collections[path]
		out := make([]map[string]any, 0, len(col.order))
		for _, id := range col.order {
			rec := col.records[id]
			if category != "" && rec["category"] != category {
				continue
			}
			if lang != "" && rec["language"] != lang {
				continue
			}
			out = append(out, copyMap(rec))
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) get(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		rec, ok := s.collections[path].records[c.Param("id")]
		rec = copyMap(rec)
		s.mu.Unlock()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) create(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec map[string]any
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if msg := requiredMissing(path, rec); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		delete(rec, "id")
		s.mu.Lock()
		col := s.collections[path]
		id := col.insert(rec)
		out := copyMap(col.records[id])
		s.mu.Unlock()
		c.JSON(http.StatusCreated, out)
	}
}

func (s *Server) update(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec map[string]any
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id := c.Param("id")
		s.mu.Lock()
		col := s.collections[path]
		if _, ok := col.records[id]; !ok {
			col.order = append(col.order, id)
		}
		rec["id"] = id
		col.records[id] = rec
		out := copyMap(rec)
		s.mu.Unlock()
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) remove(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		s.mu.Lock()
		col := s.collections[path]
		if _, ok := col.records[id]; ok {
			delete(col.records, id)
			for i, oid := range col.order {
				if oid == id {
					col.order = append(col.order[:i], col.order[i+1:]...)
					break
				}
			}
		}
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

func (s *Server) getSingleton(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		rec := copyMap(s.singletons[path])
		s.mu.Unlock()
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) putSingleton(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec map[string]any
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec["id"] = "1"
		s.mu.Lock()
		s.singletons[path] = rec
		s.mu.Unlock()
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) search(c *gin.Context) {
	q := strings.ToLower(c.Query("q"))
	lang := c.Query("lang")
	articles := []map[string]any{}
	books := []map[string]any{}
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"articles": articles, "books": books})
		return
	}

	match := func(rec map[string]any, fields ...string) bool {
		for _, f := range fields {
			if v, ok := rec[f].(string); ok && strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}

	s.mu.Lock()
	for _, rec := range s.ordered("articles") {
		if lang != "" && rec["language"] != lang {
			continue
		}
		if match(rec, "title", "excerpt", "content") {
			articles = append(articles, copyMap(rec))
		}
	}
	for _, rec := range s.ordered("archive_books") {
		if match(rec, "title", "author", "reflection") {
			books = append(books, copyMap(rec))
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"articles": articles, "books": books})
}

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"application/pdf": true,
}

func (s *Server) upload(c *gin.Context) {
	_, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if header.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 10MB)"})
		return
	}
	if !allowedUploadTypes[header.Header.Get("Content-Type")] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Allowed: JPG, PNG, WEBP, GIF, PDF"})
		return
	}
	s.mu.Lock()
	s.uploads++
	n := s.uploads
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"url": fmt.Sprintf("https://cdn.test/%d%s", n, filepath.Ext(header.Filename))})
}

// ordered must be called with s.mu held.
func (s *Server) ordered(path string) []map[string]any {
	col := s.collections[path]
	out := make([]map[string]any, 0, len(col.order))
	for _, id := range col.order {
		out = append(out, col.records[id])
	}
	return out
}

func (col *collection) insert(rec map[string]any) string {
	col.nextID++
	var id string
	if col.numeric {
		id = strconv.Itoa(col.nextID)
		rec["id"] = col.nextID
	} else {
		if existing, ok := rec["id"].(string); ok && existing != "" {
			id = existing
		} else {
			id = fmt.Sprintf("%s-%d", col.prefix, col.nextID)
		}
		rec["id"] = id
	}
	if _, ok := col.records[id]; !ok {
		col.order = append(col.order, id)
	}
	col.records[id] = rec
	return id
}

// requiredMissing mirrors the backend's binding validation for the fields
// the tests rely on.
func requiredMissing(path string, rec map[string]any) string {
	required := map[string][]string{
		"articles":       {"category", "title", "excerpt", "author", "content"},
		"headlines":      {"title"},
		"photos":         {"title", "imageUrl"},
		"impacts":        {"title"},
		"global_events":  {"title"},
		"timeline":       {"title"},
		"archive_books":  {"title", "author"},
		"global_anchors": {"name"},
		"ads":            {"imageUrl"},
	}[path]
	var missing []string
	for _, f := range required {
		if v, _ := rec[f].(string); strings.TrimSpace(v) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	return "missing required fields: " + strings.Join(missing, ", ")
}

func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
