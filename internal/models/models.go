package models

import (
	"strconv"
)

// EntityType identifies a kind of managed content. Cache keys and
// invalidation are scoped by entity type.
type EntityType string

const (
	EntityEditorial      EntityType = "editorial"
	EntityOpinion        EntityType = "opinion"
	EntityStory          EntityType = "story"
	EntityArchive        EntityType = "archive"
	EntityHeadline       EntityType = "headline"
	EntityPhoto          EntityType = "photo"
	EntityImpact         EntityType = "impact"
	EntityGlobalEvent    EntityType = "global_event"
	EntityTimelineItem   EntityType = "timeline_item"
	EntityAboutConfig    EntityType = "about_config"
	EntityPerspective    EntityType = "perspective"
	EntityContactMessage EntityType = "contact_message"
	EntityArchiveBook    EntityType = "archive_book"
	EntityGlobalAnchor   EntityType = "global_anchor"
	EntityAdvertisement  EntityType = "advertisement"
	EntityDonationConfig EntityType = "donation_config"
)

// QuerySearch is the cache scope for search results. It is not an entity
// type and no mutation targets it.
const QuerySearch EntityType = "search"

// AllEntityTypes returns every managed entity type in sidebar order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityEditorial, EntityOpinion, EntityStory, EntityArchive,
		EntityHeadline, EntityPhoto, EntityImpact, EntityGlobalEvent,
		EntityTimelineItem, EntityAboutConfig, EntityPerspective,
		EntityContactMessage, EntityArchiveBook, EntityGlobalAnchor,
		EntityAdvertisement, EntityDonationConfig,
	}
}

// IsValidEntityType checks if an entity type is part of the closed set
func IsValidEntityType(t EntityType) bool {
	for _, et := range AllEntityTypes() {
		if et == t {
			return true
		}
	}
	return false
}

// IsArticle reports whether t is one of the article categories.
func (t EntityType) IsArticle() bool {
	switch t {
	case EntityEditorial, EntityOpinion, EntityStory, EntityArchive:
		return true
	}
	return false
}

// Category is the article category discriminator.
type Category string

const (
	CategoryEditorial Category = "Editorial"
	CategoryOpinion   Category = "Opinion"
	CategoryStory     Category = "Story"
	CategoryArchive   Category = "Archive"
)

// Language codes accepted by the backend.
const (
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
)

// Record is any server-side content record the console can list and edit.
type Record interface {
	// RecordID returns the server-assigned identifier, empty before create.
	RecordID() string
	// Label is a short human-readable description for lists and prompts.
	Label() string
	// Clone returns an independent copy for use as a form draft.
	Clone() Record
}

// Article is the shared shape of editorials, opinions, stories and archives.
// For stories Content holds a serialized block list.
type Article struct {
	ID       string `json:"id,omitempty"`
	Category string `json:"category" validate:"required,oneof=Editorial Opinion Story Archive"`
	Title    string `json:"title" validate:"required"`
	Excerpt  string `json:"excerpt" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Date     string `json:"date"`
	ReadTime string `json:"readTime"`
	Image    string `json:"image" validate:"omitempty,url"`
	Content  string `json:"content" validate:"required"`
	Sidenote string `json:"sidenote"`
	Language string `json:"language" validate:"omitempty,oneof=en hi"`
}

func (a *Article) RecordID() string { return a.ID }
func (a *Article) Label() string    { return a.Title }
func (a *Article) Clone() Record    { c := *a; return &c }

type Headline struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title" validate:"required"`
	Time  string `json:"time"`
}

func (h *Headline) RecordID() string { return h.ID }
func (h *Headline) Label() string    { return h.Title }
func (h *Headline) Clone() Record    { c := *h; return &c }

type Photo struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title" validate:"required"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl" validate:"required,url"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
	DispatchID  string `json:"dispatchId"`
}

func (p *Photo) RecordID() string { return p.ID }
func (p *Photo) Label() string    { return p.Title }
func (p *Photo) Clone() Record    { c := *p; return &c }

// ImpactStat is a headline number shown in the impact section. Icon is a
// symbolic icon name such as "Users".
type ImpactStat struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title" validate:"required"`
	Desc  string `json:"desc"`
	Icon  string `json:"icon"`
	Stats string `json:"stats"`
	Color string `json:"color"`
	Ref   string `json:"ref"`
	Link  string `json:"link" validate:"omitempty,url"`
}

func (s *ImpactStat) RecordID() string { return s.ID }
func (s *ImpactStat) Label() string    { return s.Title }
func (s *ImpactStat) Clone() Record    { c := *s; return &c }

type GlobalEvent struct {
	ID       string `json:"id,omitempty"`
	Location string `json:"location"`
	Title    string `json:"title" validate:"required"`
	Desc     string `json:"desc"`
	Date     string `json:"date"`
}

func (e *GlobalEvent) RecordID() string { return e.ID }
func (e *GlobalEvent) Label() string    { return e.Title }
func (e *GlobalEvent) Clone() Record    { c := *e; return &c }

type TimelineItem struct {
	ID    string `json:"id,omitempty"`
	Year  string `json:"year" validate:"required"`
	Title string `json:"title" validate:"required"`
	Event string `json:"event"`
	RefID string `json:"refId"`
	Image string `json:"image" validate:"omitempty,url"`
}

func (t *TimelineItem) RecordID() string { return t.ID }
func (t *TimelineItem) Label() string    { return t.Year + " " + t.Title }
func (t *TimelineItem) Clone() Record    { c := *t; return &c }

// AboutConfig is the singleton hero section of the about page.
type AboutConfig struct {
	ID                string `json:"id,omitempty"`
	Title             string `json:"title"`
	Subtitle          string `json:"subtitle"`
	Quote             string `json:"quote"`
	Image             string `json:"image" validate:"omitempty,url"`
	Badge             string `json:"badge"`
	Stat1Label        string `json:"stat1Label"`
	Stat1Value        string `json:"stat1Value"`
	Stat2Label        string `json:"stat2Label"`
	Stat2Value        string `json:"stat2Value"`
	Stat3Label        string `json:"stat3Label"`
	Stat3Value        string `json:"stat3Value"`
	Stat4Label        string `json:"stat4Label"`
	Stat4Value        string `json:"stat4Value"`
	ImpactSectionLink string `json:"impactSectionLink"`
	GlobalAnchorsLink string `json:"globalAnchorsLink"`
	GlobalAnchorsText string `json:"globalAnchorsText"`
}

func (a *AboutConfig) RecordID() string { return a.ID }
func (a *AboutConfig) Label() string    { return a.Title }
func (a *AboutConfig) Clone() Record    { c := *a; return &c }

// Perspective is a reader response attached to an article. The console
// only lists and deletes them.
type Perspective struct {
	ID        string `json:"id,omitempty"`
	ArticleID string `json:"articleId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Content   string `json:"content"`
	Date      string `json:"date"`
}

func (p *Perspective) RecordID() string { return p.ID }
func (p *Perspective) Label() string    { return p.Name + " on " + p.ArticleID }
func (p *Perspective) Clone() Record    { c := *p; return &c }

// ContactMessage is a public contact form submission. Its id is numeric.
type ContactMessage struct {
	ID       uint   `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Date     string `json:"date"`
}

func (m *ContactMessage) RecordID() string {
	if m.ID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(m.ID), 10)
}
func (m *ContactMessage) Label() string { return m.Name + " <" + m.Email + ">" }
func (m *ContactMessage) Clone() Record { c := *m; return &c }

type ArchiveBook struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title" validate:"required"`
	Author     string `json:"author" validate:"required"`
	Image      string `json:"image" validate:"omitempty,url"`
	Reflection string `json:"reflection"`
}

func (b *ArchiveBook) RecordID() string { return b.ID }
func (b *ArchiveBook) Label() string    { return b.Title + " by " + b.Author }
func (b *ArchiveBook) Clone() Record    { c := *b; return &c }

type GlobalAnchor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
	Icon string `json:"icon"`
	Link string `json:"link" validate:"omitempty,url"`
}

func (g *GlobalAnchor) RecordID() string { return g.ID }
func (g *GlobalAnchor) Label() string    { return g.Name }
func (g *GlobalAnchor) Clone() Record    { c := *g; return &c }

// Advertisement placement types.
const (
	AdTypeBanner  = "banner"
	AdTypeSidebar = "sidebar"
	AdTypePopup   = "popup"
)

type Advertisement struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
	LinkURL  string `json:"linkUrl" validate:"omitempty,url"`
	Type     string `json:"type" validate:"required,oneof=banner sidebar popup"`
	IsActive bool   `json:"isActive"`
	Position string `json:"position"`
}

func (a *Advertisement) RecordID() string { return a.ID }
func (a *Advertisement) Label() string {
	if a.Title != "" {
		return a.Title
	}
	return a.Type + " " + a.Position
}
func (a *Advertisement) Clone() Record { c := *a; return &c }

// DonationConfig is the singleton donation panel configuration.
type DonationConfig struct {
	ID            string `json:"id,omitempty"`
	QRCodeURL     string `json:"qrCodeUrl" validate:"omitempty,url"`
	UPIID         string `json:"upiId"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IFSCCode      string `json:"ifscCode"`
	SwiftCode     string `json:"swiftCode"`
	Message       string `json:"message"`
}

func (d *DonationConfig) RecordID() string { return d.ID }
func (d *DonationConfig) Label() string    { return "Donation settings" }
func (d *DonationConfig) Clone() Record    { c := *d; return &c }

// SearchResult is the response of the site-wide search endpoint.
type SearchResult struct {
	Articles []Article     `json:"articles"`
	Books    []ArchiveBook `json:"books"`
}
