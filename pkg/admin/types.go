package admin

import (
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/upload"
)

// Focus is the pane receiving navigation keys while browsing.
type Focus int

const (
	FocusSidebar Focus = iota
	FocusList
)

// LoadedMsg carries the result of a view read.
type LoadedMsg struct {
	Result console.LoadResult
}

// SubmittedMsg carries the result of a create or update.
type SubmittedMsg struct {
	Result console.SubmitResult
}

// DeletedMsg carries the result of a confirmed delete.
type DeletedMsg struct {
	Result console.DeleteResult
}

// UploadedMsg carries the result of an image upload for one form target.
type UploadedMsg struct {
	Form   uint64
	Target string
	Result upload.Result
}

// SearchResultMsg carries the result of a site search.
type SearchResultMsg struct {
	Query  string
	Result *models.SearchResult
	Err    error
}

// ClearToastMsg hides the toast with the given id.
type ClearToastMsg struct {
	ID uint64
}

// ClearStatusMsg clears the status line.
type ClearStatusMsg struct{}

// languages is the cycle order of the article language filter.
var languages = []string{"", models.LanguageEnglish, models.LanguageHindi}

func languageLabel(lang string) string {
	switch lang {
	case models.LanguageEnglish:
		return "English"
	case models.LanguageHindi:
		return "Hindi"
	default:
		return "All languages"
	}
}

// recordSource adapts records for fuzzy matching on their labels.
type recordSource []models.Record

func (s recordSource) String(i int) string { return s[i].Label() }
func (s recordSource) Len() int            { return len(s) }
