package admin

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/huh"
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/richtext"
	"github.com/mitaan/mitaan/internal/storyblocks"
	"github.com/mitaan/mitaan/internal/upload"
	"go.uber.org/zap"
)

// imageTarget is the upload target of a form's own image field. Block
// targets are prefixed with blockTargetPrefix.
const (
	imageTarget       = "image"
	blockTargetPrefix = "block:"
)

// FormState holds the state of the create/edit form. Fields are bound to
// the console's draft record, so typing edits the draft in place.
type FormState struct {
	Kind  registry.FormKind
	Mode  console.Mode
	Title string
	Draft models.Record
	Form  *huh.Form
	Width int

	// Body is article content as typed (markdown or HTML). It is normalized
	// into the draft on submit.
	Body string

	Blocks *BlockEditor
	// BlocksFocused routes keys to the block editor instead of the form.
	BlocksFocused bool

	Uploads map[string]*upload.Field
	logger  *zap.Logger

	// gen identifies this form instance in upload results.
	gen uint64
}

// formGen numbers form instances so results of uploads started in a
// closed form are never applied to a later one.
var formGen atomic.Uint64

// NewFormState creates a form over draft for view.
func NewFormState(view *registry.View, mode console.Mode, draft models.Record, width int, logger *zap.Logger) *FormState {
	fs := &FormState{
		Kind:    view.Form,
		Mode:    mode,
		Draft:   draft,
		Width:   width,
		Uploads: make(map[string]*upload.Field),
		logger:  logger,
		gen:     formGen.Add(1),
	}
	switch mode {
	case console.ModeCreating:
		fs.Title = "New " + strings.TrimSuffix(view.Label, "s")
	default:
		fs.Title = "Edit " + view.Label
		if label := draft.Label(); label != "" {
			fs.Title += ": " + label
		}
	}
	if a, ok := draft.(*models.Article); ok {
		if view.Form == registry.FormStory {
			fs.Blocks = NewBlockEditor(storyblocks.NewEditor(a.Content, nil, func(content string) {
				a.Content = content
			}))
		} else {
			fs.Body = a.Content
		}
	}
	fs.buildForm()
	return fs
}

// buildForm constructs the huh.Form for the draft's kind.
func (fs *FormState) buildForm() {
	var groups []*huh.Group
	switch d := fs.Draft.(type) {
	case *models.Article:
		groups = fs.articleGroups(d)
	case *models.Headline:
		groups = single(
			input("Title", &d.Title).Placeholder("Breaking..."),
			input("Time", &d.Time).Placeholder("Now"),
		)
	case *models.Photo:
		groups = single(
			input("Title", &d.Title),
			input("Category", &d.Category),
			imageInput("Image URL", &d.ImageURL),
			input("Date", &d.Date),
			input("Location", &d.Location),
			text("Description", &d.Description),
			input("Dispatch ID", &d.DispatchID),
		)
	case *models.ImpactStat:
		groups = single(
			input("Title", &d.Title),
			text("Description", &d.Desc),
			input("Icon", &d.Icon),
			input("Stats", &d.Stats),
			input("Color", &d.Color),
			input("Reference", &d.Ref),
			input("Link", &d.Link),
		)
	case *models.GlobalEvent:
		groups = single(
			input("Location", &d.Location),
			input("Title", &d.Title),
			text("Description", &d.Desc),
			input("Date", &d.Date),
		)
	case *models.TimelineItem:
		groups = single(
			input("Year", &d.Year),
			input("Title", &d.Title),
			text("Event", &d.Event),
			input("Reference ID", &d.RefID),
			imageInput("Image URL", &d.Image),
		)
	case *models.AboutConfig:
		groups = []*huh.Group{
			huh.NewGroup(
				input("Title", &d.Title),
				input("Subtitle", &d.Subtitle),
				text("Quote", &d.Quote),
				imageInput("Portrait URL", &d.Image),
				input("Badge", &d.Badge),
			).Title("Hero"),
			huh.NewGroup(
				input("Stat 1 label", &d.Stat1Label), input("Stat 1 value", &d.Stat1Value),
				input("Stat 2 label", &d.Stat2Label), input("Stat 2 value", &d.Stat2Value),
				input("Stat 3 label", &d.Stat3Label), input("Stat 3 value", &d.Stat3Value),
				input("Stat 4 label", &d.Stat4Label), input("Stat 4 value", &d.Stat4Value),
			).Title("Stats"),
			huh.NewGroup(
				input("Impact section link", &d.ImpactSectionLink),
				input("Global anchors link", &d.GlobalAnchorsLink),
				input("Global anchors text", &d.GlobalAnchorsText),
			).Title("Links"),
		}
	case *models.ArchiveBook:
		groups = single(
			input("Title", &d.Title),
			input("Author", &d.Author),
			imageInput("Cover URL", &d.Image),
			text("Reflection", &d.Reflection),
		)
	case *models.GlobalAnchor:
		groups = single(
			input("Name", &d.Name),
			input("Icon", &d.Icon),
			input("Link", &d.Link),
		)
	case *models.Advertisement:
		groups = single(
			input("Title", &d.Title),
			imageInput("Image URL", &d.ImageURL),
			input("Link URL", &d.LinkURL),
			huh.NewSelect[string]().Title("Type").Options(
				huh.NewOption("Banner", models.AdTypeBanner),
				huh.NewOption("Sidebar", models.AdTypeSidebar),
				huh.NewOption("Popup", models.AdTypePopup),
			).Value(&d.Type),
			huh.NewConfirm().Title("Active").Value(&d.IsActive),
			input("Position", &d.Position),
		)
	case *models.DonationConfig:
		groups = []*huh.Group{
			huh.NewGroup(
				imageInput("QR code URL", &d.QRCodeURL),
				input("UPI ID", &d.UPIID),
				text("Message", &d.Message),
			).Title("Payment"),
			huh.NewGroup(
				input("Bank", &d.BankName),
				input("Account name", &d.AccountName),
				input("Account number", &d.AccountNumber),
				input("IFSC", &d.IFSCCode),
				input("SWIFT", &d.SwiftCode),
			).Title("Bank transfer"),
		}
	default:
		groups = single(huh.NewNote().Title("Read only").Description("These records cannot be edited here."))
	}

	fs.Form = huh.NewForm(groups...).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
	if fs.Width > 0 {
		fs.Form = fs.Form.WithWidth(fs.Width)
	}
}

func (fs *FormState) articleGroups(a *models.Article) []*huh.Group {
	fields := []huh.Field{
		input("Title", &a.Title),
		text("Excerpt", &a.Excerpt),
		input("Author", &a.Author),
		input("Date", &a.Date),
		input("Read time", &a.ReadTime).Placeholder("5 min read"),
		imageInput("Cover image URL", &a.Image),
		huh.NewSelect[string]().Title("Language").Options(
			huh.NewOption("English", models.LanguageEnglish),
			huh.NewOption("Hindi", models.LanguageHindi),
		).Value(&a.Language),
	}
	if fs.Blocks != nil {
		fields = append(fields, huh.NewNote().
			Title("Story blocks").
			Description(fmt.Sprintf("%d blocks. Press ctrl+b to edit them.", fs.Blocks.Len())))
	} else {
		fields = append(fields, huh.NewText().
			Title("Content").
			Description("Markdown or HTML").
			Lines(8).
			Value(&fs.Body))
	}
	fields = append(fields, text("Sidenote", &a.Sidenote))
	return []*huh.Group{huh.NewGroup(fields...)}
}

func single(fields ...huh.Field) []*huh.Group {
	return []*huh.Group{huh.NewGroup(fields...)}
}

func input(title string, v *string) *huh.Input {
	return huh.NewInput().Title(title).Value(v)
}

func imageInput(title string, v *string) *huh.Input {
	return input(title, v).Description("ctrl+u uploads a local file")
}

func text(title string, v *string) *huh.Text {
	return huh.NewText().Title(title).Lines(3).Value(v)
}

// flush copies values that are not bound directly into the draft.
func (fs *FormState) flush() {
	if a, ok := fs.Draft.(*models.Article); ok && fs.Blocks == nil {
		a.Content = richtext.Normalize(fs.Body)
	}
}

// imageField returns the draft's own image URL field, if it has one.
func imageField(draft models.Record) *string {
	switch d := draft.(type) {
	case *models.Article:
		return &d.Image
	case *models.Photo:
		return &d.ImageURL
	case *models.TimelineItem:
		return &d.Image
	case *models.AboutConfig:
		return &d.Image
	case *models.ArchiveBook:
		return &d.Image
	case *models.Advertisement:
		return &d.ImageURL
	case *models.DonationConfig:
		return &d.QRCodeURL
	}
	return nil
}

// targetValue returns the current value of an upload target.
func (fs *FormState) targetValue(target string) (string, bool) {
	if id, ok := strings.CutPrefix(target, blockTargetPrefix); ok {
		if fs.Blocks == nil {
			return "", false
		}
		b, found := fs.Blocks.Find(id)
		return b.Value, found && b.Type == storyblocks.TypeImage
	}
	if p := imageField(fs.Draft); p != nil {
		return *p, true
	}
	return "", false
}

// uploadField returns the upload field for target, synced to its current
// value.
func (fs *FormState) uploadField(target string) (*upload.Field, bool) {
	value, ok := fs.targetValue(target)
	if !ok {
		return nil, false
	}
	f := fs.Uploads[target]
	if f == nil {
		f = upload.NewField(value, fs.logger)
		fs.Uploads[target] = f
	} else if f.State() != upload.StateUploading {
		f.SetText(value)
	}
	return f, true
}

// applyUpload writes a completed upload into its target. It reports whether
// the huh form must be rebuilt to show the new value.
func (fs *FormState) applyUpload(target, url string) bool {
	if id, ok := strings.CutPrefix(target, blockTargetPrefix); ok {
		if fs.Blocks != nil {
			if err := fs.Blocks.Editor.Update(id, url); err != nil {
				fs.logger.Debug("upload target block is gone", zap.String("block", id))
			}
		}
		return false
	}
	if p := imageField(fs.Draft); p != nil {
		*p = url
		return true
	}
	return false
}

// abortUploads cancels every upload in flight.
func (fs *FormState) abortUploads() {
	for _, f := range fs.Uploads {
		f.Abort()
	}
}

// uploadLines describes the form's own image upload when it is not idle.
func (fs *FormState) uploadLines(spin string) []string {
	f := fs.Uploads[imageTarget]
	if f == nil {
		return nil
	}
	if line := uploadState(f, "image", spin); line != "" {
		return []string{line}
	}
	return nil
}

// blockUploadState describes the upload into block id, if any.
func (fs *FormState) blockUploadState(id, spin string) string {
	f := fs.Uploads[blockTargetPrefix+id]
	if f == nil {
		return ""
	}
	return uploadState(f, "image", spin)
}

func uploadState(f *upload.Field, name, spin string) string {
	style := uploadStateStyles[f.State()]
	switch f.State() {
	case upload.StateUploading:
		return style.Render(spin + " uploading " + name)
	case upload.StateFailed:
		return style.Render("✗ " + name + " upload failed: " + uploadReason(f.Err()))
	case upload.StateDone:
		return style.Render("✓ " + name + " uploaded")
	}
	return ""
}

func uploadReason(err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return "file not found"
	}
	return console.Describe(err)
}
