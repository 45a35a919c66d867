package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/input"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/richtext"
	"github.com/mitaan/mitaan/internal/storyblocks"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply <view> -f <file>",
	Short: "Create or update records from a YAML file",
	Long: `Create or update records from a YAML file. The file holds one record or
a list of records using the backend's field names. A record with an id that
exists is updated; anything else is created. Singleton views are always
updated.

Article content may be markdown; it is stored as sanitised HTML. Stories may
give their body as a list of blocks:

  title: Monsoon diaries
  excerpt: Notes from the field
  blocks:
    - type: text
      value: "The rain came **early** this year."
    - type: image
      value: https://cdn.example/rain.jpg`,
	GroupID:           "content",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: viewArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		data, err := input.Document(file, os.Stdin)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		results, err := applyDocument(ctx, a, args[0], data)
		for _, r := range results {
			verb := "Updated"
			if r.Created {
				verb = "Created"
			}
			output.Success("%s %s  %s", verb, r.Record.RecordID(), r.Record.Label())
		}
		if err != nil {
			return failure(a, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("file", "f", "", `YAML file, or "-" for stdin`)
	_ = applyCmd.MarkFlagRequired("file")
}

// applied is one record written by apply.
type applied struct {
	Record  models.Record
	Created bool
}

// applyDocument writes every record in a YAML document to the view. It
// stops at the first failure and returns what was written before it.
func applyDocument(ctx context.Context, a *app, key string, data []byte) ([]applied, error) {
	v, err := selectView(a, key)
	if err != nil {
		return nil, err
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("no records in input")
	}
	if v.Singleton != nil && len(docs) > 1 {
		return nil, fmt.Errorf("%s holds a single record", v.Label)
	}
	if err := a.Console.Reload(ctx); err != nil {
		return nil, err
	}

	var out []applied
	for i, doc := range docs {
		created, err := openDraft(a, v, doc)
		if err != nil {
			return out, fmt.Errorf("record %d: %w", i+1, err)
		}
		if err := fillDraft(v, a.Console.Draft(), doc); err != nil {
			a.Console.Cancel()
			return out, fmt.Errorf("record %d: %w", i+1, err)
		}
		draft := a.Console.Draft()
		if err := a.Console.Submit(ctx); err != nil {
			a.Console.Cancel()
			return out, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, applied{Record: written(a, v, draft, created), Created: created})
	}
	return out, nil
}

// decodeDocuments accepts a single mapping or a sequence of mappings.
func decodeDocuments(data []byte) ([]map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		var doc map[string]any
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		return []map[string]any{doc}, nil
	case yaml.SequenceNode:
		var docs []map[string]any
		if err := root.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return docs, nil
	}
	return nil, errors.New("expected a record or a list of records")
}

// openDraft puts the console into Creating or Editing for doc and reports
// whether it creates.
func openDraft(a *app, v *registry.View, doc map[string]any) (bool, error) {
	if v.Singleton != nil {
		return false, a.Console.OpenEdit("")
	}
	if id := fmt.Sprint(doc["id"]); doc["id"] != nil && id != "" {
		err := a.Console.OpenEdit(id)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, console.ErrNoRecord) {
			return false, err
		}
	}
	if err := a.Console.OpenCreate(); err != nil {
		return false, err
	}
	return true, nil
}

// fillDraft merges doc over the draft's current values.
func fillDraft(v *registry.View, draft models.Record, doc map[string]any) error {
	blocks, hasBlocks := doc["blocks"]
	delete(doc, "blocks")
	delete(doc, "id")

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(draft); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	a, ok := draft.(*models.Article)
	if !ok {
		return nil
	}
	if v.Form != registry.FormStory {
		a.Content = richtext.Normalize(a.Content)
		return nil
	}

	var parsed []storyblocks.Block
	if hasBlocks {
		raw, err := json.Marshal(blocks)
		if err != nil {
			return fmt.Errorf("encode blocks: %w", err)
		}
		parsed = storyblocks.Parse(string(raw), nil)
	} else {
		parsed = storyblocks.Parse(a.Content, nil)
	}
	for i := range parsed {
		if parsed[i].Type == storyblocks.TypeText {
			parsed[i].Value = richtext.Normalize(parsed[i].Value)
		}
	}
	a.Content = storyblocks.Serialize(parsed)
	return nil
}

// written finds the stored record after a successful submit. The reload
// that follows a write brings in server-assigned ids.
func written(a *app, v *registry.View, draft models.Record, created bool) models.Record {
	if v.Singleton != nil {
		if rec := a.Console.Record(); rec != nil {
			return rec
		}
		return draft
	}
	items := a.Console.Items()
	if !created {
		for _, rec := range items {
			if rec.RecordID() == draft.RecordID() {
				return rec
			}
		}
		return draft
	}
	// New records are matched by label, newest last.
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Label() == draft.Label() {
			return items[i]
		}
	}
	return draft
}
