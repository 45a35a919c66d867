package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/richtext"
	"github.com/mitaan/mitaan/internal/storyblocks"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:     "blocks",
	Short:   "Inspect and edit the blocks of a story",
	GroupID: "content",
}

var blocksListCmd = &cobra.Command{
	Use:     "list <story-id>",
	Aliases: []string{"ls"},
	Short:   "List a story's blocks in order",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		rec, err := findRecord(ctx, a, string(registry.ViewStories), args[0])
		if err != nil {
			return failure(a, err)
		}
		blocks := storyblocks.Parse(rec.(*models.Article).Content, nil)
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(blocks)
		}
		printBlocks(blocks)
		return nil
	},
}

var blocksAddCmd = &cobra.Command{
	Use:   "add <story-id>",
	Short: "Append a text or image block",
	Long: `Append a block to a story. Use --text for a text block (markdown is
accepted), --image for an image URL or --upload to upload a file into a new
image block.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		image, _ := cmd.Flags().GetString("image")
		file, _ := cmd.Flags().GetString("upload")
		set := 0
		for _, s := range []string{text, image, file} {
			if s != "" {
				set++
			}
		}
		if set != 1 {
			return errors.New("pass exactly one of --text, --image or --upload")
		}

		a, err := openApp(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		if file != "" {
			res := uploadFiles(ctx, a, []string{file})[0]
			if res.Err != nil {
				output.Error("%s: %v", file, res.Err)
				return res.Err
			}
			image = res.URL
		}

		var added string
		err = editStory(ctx, a, args[0], func(e *storyblocks.Editor) error {
			if text != "" {
				added = e.AppendText()
				return e.Update(added, richtext.Normalize(text))
			}
			added = e.AppendImage()
			return e.Update(added, strings.TrimSpace(image))
		})
		if err != nil {
			return failure(a, err)
		}
		output.Success("Added block %s", added)
		return nil
	},
}

var blocksRemoveCmd = &cobra.Command{
	Use:     "rm <story-id> <block-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a block",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBlockEdit(cmd, args[0], func(e *storyblocks.Editor) error {
			return e.Remove(args[1])
		})
	},
}

var blocksMoveCmd = &cobra.Command{
	Use:       "move <story-id> <block-id> <up|down>",
	Short:     "Move a block one position",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBlockEdit(cmd, args[0], func(e *storyblocks.Editor) error {
			return moveBlock(e, args[1], args[2])
		})
	},
}

func init() {
	blocksCmd.AddCommand(blocksListCmd)
	blocksCmd.AddCommand(blocksAddCmd)
	blocksCmd.AddCommand(blocksRemoveCmd)
	blocksCmd.AddCommand(blocksMoveCmd)
	rootCmd.AddCommand(blocksCmd)

	blocksListCmd.Flags().Bool("json", false, "output blocks as JSON")
	blocksAddCmd.Flags().String("text", "", "text block content (markdown or HTML)")
	blocksAddCmd.Flags().String("image", "", "image block URL")
	blocksAddCmd.Flags().String("upload", "", "file to upload into a new image block")
}

func runBlockEdit(cmd *cobra.Command, storyID string, fn func(e *storyblocks.Editor) error) error {
	a, err := openApp(cmd)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	if err := editStory(ctx, a, storyID, fn); err != nil {
		return failure(a, err)
	}
	output.Success("Story %s saved", storyID)
	return nil
}

// errNoChange reports a block edit that left the story as it was.
var errNoChange = errors.New("nothing to change")

// editStory opens the story for editing, applies fn to its blocks and
// saves the result through the console.
func editStory(ctx context.Context, a *app, id string, fn func(e *storyblocks.Editor) error) error {
	if _, err := selectView(a, string(registry.ViewStories)); err != nil {
		return err
	}
	if err := a.Console.Reload(ctx); err != nil {
		return err
	}
	if err := a.Console.OpenEdit(id); err != nil {
		return fmt.Errorf("story %q: %w", id, err)
	}
	story := a.Console.Draft().(*models.Article)
	e := storyblocks.NewEditor(story.Content, nil, func(content string) {
		story.Content = content
	})
	if err := fn(e); err != nil {
		a.Console.Cancel()
		return err
	}
	return a.Console.Submit(ctx)
}

func moveBlock(e *storyblocks.Editor, id, dir string) error {
	idx := -1
	for i, b := range e.Blocks() {
		if b.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return storyblocks.ErrBlockNotFound
	}
	var moved bool
	switch dir {
	case "up":
		moved = e.MoveUp(idx)
	case "down":
		moved = e.MoveDown(idx)
	default:
		return fmt.Errorf("direction %q must be up or down", dir)
	}
	if !moved {
		return fmt.Errorf("block is already at the %s: %w", map[string]string{"up": "top", "down": "bottom"}[dir], errNoChange)
	}
	return nil
}

func printBlocks(blocks []storyblocks.Block) {
	width := output.TerminalWidth(100)
	for i, b := range blocks {
		value := b.Value
		if b.Type == storyblocks.TypeText {
			value = strings.ReplaceAll(richtext.PlainText(value), "\n", " ")
		}
		if value == "" {
			value = "(empty)"
		}
		line := fmt.Sprintf("%2d. %-5s %s  %s", i+1, b.Type, b.ID, value)
		fmt.Fprintln(output.Stdout, ansi.Truncate(line, width, "…"))
	}
}
