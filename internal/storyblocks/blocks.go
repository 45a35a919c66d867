// Package storyblocks edits story bodies stored as an ordered list of text
// and image blocks serialized into a single JSON string.
package storyblocks

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// BlockType distinguishes rich-text blocks from image blocks.
type BlockType string

const (
	TypeText  BlockType = "text"
	TypeImage BlockType = "image"
)

// Block is one unit of a story body. For text blocks Value is HTML, for
// image blocks it is a URL (possibly empty until uploaded).
type Block struct {
	ID    string    `json:"id"`
	Type  BlockType `json:"type"`
	Value string    `json:"value"`
}

// ErrLastBlock is returned when removing the only remaining block.
var ErrLastBlock = errors.New("cannot remove the last block")

// ErrBlockNotFound is returned when an operation names an unknown block id.
var ErrBlockNotFound = errors.New("block not found")

// IDFunc produces block ids. Ids must be unique for the editing session.
type IDFunc func() string

// NewID returns a random block id.
func NewID() string {
	return uuid.NewString()
}

// Parse decodes stored content into blocks. Empty content and an empty
// array yield a single empty text block. Content that is not a JSON array
// of blocks is treated as legacy text and kept verbatim in one text block.
// Blocks with a missing or repeated id are given a fresh one.
func Parse(content string, newID IDFunc) []Block {
	if newID == nil {
		newID = NewID
	}
	if strings.TrimSpace(content) == "" {
		return []Block{{ID: newID(), Type: TypeText}}
	}

	var blocks []Block
	if err := json.Unmarshal([]byte(content), &blocks); err != nil {
		return []Block{{ID: newID(), Type: TypeText, Value: content}}
	}
	if len(blocks) == 0 {
		return []Block{{ID: newID(), Type: TypeText}}
	}

	seen := make(map[string]bool, len(blocks))
	for i := range blocks {
		if blocks[i].Type != TypeImage {
			blocks[i].Type = TypeText
		}
		if blocks[i].ID == "" || seen[blocks[i].ID] {
			blocks[i].ID = newID()
		}
		seen[blocks[i].ID] = true
	}
	return blocks
}

// Serialize encodes blocks as a JSON array.
func Serialize(blocks []Block) string {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		// Block contains only strings; Marshal cannot fail.
		return "[]"
	}
	return string(data)
}
