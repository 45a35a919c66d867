package storyblocks

// Editor holds the working block list for one story and writes the
// serialized form back through OnChange after every mutation.
type Editor struct {
	blocks   []Block
	newID    IDFunc
	onChange func(content string)
}

// NewEditor parses content and returns an editor over it. onChange may be
// nil.
func NewEditor(content string, newID IDFunc, onChange func(string)) *Editor {
	if newID == nil {
		newID = NewID
	}
	return &Editor{
		blocks:   Parse(content, newID),
		newID:    newID,
		onChange: onChange,
	}
}

// Blocks returns a copy of the current block list.
func (e *Editor) Blocks() []Block {
	out := make([]Block, len(e.blocks))
	copy(out, e.blocks)
	return out
}

// Len returns the number of blocks.
func (e *Editor) Len() int {
	return len(e.blocks)
}

// Content returns the serialized block list.
func (e *Editor) Content() string {
	return Serialize(e.blocks)
}

// AppendText adds an empty text block at the end and returns its id.
func (e *Editor) AppendText() string {
	return e.append(TypeText)
}

// AppendImage adds an empty image block at the end and returns its id.
func (e *Editor) AppendImage() string {
	return e.append(TypeImage)
}

func (e *Editor) append(t BlockType) string {
	id := e.newID()
	e.blocks = append(e.blocks, Block{ID: id, Type: t})
	e.changed()
	return id
}

// Remove deletes the block with the given id. The relative order of the
// remaining blocks is preserved.
func (e *Editor) Remove(id string) error {
	idx := e.index(id)
	if idx < 0 {
		return ErrBlockNotFound
	}
	if len(e.blocks) == 1 {
		return ErrLastBlock
	}
	e.blocks = append(e.blocks[:idx], e.blocks[idx+1:]...)
	e.changed()
	return nil
}

// MoveUp swaps the block at index i with its predecessor. It reports
// whether anything moved; the first block and out-of-range indexes are
// no-ops.
func (e *Editor) MoveUp(i int) bool {
	if i <= 0 || i >= len(e.blocks) {
		return false
	}
	e.blocks[i-1], e.blocks[i] = e.blocks[i], e.blocks[i-1]
	e.changed()
	return true
}

// MoveDown swaps the block at index i with its successor. The last block
// and out-of-range indexes are no-ops.
func (e *Editor) MoveDown(i int) bool {
	if i < 0 || i >= len(e.blocks)-1 {
		return false
	}
	e.blocks[i], e.blocks[i+1] = e.blocks[i+1], e.blocks[i]
	e.changed()
	return true
}

// Update replaces the value of the block with the given id.
func (e *Editor) Update(id, value string) error {
	idx := e.index(id)
	if idx < 0 {
		return ErrBlockNotFound
	}
	e.blocks[idx].Value = value
	e.changed()
	return nil
}

// Reset re-parses content, discarding the current list. Used when the
// record under edit is replaced.
func (e *Editor) Reset(content string) {
	e.blocks = Parse(content, e.newID)
}

func (e *Editor) index(id string) int {
	for i, b := range e.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange(Serialize(e.blocks))
	}
}
