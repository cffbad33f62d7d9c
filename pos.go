package tiny

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Pos is a byte offset into a file's source buffer, paired with the
// identifier of the file it belongs to. It is intentionally small (two
// ints) so every AST node and token can carry one by value.
type Pos struct {
	File   int
	Offset int
}

// Location is the human-facing decoding of a Pos: 1-based line and
// column. It is computed lazily from a LineIndex, never stored on the
// hot path (tokens and AST nodes only carry Pos).
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// LineIndex converts byte offsets into a source buffer to 1-based
// line/column pairs by caching the start offset of every line.
//
// Grounded on the teacher's LineIndex (pos.go): construction is O(n)
// over the input, lookup is O(log lines) via binary search over
// cached line starts.
type LineIndex struct {
	source    []byte
	lineStart []int
}

func NewLineIndex(source []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range source {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{source: source, lineStart: lineStart}
}

func (li *LineIndex) LocationAt(offset int) Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.source) {
		offset = len(li.source)
	}
	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > offset
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	lineStart := li.lineStart[lineIdx]
	col := utf8.RuneCount(li.source[lineStart:offset]) + 1
	return Location{Line: lineIdx + 1, Column: col}
}

// LineText returns the full text of the 1-based line `n`, without its
// trailing newline. Used by diagnostic formatting to print the
// offending line with a caret under it.
func (li *LineIndex) LineText(n int) string {
	if n < 1 || n > len(li.lineStart) {
		return ""
	}
	start := li.lineStart[n-1]
	end := len(li.source)
	if n < len(li.lineStart) {
		end = li.lineStart[n] - 1
	}
	if end < start {
		end = start
	}
	return string(li.source[start:end])
}

// SourceFile bundles a file name with its buffer and index so
// diagnostics can be rendered without re-scanning the buffer for every
// error.
type SourceFile struct {
	ID    int
	Name  string
	Index *LineIndex
}

// SourceSet is the per-State registry of files that have been
// compiled into it; FILE debug opcodes reference into it by index, and
// diagnostics use it to print captioned source snippets.
type SourceSet struct {
	files []*SourceFile
}

func NewSourceSet() *SourceSet {
	return &SourceSet{}
}

func (s *SourceSet) Add(name string, source []byte) int {
	id := len(s.files)
	s.files = append(s.files, &SourceFile{ID: id, Name: name, Index: NewLineIndex(source)})
	return id
}

func (s *SourceSet) File(id int) *SourceFile {
	if id < 0 || id >= len(s.files) {
		return nil
	}
	return s.files[id]
}

// Caret renders a two-line "source line" + "caret" diagnostic snippet
// for a Pos, in the style of goodpaul6/Tiny's pos_error.cpp.
func (s *SourceSet) Caret(p Pos) string {
	f := s.File(p.File)
	if f == nil {
		return ""
	}
	loc := f.Index.LocationAt(p.Offset)
	line := f.Index.LineText(loc.Line)
	col := loc.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	return fmt.Sprintf("%s\n%s^", line, strings.Repeat(" ", col-1))
}

func (s *SourceSet) Location(p Pos) Location {
	f := s.File(p.File)
	if f == nil {
		return Location{}
	}
	return f.Index.LocationAt(p.Offset)
}

func (s *SourceSet) FileName(p Pos) string {
	f := s.File(p.File)
	if f == nil {
		return ""
	}
	return f.Name
}
