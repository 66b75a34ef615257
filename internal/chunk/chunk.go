// Package chunk splits report text into overlapping retrieval units.
//
// The splitter works in rune units so CJK and Latin text are measured the
// same way. Processing order: paragraph-aware sentence splitting, greedy
// accumulation up to a target size, overlap injection, then a merge pass
// that removes undersized chunks.
package chunk

import (
	"strings"
)

// Default sizing values, in runes.
const (
	DefaultTargetSize = 600
	DefaultOverlap    = 100
	DefaultMinSize    = 100
)

// terminators end a sentence. CJK and Latin punctuation are both supported;
// the terminator stays attached to the preceding sentence.
const terminators = "。！？；：.!?;:"

// Options configures a Splitter. Zero TargetSize and MinSize fall back to
// the defaults; Overlap 0 disables the overlap and a negative value selects
// the default.
type Options struct {
	TargetSize int // Preferred chunk size in runes
	Overlap    int // Runes of the previous chunk prepended for continuity
	MinSize    int // Chunks below this size are merged away
}

// Piece is one produced chunk. Text is the stored content including the
// overlap region; Start and End are rune offsets of the piece's own span in
// the original text (the overlap is not part of the span).
type Piece struct {
	Text  string
	Start int
	End   int
}

// Splitter splits report text into chunks. It is stateless and safe for
// concurrent use.
type Splitter struct {
	target  int
	overlap int
	minSize int
}

// New creates a Splitter with the given options.
func New(opts Options) *Splitter {
	if opts.TargetSize <= 0 {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = DefaultOverlap
	}
	if opts.MinSize <= 0 {
		opts.MinSize = DefaultMinSize
	}
	return &Splitter{
		target:  opts.TargetSize,
		overlap: opts.Overlap,
		minSize: opts.MinSize,
	}
}

// Split returns the chunk texts for the given report text.
// Empty or whitespace-only input yields an empty list.
func (s *Splitter) Split(text string) []string {
	pieces := s.Pieces(text)
	if len(pieces) == 0 {
		return nil
	}
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.Text
	}
	return out
}

// Pieces returns the chunks with their spans in the original text.
// Spans are contiguous and cover every rune of the input, so concatenating
// the spans reproduces the original text exactly; only the injected overlap
// regions appear twice in the stored Text fields.
//
// Note: with Overlap >= TargetSize a stored chunk can grow well past the
// target before the merge pass runs. This mirrors the permissive sizing the
// pipeline has always had and is covered by a boundary test, not guarded.
func (s *Splitter) Pieces(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	sentences := sentenceSpans(runes)
	cores := s.accumulate(sentences)
	pieces := s.applyOverlap(runes, cores)
	return s.merge(pieces)
}

// sentenceSpans splits text into sentence spans. A span ends at a run of
// sentence terminators (kept attached) or at a paragraph boundary: a blank
// line or a following heading line. Spans are contiguous — separators stay
// attached to the preceding span so no input rune is dropped.
func sentenceSpans(r []rune) [][2]int {
	var spans [][2]int
	n := len(r)
	start := 0
	i := 0

	for i < n {
		if isTerminator(r[i]) {
			// Consume the full terminator run ("?!", "。。" etc.).
			for i+1 < n && isTerminator(r[i+1]) {
				i++
			}
			spans = appendSpan(spans, start, i+1)
			start = i + 1
			i++
			continue
		}

		if r[i] == '\n' {
			j := i
			newlines := 0
			for j < n && (r[j] == '\n' || r[j] == '\r' || r[j] == ' ' || r[j] == '\t') {
				if r[j] == '\n' {
					newlines++
				}
				j++
			}
			if newlines >= 2 || (j < n && r[j] == '#') {
				spans = appendSpan(spans, start, j)
				start = j
				i = j
				continue
			}
		}

		i++
	}

	return appendSpan(spans, start, n)
}

// accumulate greedily packs sentence spans into chunk cores. A sentence that
// would push the running chunk past the target closes it first; a single
// sentence longer than the target is kept whole rather than split.
func (s *Splitter) accumulate(sentences [][2]int) [][2]int {
	var cores [][2]int
	cur := [2]int{-1, -1}

	for _, sent := range sentences {
		if cur[0] < 0 {
			cur = sent
			continue
		}
		curLen := cur[1] - cur[0]
		sentLen := sent[1] - sent[0]
		if curLen > 0 && curLen+sentLen > s.target {
			cores = append(cores, cur)
			cur = sent
			continue
		}
		cur[1] = sent[1]
	}

	if cur[0] >= 0 {
		cores = append(cores, cur)
	}
	return cores
}

// applyOverlap builds the stored pieces, prepending the tail of the previous
// core to every chunk after the first, separated by a single space.
func (s *Splitter) applyOverlap(r []rune, cores [][2]int) []Piece {
	pieces := make([]Piece, 0, len(cores))
	for i, c := range cores {
		core := string(r[c[0]:c[1]])
		text := core
		if i > 0 {
			prev := r[cores[i-1][0]:cores[i-1][1]]
			o := min(s.overlap, len(prev))
			if o > 0 {
				text = string(prev[len(prev)-o:]) + " " + core
			}
		}
		pieces = append(pieces, Piece{Text: text, Start: c[0], End: c[1]})
	}
	return pieces
}

// merge folds undersized pieces into a neighbor until no piece other than a
// lone survivor is below the minimum size. Merging into the previous piece
// is preferred once that piece has reached minimum size itself.
func (s *Splitter) merge(pieces []Piece) []Piece {
	for len(pieces) > 1 {
		idx := -1
		for i, p := range pieces {
			if runeLen(p.Text) < s.minSize {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}

		switch {
		case idx > 0 && (runeLen(pieces[idx-1].Text) >= s.minSize || idx == len(pieces)-1):
			pieces[idx-1].Text = pieces[idx-1].Text + pieces[idx].Text
			pieces[idx-1].End = pieces[idx].End
			pieces = append(pieces[:idx], pieces[idx+1:]...)
		case idx < len(pieces)-1:
			pieces[idx+1].Text = pieces[idx].Text + pieces[idx+1].Text
			pieces[idx+1].Start = pieces[idx].Start
			pieces = append(pieces[:idx], pieces[idx+1:]...)
		default:
			pieces[idx-1].Text = pieces[idx-1].Text + pieces[idx].Text
			pieces[idx-1].End = pieces[idx].End
			pieces = append(pieces[:idx], pieces[idx+1:]...)
		}
	}
	return pieces
}

func appendSpan(spans [][2]int, start, end int) [][2]int {
	if end > start {
		spans = append(spans, [2]int{start, end})
	}
	return spans
}

func isTerminator(r rune) bool {
	return strings.ContainsRune(terminators, r)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// WordCount counts whitespace-separated words in a chunk. For CJK text
// without spaces this degrades to counting runs, which is acceptable for the
// stored metadata.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Section returns the heading label a chunk falls under, derived from a
// leading markdown heading line; empty when the chunk has none.
func Section(text string) string {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#") {
		return ""
	}
	line := trimmed
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}
