package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitDegenerateInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "  \n\t  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := New(Options{}).Split(tt.text); len(got) != 0 {
				t.Errorf("Split(%q) = %d chunks, want 0", tt.text, len(got))
			}
		})
	}
}

func TestPiecesCoverSourceText(t *testing.T) {
	t.Parallel()

	text := "# Career\n\nYour tenth house is strong this year. Major opportunities arrive in autumn! " +
		"Patience pays off; rash moves do not.\n\n" +
		"# Wealth\n\n今年财帛宫稳定。投资需谨慎！长期积累为上策。\n\n" +
		"Closing thoughts: balance matters in all things."

	pieces := New(Options{TargetSize: 80, Overlap: 20, MinSize: 10}).Pieces(text)
	if len(pieces) == 0 {
		t.Fatal("expected at least one piece")
	}

	// Spans must be contiguous and reproduce the original exactly; the
	// overlap duplication lives only in the stored Text, not the spans.
	var rebuilt strings.Builder
	runes := []rune(text)
	prevEnd := 0
	for i, p := range pieces {
		if p.Start != prevEnd {
			t.Errorf("piece %d starts at %d, want %d", i, p.Start, prevEnd)
		}
		rebuilt.WriteString(string(runes[p.Start:p.End]))
		prevEnd = p.End
	}
	if prevEnd != len(runes) {
		t.Errorf("last piece ends at %d, want %d", prevEnd, len(runes))
	}
	if rebuilt.String() != text {
		t.Error("concatenated spans do not reproduce the original text")
	}
}

func TestOverlapPrefix(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for range 20 {
		b.WriteString("The stars favor deliberate action this season. ")
	}

	s := New(Options{TargetSize: 200, Overlap: 40, MinSize: 50})
	pieces := s.Pieces(b.String())
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	runes := []rune(b.String())
	for i := 1; i < len(pieces); i++ {
		prev := runes[pieces[i-1].Start:pieces[i-1].End]
		want := string(prev[len(prev)-40:]) + " "
		if !strings.HasPrefix(pieces[i].Text, want) {
			t.Errorf("piece %d does not start with the previous chunk's 40-rune tail", i)
		}
	}
}

func TestZeroOverlapDisablesPrefix(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for range 20 {
		b.WriteString("The stars favor deliberate action this season. ")
	}

	s := New(Options{TargetSize: 200, Overlap: 0, MinSize: 50})
	pieces := s.Pieces(b.String())
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	runes := []rune(b.String())
	for i, p := range pieces {
		if p.Text != string(runes[p.Start:p.End]) {
			t.Errorf("piece %d carries a prefix despite zero overlap", i)
		}
	}
}

func TestNegativeOverlapSelectsDefault(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for range 20 {
		b.WriteString("The stars favor deliberate action this season. ")
	}

	s := New(Options{TargetSize: 200, Overlap: -1, MinSize: 50})
	pieces := s.Pieces(b.String())
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	runes := []rune(b.String())
	prev := runes[pieces[0].Start:pieces[0].End]
	want := string(prev[len(prev)-DefaultOverlap:]) + " "
	if !strings.HasPrefix(pieces[1].Text, want) {
		t.Errorf("piece 1 does not start with the previous chunk's %d-rune tail", DefaultOverlap)
	}
}

func TestMergeConcatenatesWithoutSeparator(t *testing.T) {
	t.Parallel()

	// First chunk (60 runes) falls below the minimum and is folded into the
	// next one. With overlap disabled the merged chunk must reproduce the
	// source exactly, with no inserted characters.
	text := strings.Repeat("甲", 59) + "。" + strings.Repeat("乙", 59) + "。" + strings.Repeat("丙", 19) + "。"

	chunks := New(Options{TargetSize: 100, Overlap: 0, MinSize: 70}).Split(text)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("merged chunk differs from source: %d runes, want %d",
			utf8.RuneCountInString(chunks[0]), utf8.RuneCountInString(text))
	}
}

func TestMinimumSize(t *testing.T) {
	t.Parallel()

	text := "Short one. " + strings.Repeat("A considerably longer sentence keeps the chunk healthy. ", 30) +
		"Tiny. End."

	chunks := New(Options{}).Split(text)
	for i, c := range chunks {
		if utf8.RuneCountInString(c) < DefaultMinSize && len(chunks) > 1 {
			t.Errorf("chunk %d has %d runes, below minimum %d", i, utf8.RuneCountInString(c), DefaultMinSize)
		}
	}
}

func TestCJKReportScenario(t *testing.T) {
	t.Parallel()

	// 1500 runes of CJK text with a terminator roughly every 80 runes.
	var b strings.Builder
	sentence := strings.Repeat("星", 79) + "。"
	for range 18 {
		b.WriteString(sentence)
	}
	b.WriteString(strings.Repeat("命", 59) + "。")
	text := b.String()
	if n := utf8.RuneCountInString(text); n != 1500 {
		t.Fatalf("fixture has %d runes, want 1500", n)
	}

	chunks := New(Options{TargetSize: 600, Overlap: 100, MinSize: 100}).Split(text)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		n := utf8.RuneCountInString(c)
		if n > 700 {
			t.Errorf("chunk %d has %d runes, want <= 700", i, n)
		}
		if n < 100 && i != len(chunks)-1 {
			t.Errorf("chunk %d has %d runes, below minimum", i, n)
		}
	}
}

func TestSingleOversizedSentenceKeptWhole(t *testing.T) {
	t.Parallel()

	// One sentence longer than the target is never split further.
	text := strings.Repeat("很", 1000) + "。"
	chunks := New(Options{TargetSize: 600, Overlap: 100, MinSize: 100}).Split(text)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) != 1001 {
		t.Errorf("chunk has %d runes, want 1001", utf8.RuneCountInString(chunks[0]))
	}
}

func TestOverlapLargerThanTarget(t *testing.T) {
	t.Parallel()

	// Overlap >= target produces chunks larger than the target before the
	// merge pass. Documented permissive behavior, not a bug to guard.
	var b strings.Builder
	for range 30 {
		b.WriteString(strings.Repeat("多", 99) + "。")
	}

	chunks := New(Options{TargetSize: 100, Overlap: 200, MinSize: 10}).Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	exceeded := false
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 100 {
			exceeded = true
			break
		}
	}
	if !exceeded {
		t.Error("expected at least one chunk to exceed the target size")
	}
}

func TestSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "markdown heading", text: "# Career Outlook\nGood times ahead.", want: "Career Outlook"},
		{name: "nested heading", text: "## 财运\n稳定。", want: "财运"},
		{name: "no heading", text: "Plain prose without structure.", want: ""},
		{name: "leading whitespace", text: "\n\n# Health\nRest well.", want: "Health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Section(tt.text); got != tt.want {
				t.Errorf("Section() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("three little words"); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("WordCount of empty = %d, want 0", got)
	}
}
