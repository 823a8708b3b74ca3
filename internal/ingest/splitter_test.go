package ingest

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(500, 50)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t  ", 0},
		{"fits in one chunk", "A short CV section.", 1},
		{"exactly chunk size", strings.Repeat("a", 500), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Split(tt.text)
			if len(got) != tt.want {
				t.Errorf("Split() returned %d chunks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Worked on embedded systems and signal processing. ")
	}

	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d chars, exceeds chunk size 100", i, len(c))
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(60, 0)

	text := "First paragraph about education.\n\nSecond paragraph about work experience."
	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("Split() returned %d chunks, want 2: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "First paragraph") {
		t.Errorf("chunk 0 = %q, want first paragraph", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "Second paragraph") {
		t.Errorf("chunk 1 = %q, want second paragraph", chunks[1])
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := NewSplitter(80, 30)

	text := "Alpha sentence one here. Beta sentence two here. Gamma sentence three here. Delta sentence four here."
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want at least 2", len(chunks))
	}

	// Each later chunk must start with text seen at the end of the
	// previous chunk.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 20 {
			head = head[:20]
		}
		if !strings.Contains(chunks[i-1], strings.Fields(head)[0]) {
			t.Errorf("chunk %d does not overlap with chunk %d: %q / %q", i, i-1, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(50, 0)

	text := strings.Repeat("x", 175)
	chunks := s.Split(text)

	if len(chunks) != 4 {
		t.Fatalf("Split() returned %d chunks, want 4", len(chunks))
	}
	for i, c := range chunks[:3] {
		if len(c) != 50 {
			t.Errorf("chunk %d has %d chars, want 50", i, len(c))
		}
	}
	if len(chunks[3]) != 25 {
		t.Errorf("last chunk has %d chars, want 25", len(chunks[3]))
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"valid", 500, 50, 500, 50},
		{"zero size", 0, 50, DefaultChunkSize, 50},
		{"negative overlap", 500, -1, 500, DefaultChunkOverlap},
		{"overlap exceeds size", 100, 200, 100, DefaultChunkOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(tt.size, tt.overlap)
			if s.chunkSize != tt.wantSize {
				t.Errorf("chunkSize = %d, want %d", s.chunkSize, tt.wantSize)
			}
			if s.overlap != tt.wantOverlap {
				t.Errorf("overlap = %d, want %d", s.overlap, tt.wantOverlap)
			}
		})
	}
}
