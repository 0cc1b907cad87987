package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/propdesk/propdesk/internal/extract"
)

// Piece is one chunk of extracted text before embedding.
type Piece struct {
	Seq  int
	Page int
	Text string
}

// Chunker cuts extracted text into fixed-size overlapping windows. Inside
// the tail of each window it prefers a paragraph break, then a sentence
// end, so chunks tend to close on a semantic boundary; when the window
// holds neither it cuts hard at the size limit. Output is deterministic
// for a fixed window/overlap pair.
type Chunker struct {
	window  int
	overlap int
}

func NewChunker(window, overlap int) *Chunker {
	if window <= 0 {
		window = 3000
	}
	if overlap < 0 || overlap >= window {
		overlap = window / 10
	}
	return &Chunker{window: window, overlap: overlap}
}

// boundaryZone is the fraction of the window, counted from its end, in
// which a boundary is allowed to shorten the chunk.
const boundaryZone = 0.15

func (c *Chunker) Chunk(res *extract.Result) []Piece {
	text, pageStarts, pageNums := flatten(res)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var pieces []Piece
	seq := 0
	start := 0
	for start < len(text) {
		end := start + c.window
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.cutPoint(text, start, end)
		}
		piece := text[start:end]
		if strings.TrimSpace(piece) != "" {
			pieces = append(pieces, Piece{
				Seq:  seq,
				Page: pageAt(pageStarts, pageNums, start),
				Text: piece,
			})
			seq++
		}
		if end >= len(text) {
			break
		}
		next := end - c.overlap
		for next > 0 && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

// cutPoint picks the end of a window: the last paragraph break inside the
// boundary zone, else the last sentence end, else the hard limit adjusted
// to a rune boundary.
func (c *Chunker) cutPoint(text string, start, hardEnd int) int {
	zoneStart := hardEnd - int(float64(c.window)*boundaryZone)
	if zoneStart < start {
		zoneStart = start
	}
	zone := text[zoneStart:hardEnd]
	if idx := strings.LastIndex(zone, "\n\n"); idx >= 0 {
		return zoneStart + idx + 2
	}
	for _, marker := range []string{". ", ".\n", "。", "\n"} {
		if idx := strings.LastIndex(zone, marker); idx >= 0 {
			return zoneStart + idx + len(marker)
		}
	}
	end := hardEnd
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// flatten joins pages into one string and records the byte offset where
// each page begins for later attribution.
func flatten(res *extract.Result) (string, []int, []int) {
	var sb strings.Builder
	var starts []int
	var nums []int
	for _, page := range res.Pages {
		trimmed := strings.TrimSpace(page.Text)
		if trimmed == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		starts = append(starts, sb.Len())
		nums = append(nums, page.Number)
		sb.WriteString(trimmed)
	}
	return sb.String(), starts, nums
}

func pageAt(starts, nums []int, offset int) int {
	page := 1
	for i, s := range starts {
		if offset >= s {
			page = nums[i]
		}
	}
	return page
}
