package chat

import (
	"regexp"
	"strconv"

	"github.com/propdesk/propdesk/internal/model"
)

// Citation maps one bracketed marker in the assistant's answer back to the
// chunk it was rendered from.
type Citation struct {
	Marker     int     `json:"marker"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float32 `json:"score"`
}

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// parseCitations resolves markers best-effort: out-of-range or duplicate
// markers are dropped rather than failing the turn.
func parseCitations(answer string, chunks []model.ScoredChunk) []Citation {
	if len(chunks) == 0 {
		return nil
	}
	seen := map[int]struct{}{}
	var citations []Citation
	for _, match := range citationMarker.FindAllStringSubmatch(answer, -1) {
		marker, err := strconv.Atoi(match[1])
		if err != nil || marker < 1 || marker > len(chunks) {
			continue
		}
		if _, dup := seen[marker]; dup {
			continue
		}
		seen[marker] = struct{}{}
		chunk := chunks[marker-1]
		citations = append(citations, Citation{
			Marker:     marker,
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Score:      chunk.Score,
		})
	}
	return citations
}
