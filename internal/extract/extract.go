package extract

import (
	"fmt"
	"strings"
	"sync"

	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
)

// Page is one page (or sheet) of extracted plain text.
type Page struct {
	Number int
	Text   string
}

// Result is the format-independent output of an extractor.
type Result struct {
	Pages []Page
}

// Text joins all pages into one string, page breaks collapsed to newlines.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Extractor turns raw uploaded bytes of one format into plain text.
type Extractor interface {
	Extract(data []byte) (*Result, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
)

func Register(mimeType string, e Extractor) {
	key := normalizeMime(mimeType)
	if key == "" || e == nil {
		return
	}
	registryMu.Lock()
	registry[key] = e
	registryMu.Unlock()
}

// ForMime returns the extractor registered for the given mime type, or
// ErrUnsupportedFormat. Parameters like "; charset=utf-8" are ignored.
func ForMime(mimeType string) (Extractor, error) {
	key := normalizeMime(mimeType)
	registryMu.RLock()
	e := registry[key]
	registryMu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, mimeType)
	}
	return e, nil
}

// Supported reports whether the mime type has a registered extractor.
func Supported(mimeType string) bool {
	_, err := ForMime(mimeType)
	return err == nil
}

func normalizeMime(mimeType string) string {
	key := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(key, ";"); idx >= 0 {
		key = strings.TrimSpace(key[:idx])
	}
	return key
}
