package model

const (
	DocumentStatusPending = "pending"
	DocumentStatusSuccess = "success"
	DocumentStatusError   = "error"
)

// Document tracks one uploaded file through the ingestion pipeline.
// Status is terminal once success or error is reached; re-ingesting the
// same bytes always creates a new Document.
type Document struct {
	ID         string   `json:"id"`
	MimeType   string   `json:"mime_type"`
	RawSize    int64    `json:"raw_size"`
	FileKey    string   `json:"file_key"`
	Status     string   `json:"status"`
	Diagnostic string   `json:"diagnostic,omitempty"`
	Entities   []Entity `json:"entities,omitempty"`
	Confidence float64  `json:"confidence"`
	Ctime      int64    `json:"ctime"`
}

// Entity is one structured inventory field recognized in the extracted
// text, e.g. a price or an area figure.
type Entity struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}
