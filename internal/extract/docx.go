package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

type docxExtractor struct{}

func init() {
	Register("application/vnd.openxmlformats-officedocument.wordprocessingml.document", docxExtractor{})
}

func (docxExtractor) Extract(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty docx")
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(block.String())
			sb.WriteString("\n\n")
		case *docx.Table:
			sb.WriteString(block.String())
			sb.WriteString("\n\n")
		}
	}
	// docx carries no page geometry, so the whole body counts as page 1
	return &Result{Pages: []Page{{Number: 1, Text: sb.String()}}}, nil
}
