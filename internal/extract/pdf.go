package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

func init() {
	Register("application/pdf", pdfExtractor{})
}

func (pdfExtractor) Extract(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	result := &Result{}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		result.Pages = append(result.Pages, Page{Number: i, Text: text})
	}
	return result, nil
}
