package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxExtractor struct{}

type csvExtractor struct{}

func init() {
	Register("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsxExtractor{})
	Register("text/csv", csvExtractor{})
}

func (xlsxExtractor) Extract(data []byte) (*Result, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()
	result := &Result{}
	for idx, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		var sb strings.Builder
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		result.Pages = append(result.Pages, Page{Number: idx + 1, Text: sb.String()})
	}
	return result, nil
}

func (csvExtractor) Extract(data []byte) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(strings.Join(record, "\t"))
		sb.WriteString("\n")
	}
	return &Result{Pages: []Page{{Number: 1, Text: sb.String()}}}, nil
}
