package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type plainTextExtractor struct{}

type markdownExtractor struct{}

func init() {
	Register("text/plain", plainTextExtractor{})
	Register("text/markdown", markdownExtractor{})
}

func (plainTextExtractor) Extract(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text is not valid utf-8")
	}
	return &Result{Pages: []Page{{Number: 1, Text: string(data)}}}, nil
}

// markdownExtractor strips formatting so windows are cut over prose, not
// syntax. Block boundaries become blank lines, which the chunker prefers
// as split points.
func (markdownExtractor) Extract(data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("markdown is not valid utf-8")
	}
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if block := blockText(node, data); block != "" {
			sb.WriteString(block)
			sb.WriteString("\n\n")
		}
	}
	return &Result{Pages: []Page{{Number: 1, Text: sb.String()}}}, nil
}

func blockText(n ast.Node, source []byte) string {
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		var sb strings.Builder
		for i := 0; i < fenced.Lines().Len(); i++ {
			line := fenced.Lines().At(i)
			sb.Write(line.Value(source))
		}
		return strings.TrimSpace(sb.String())
	}
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteString(" ")
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
