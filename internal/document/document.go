package document

import (
	"errors"
	"fmt"
)

// Kind identifies the decoded input format.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindExcel Kind = "excel"
	KindCSV   Kind = "csv"
)

// ErrUnsupportedFormat indicates the input file is not a PDF, Excel workbook, or CSV.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrCorruptDocument indicates the file matched a supported format but could
// not be decoded, e.g. a scanned-image PDF with no text layer. The condition
// is terminal for the file and is not retried.
var ErrCorruptDocument = errors.New("corrupt document")

// Location addresses a token within its source document. Page is 1-based for
// PDFs and always 1 for spreadsheets; Row and Column are 1-based cell or line
// coordinates.
type Location struct {
	Page   int
	Row    int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("p%d:r%d:c%d", l.Page, l.Row, l.Column)
}

// Token is one addressable unit of normalized document text.
type Token struct {
	Text     string
	Location Location
}

// Document is the normalized, immutable view of an input file. Normalizing the
// same bytes twice yields structurally identical Documents.
type Document struct {
	Source string
	Kind   Kind
	Tokens []Token
}

// Windows returns the scannable text views of the document in order: each
// token by itself, followed by the token joined with its right-hand neighbor
// on the same page and row. Spreadsheets commonly split a label and its value
// across adjacent cells; the joined window lets a single pattern span both.
// Each window carries the location of its leading token.
func (d *Document) Windows() []Token {
	out := make([]Token, 0, len(d.Tokens)*2)
	for i, tok := range d.Tokens {
		out = append(out, tok)
		if i+1 < len(d.Tokens) {
			next := d.Tokens[i+1]
			if next.Location.Page == tok.Location.Page && next.Location.Row == tok.Location.Row {
				out = append(out, Token{
					Text:     tok.Text + " " + next.Text,
					Location: tok.Location,
				})
			}
		}
	}
	return out
}

// Lines returns the token texts in document order.
func (d *Document) Lines() []string {
	out := make([]string, len(d.Tokens))
	for i, tok := range d.Tokens {
		out[i] = tok.Text
	}
	return out
}
