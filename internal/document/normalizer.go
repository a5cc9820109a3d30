package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var pdfSignature = []byte("%PDF-")

// zip container, which covers .xlsx and .xlsm workbooks
var zipSignature = []byte("PK\x03\x04")

// OLE compound document, the container of legacy .xls workbooks
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Normalize decodes a PDF, Excel, or CSV file into an addressable token
// sequence. The format is inferred from the file extension first and the
// content signature second.
func Normalize(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	kind, ok := detectKind(path, data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	var tokens []Token
	switch kind {
	case KindPDF:
		tokens, err = normalizePDF(data)
	case KindExcel:
		tokens, err = normalizeExcel(data)
	case KindCSV:
		tokens, err = normalizeCSV(data)
	}
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", ErrCorruptDocument, filepath.Base(path))
	}

	return &Document{Source: path, Kind: kind, Tokens: tokens}, nil
}

func detectKind(path string, data []byte) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, true
	case ".xlsx", ".xls", ".xlsm":
		return KindExcel, true
	case ".csv":
		return KindCSV, true
	}
	switch {
	case bytes.HasPrefix(data, pdfSignature):
		return KindPDF, true
	case bytes.HasPrefix(data, zipSignature):
		return KindExcel, true
	case bytes.HasPrefix(data, oleSignature):
		return KindExcel, true
	}
	return "", false
}
