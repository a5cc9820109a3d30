package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// normalizeExcel reads every populated cell of the first sheet into tokens
// addressed by row and column. Announcement workbooks carry their data on the
// first sheet; additional sheets hold notes and are ignored. Legacy .xls
// workbooks live in an OLE container rather than a zip, so the container
// signature picks the decoder; the extension alone is not trusted.
func normalizeExcel(data []byte) ([]Token, error) {
	if bytes.HasPrefix(data, oleSignature) {
		return normalizeLegacyExcel(data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrCorruptDocument, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrCorruptDocument)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrCorruptDocument, sheets[0], err)
	}

	var tokens []Token
	for r, row := range rows {
		for c, cell := range row {
			text := strings.TrimSpace(cell)
			if text == "" {
				continue
			}
			tokens = append(tokens, Token{
				Text:     text,
				Location: Location{Page: 1, Row: r + 1, Column: c + 1},
			})
		}
	}
	return tokens, nil
}

// normalizeLegacyExcel decodes a BIFF workbook (.xls) with the same token
// addressing as the xlsx path.
func normalizeLegacyExcel(data []byte) ([]Token, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrCorruptDocument, err)
	}

	if wb.GetNumberSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrCorruptDocument)
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet: %v", ErrCorruptDocument, err)
	}

	var tokens []Token
	for r := 0; r <= sheet.GetNumberRows(); r++ {
		row, err := sheet.GetRow(r)
		if err != nil {
			continue
		}
		for c, cell := range row.GetCols() {
			text := strings.TrimSpace(cell.GetString())
			if text == "" {
				continue
			}
			tokens = append(tokens, Token{
				Text:     text,
				Location: Location{Page: 1, Row: r + 1, Column: c + 1},
			})
		}
	}
	return tokens, nil
}
