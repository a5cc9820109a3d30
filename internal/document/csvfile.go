package document

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// normalizeCSV reads every populated cell into tokens addressed by row and
// column. Ragged rows are tolerated; parse failures are terminal for the file.
func normalizeCSV(data []byte) ([]Token, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var tokens []Token
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %v", ErrCorruptDocument, err)
		}
		row++
		for c, cell := range record {
			text := strings.TrimSpace(cell)
			if text == "" {
				continue
			}
			tokens = append(tokens, Token{
				Text:     text,
				Location: Location{Page: 1, Row: row, Column: c + 1},
			})
		}
	}
	return tokens, nil
}
