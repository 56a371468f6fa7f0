package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDelimited renders a CSV or TSV file as plain text, one record per
// line with fields joined by tabs. Ragged rows are tolerated.
func extractDelimited(data []byte, comma rune) (string, error) {
	decoded, err := decodeText(data)
	if err != nil {
		return "", err
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var buf bytes.Buffer
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse delimited file: %w", err)
		}
		buf.WriteString(strings.Join(record, "\t"))
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}
