package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTooManyRows is returned when the CSV holds more data rows than allowed.
// Nothing is imported in that case.
var ErrTooManyRows = errors.New("csv has too many rows")

// ParseAsins reads ASINs from a CSV with an "ASIN" header column
// (case-insensitive). Other columns are ignored, blank values are skipped and
// duplicates are returned once, in first-seen order.
//
// maxRows limits how many data rows are accepted (excluding header); a longer
// file fails with ErrTooManyRows instead of being cut short.
func ParseAsins(r io.Reader, maxRows int) ([]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, err
	}

	asinIdx := -1
	for i, h := range headers {
		// Spreadsheet exports often prefix the first header with a BOM.
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(h, "asin") {
			asinIdx = i
			break
		}
	}
	if asinIdx == -1 {
		return nil, errors.New("csv must contain an ASIN column")
	}

	if maxRows <= 0 {
		maxRows = 10000
	}

	seen := make(map[string]struct{})
	asins := make([]string, 0)
	for read := 0; ; read++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if read == maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		if asinIdx >= len(record) {
			// skip malformed row
			continue
		}

		asin := strings.ToUpper(strings.TrimSpace(record[asinIdx]))
		if asin == "" {
			continue
		}
		if _, dup := seen[asin]; dup {
			continue
		}
		seen[asin] = struct{}{}
		asins = append(asins, asin)
	}

	if len(asins) == 0 {
		return nil, errors.New("csv must contain at least one ASIN")
	}

	return asins, nil
}
