package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadDelimited parses comma-separated text whose first row is the header.
// UTF-8 and UTF-16 byte order marks are honored; input that is not valid
// UTF-8 is decoded as EUC-KR, the default encoding of Korean bank exports.
func ReadDelimited(data []byte) (*Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decoding text: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("reading CSV: no header row")
	}
	return FromGrid(records, 0), nil
}

func decodeText(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, err
	}
	if utf8.Valid(out) {
		return out, nil
	}
	out, _, err = transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("input is neither UTF-8 nor EUC-KR: %w", err)
	}
	return out, nil
}
