package table

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// encryptedMagic is the compound-file signature that wraps encrypted
// OOXML workbooks.
var encryptedMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}

// IsEncrypted reports whether data starts with the compound-file
// signature used by password-protected workbooks.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, encryptedMagic)
}

// ReadSpreadsheet returns every row of the first worksheet as raw cell
// values. Numbers come back unformatted (no thousands separators) and dates
// as serial numbers. password is only used for encrypted workbooks.
func ReadSpreadsheet(data []byte, password string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password})
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// encryptionInfoName is the UTF-16LE stream name present in every
// encrypted OOXML compound file.
var encryptionInfoName = utf16le("EncryptionInfo")

// IsLegacyWorkbook reports whether data is a compound file that is not an
// encrypted OOXML package, i.e. a pre-2007 binary workbook.
func IsLegacyWorkbook(data []byte) bool {
	return IsEncrypted(data) && !bytes.Contains(data, encryptionInfoName)
}

func utf16le(s string) []byte {
	out := make([]byte, 0, 2*len(s))
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}
