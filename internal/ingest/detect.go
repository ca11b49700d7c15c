package ingest

import (
	"path/filepath"
	"strings"

	"github.com/tallyhq/tally/internal/table"
)

// Container is the outer file type, inferred from the filename extension.
type Container string

// Supported containers.
const (
	ContainerDelimited   Container = "delimited"
	ContainerSpreadsheet Container = "spreadsheet"
)

var containerByExt = map[string]Container{
	".csv":  ContainerDelimited,
	".xlsx": ContainerSpreadsheet,
	".xlsm": ContainerSpreadsheet,
	".xls":  ContainerSpreadsheet,
}

// ContainerFor infers the container from filename's extension.
func ContainerFor(filename string) (Container, bool) {
	c, ok := containerByExt[strings.ToLower(filepath.Ext(filename))]
	return c, ok
}

// Detection records how an input was classified.
type Detection struct {
	Container Container
	Encrypted bool
	HeaderRow int
	Format    Format
}

// headerScanRows bounds the search for a spreadsheet header row.
const headerScanRows = 15

// headerMarkers are the Korean date, type and merchant field names that
// identify the header row of a TravelWallet sheet.
var headerMarkers = []string{"날짜", "종류", "가맹점"}

// HeaderRow returns the index of the first of the top rows containing a
// header marker in any cell. When no row matches it returns 0, false and
// the top row is treated as the header.
func HeaderRow(grid [][]string) (int, bool) {
	for i := 0; i < len(grid) && i < headerScanRows; i++ {
		for _, cell := range grid[i] {
			c := table.CleanHeader(cell)
			for _, m := range headerMarkers {
				if strings.Contains(c, m) {
					return i, true
				}
			}
		}
	}
	return 0, false
}
