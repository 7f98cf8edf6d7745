package emision

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// BatchRecord is one parsed row of an emission CSV before it reaches the
// staging table.
type BatchRecord struct {
	Cuenta         string
	OrdenImpresion int
	Extras         map[string]string
	Line           int
}

// ReadCSV reads and parses CSV content, returning the data as a slice of
// string slices. Each inner slice represents a row.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return records, nil
}

// ParseBatchCSV validates the structure of an emission CSV and returns its
// rows. The header must contain cuenta and orden_impresion; any other column
// is carried along as extra data. A duplicated orden_impresion within the
// batch is rejected because it would make the print sequence ambiguous.
func ParseBatchCSV(records [][]string) ([]BatchRecord, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV is empty or contains no data rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.ToLower(h))
	}

	cuentaIdx, ordenIdx := -1, -1
	for i, h := range headers {
		switch h {
		case "cuenta":
			cuentaIdx = i
		case "orden_impresion":
			ordenIdx = i
		}
	}
	if cuentaIdx == -1 {
		return nil, fmt.Errorf("required column not found: cuenta")
	}
	if ordenIdx == -1 {
		return nil, fmt.Errorf("required column not found: orden_impresion")
	}

	seenOrden := make(map[int]int)
	out := make([]BatchRecord, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		row := records[i]
		if cuentaIdx >= len(row) || ordenIdx >= len(row) {
			return nil, fmt.Errorf("line %d: missing required values", i+1)
		}

		cuenta := strings.TrimSpace(row[cuentaIdx])
		if cuenta == "" {
			return nil, fmt.Errorf("line %d: cuenta is empty", i+1)
		}

		orden, err := strconv.Atoi(strings.TrimSpace(row[ordenIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid orden_impresion %q", i+1, row[ordenIdx])
		}

		if prev, dup := seenOrden[orden]; dup {
			return nil, fmt.Errorf("line %d: orden_impresion %d already used on line %d", i+1, orden, prev)
		}
		seenOrden[orden] = i + 1

		extras := make(map[string]string)
		for j, h := range headers {
			if j == cuentaIdx || j == ordenIdx || j >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[j]); v != "" {
				extras[h] = v
			}
		}

		out = append(out, BatchRecord{
			Cuenta:         cuenta,
			OrdenImpresion: orden,
			Extras:         extras,
			Line:           i + 1,
		})
	}

	return out, nil
}

// SortByPrintOrder orders records by ascending orden_impresion. Within one
// session this defines the render sequence.
func SortByPrintOrder(records []BatchRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].OrdenImpresion < records[j].OrdenImpresion
	})
}
