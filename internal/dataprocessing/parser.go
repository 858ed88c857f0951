package dataprocessing

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads an exported registration report workbook and returns
// its raw positional rows, header row excluded.
func ParseWorkbook(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var sheetFound bool
	var sheetName string

	// The export tool has renamed the data sheet across versions.
	possibleNames := []string{"Registrations", "Report", "Sheet1"}

	for _, name := range possibleNames {
		if testRows, testErr := f.GetRows(name); testErr == nil && len(testRows) > 0 {
			rows = testRows
			sheetFound = true
			sheetName = name
			break
		}
	}

	// Fall back to any sheet that looks like registration data.
	if !sheetFound {
		for _, name := range f.GetSheetList() {
			testRows, testErr := f.GetRows(name)
			if testErr != nil || len(testRows) == 0 {
				continue
			}
			limit := len(testRows)
			if limit > 3 {
				limit = 3
			}
			for _, row := range testRows[:limit] {
				if looksLikeHeader(row) {
					rows = testRows
					sheetFound = true
					sheetName = name
					break
				}
			}
			if sheetFound {
				break
			}
		}
	}

	if !sheetFound {
		return nil, fmt.Errorf("could not find registration data sheet in file")
	}

	slog.Info("found registration data",
		slog.String("sheet_name", sheetName),
		slog.Int("total_rows", len(rows)))

	return stripHeader(rows), nil
}

// ParseCSV reads a comma-separated report export. Rows may have ragged
// widths; the schema check downstream handles short rows.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report csv: %w", err)
	}
	return stripHeader(rows), nil
}

// ParseDelimited reads tab-separated report text, one row per line, as
// produced by the browser session's table extraction.
func ParseDelimited(r io.Reader) ([][]string, error) {
	var rows [][]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report text: %w", err)
	}
	return stripHeader(rows), nil
}

// looksLikeHeader recognizes the report's header row by its column titles.
func looksLikeHeader(row []string) bool {
	text := strings.ToLower(strings.Join(row, " "))
	return strings.Contains(text, "transaction") &&
		(strings.Contains(text, "ticket") || strings.Contains(text, "booking"))
}

// stripHeader drops a leading header row when present.
func stripHeader(rows [][]string) [][]string {
	if len(rows) > 0 && looksLikeHeader(rows[0]) {
		return rows[1:]
	}
	return rows
}
