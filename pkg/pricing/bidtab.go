package pricing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// SamplePayItem is the pay item used when none is given on the command line.
const SamplePayItem = "205-12616"

// ErrMissingColumns is returned when an export lacks contract or item columns.
var ErrMissingColumns = errors.New("bid tab export must include contract and item columns")

// Record is one bid line from a BidTabs export.
type Record struct {
	Contract    string
	ItemNumber  string
	Description string
	Quantity    float64
	UnitPrice   float64
	LettingDate string
	District    string
	Route       string
}

// columns holds the detected position of each known column, -1 when absent.
type columns struct {
	contract, item, description, quantity, unitPrice, letting, district, route int
}

// detectColumns matches headers by case-insensitive substring. The first
// header containing "contract" wins, and so on for each field.
func detectColumns(header []string) (columns, error) {
	c := columns{-1, -1, -1, -1, -1, -1, -1, -1}
	find := func(want string) int {
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), want) {
				return i
			}
		}
		return -1
	}
	c.contract = find("contract")
	c.item = find("item")
	c.description = find("description")
	c.quantity = find("quantity")
	c.unitPrice = find("unit price")
	if c.unitPrice < 0 {
		c.unitPrice = find("unitprice")
	}
	c.letting = find("letting")
	c.district = find("district")
	c.route = find("route")

	if c.contract < 0 || c.item < 0 {
		return c, ErrMissingColumns
	}
	return c, nil
}

// ReadCSV parses a BidTabs CSV export. Rows without a contract or item number
// are skipped.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingColumns
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := detectColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := Record{
			Contract:    field(row, cols.contract),
			ItemNumber:  field(row, cols.item),
			Description: field(row, cols.description),
			LettingDate: normalizeDate(field(row, cols.letting)),
			District:    field(row, cols.district),
			Route:       field(row, cols.route),
		}
		if rec.Contract == "" || rec.ItemNumber == "" {
			continue
		}
		if rec.Quantity, err = number(field(row, cols.quantity)); err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", line, err)
		}
		if rec.UnitPrice, err = number(field(row, cols.unitPrice)); err != nil {
			return nil, fmt.Errorf("line %d: unit price: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCSVFile parses the BidTabs CSV export at path.
func ReadCSVFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bid tab export: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a numeric cell, tolerating currency symbols and thousands
// separators. Empty cells are zero.
func number(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"}

// normalizeDate rewrites recognised dates as YYYY-MM-DD so they sort
// lexically. Unrecognised values are kept as given.
func normalizeDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
