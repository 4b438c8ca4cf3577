package workflows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

var requiredColumns = []string{"name", "address", "latitude", "longitude"}

// ParsedFile is the outcome of reading an import file.
type ParsedFile struct {
	Rows      []domain.Restaurant
	Malformed int // lines that could not be turned into a restaurant
}

// ParseCSV reads restaurants from r. The first line is a header naming the
// columns name, address, latitude, longitude and optionally rating,
// price_lower, price_upper, in any order. Rows with unparsable numbers are
// counted as malformed and skipped; record-level validation happens later.
func ParseCSV(r io.Reader) (ParsedFile, error) {
	var out ParsedFile

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return out, errors.New("import file is empty")
		}
		return out, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return out, fmt.Errorf("missing required column %q", c)
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			out.Malformed++
			continue
		}
		row, err := parseRow(record, cols)
		if err != nil {
			out.Malformed++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func parseRow(record []string, cols map[string]int) (domain.Restaurant, error) {
	r := domain.Restaurant{
		Name:    getField(record, cols, "name"),
		Address: getField(record, cols, "address"),
	}

	var err error
	if r.Location.Lat, err = parseFloat(record, cols, "latitude", true); err != nil {
		return r, err
	}
	if r.Location.Lon, err = parseFloat(record, cols, "longitude", true); err != nil {
		return r, err
	}
	if r.Rating, err = parseFloat(record, cols, "rating", false); err != nil {
		return r, err
	}

	lower := getField(record, cols, "price_lower")
	upper := getField(record, cols, "price_upper")
	switch {
	case lower == "" && upper == "":
	case lower == "" || upper == "":
		return r, errors.New("price range needs both bounds")
	default:
		var pr domain.PriceRange
		if pr.Lower, err = strconv.ParseFloat(lower, 64); err != nil {
			return r, err
		}
		if pr.Upper, err = strconv.ParseFloat(upper, 64); err != nil {
			return r, err
		}
		r.PriceRange = &pr
	}
	return r, nil
}

func parseFloat(record []string, cols map[string]int, name string, required bool) (float64, error) {
	v := getField(record, cols, name)
	if v == "" {
		if required {
			return 0, fmt.Errorf("%s is empty", name)
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not a finite number", name)
	}
	return f, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return cols
}

func getField(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
