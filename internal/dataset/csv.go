// Package dataset loads company records from Companies House CSV extracts.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/harborline/resolve-cli/internal/model"
)

// Column names as they appear in Companies House basic data extracts. Some
// extracts pad header cells with spaces, so headers are trimmed on read.
const (
	colName     = "CompanyName"
	colNumber   = "CompanyNumber"
	colPostcode = "RegAddress.PostCode"
	colSource   = "source_url"
)

var sicColumns = []string{
	"SICCode.SicText_1",
	"SICCode.SicText_2",
	"SICCode.SicText_3",
	"SICCode.SicText_4",
}

// Source yields company records one at a time. Next returns io.EOF when the
// input is exhausted.
type Source interface {
	Next() (model.CompanyRecord, error)
}

type csvSource struct {
	r       *csv.Reader
	columns map[string]int
	closer  io.Closer
}

// NewSource reads Companies House CSV rows from r. The first row must be a
// header containing at least the company name and number columns.
func NewSource(r io.Reader) (Source, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colName, colNumber} {
		if _, ok := columns[required]; !ok {
			return nil, eris.Errorf("dataset: missing required column %q", required)
		}
	}

	return &csvSource{r: cr, columns: columns}, nil
}

// OpenFile opens a CSV file as a Source. The file is closed when the source
// reaches EOF or errors.
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open file")
	}
	src, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.(*csvSource).closer = f
	return src, nil
}

func (s *csvSource) Next() (model.CompanyRecord, error) {
	row, err := s.r.Read()
	if err != nil {
		if s.closer != nil {
			s.closer.Close()
			s.closer = nil
		}
		if err == io.EOF {
			return model.CompanyRecord{}, io.EOF
		}
		return model.CompanyRecord{}, eris.Wrap(err, "dataset: read row")
	}

	record := model.CompanyRecord{
		Name:               s.field(row, colName),
		RegistrationNumber: s.field(row, colNumber),
		Postcode:           s.field(row, colPostcode),
		GroundTruthURL:     s.field(row, colSource),
	}
	for _, col := range sicColumns {
		if sic := s.field(row, col); sic != "" && sic != "None Supplied" {
			record.SICCodes = append(record.SICCodes, sic)
		}
	}
	return record, nil
}

func (s *csvSource) field(row []string, column string) string {
	i, ok := s.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
