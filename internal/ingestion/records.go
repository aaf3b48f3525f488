// Package ingestion reads the delimited grant-award export into typed rows.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grantlab/awardgraph/internal/pkg/errors"
)

// AwardRecord is one row of the source table. Fields mirror the export's
// column names; CoPINames keeps the raw comma-space separated list.
type AwardRecord struct {
	AwardNumber           string
	Title                 string
	StartDate             string
	EndDate               string
	AwardedAmountToDate   string
	Abstract              string
	Organization          string
	OrganizationState     string
	OrganizationCity      string
	PrincipalInvestigator string
	ProgramManager        string
	CoPINames             string
}

// AmountValue parses the awarded amount, tolerating currency symbols and
// thousands separators ("$1,234,567.00"). Unparseable values yield 0.
func (r AwardRecord) AmountValue() float64 {
	s := strings.TrimSpace(r.AwardedAmountToDate)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

var requiredColumns = []string{
	"AwardNumber",
	"Title",
	"Organization",
	"PrincipalInvestigator",
}

var columnSetters = map[string]func(*AwardRecord, string){
	"AwardNumber":           func(r *AwardRecord, v string) { r.AwardNumber = v },
	"Title":                 func(r *AwardRecord, v string) { r.Title = v },
	"StartDate":             func(r *AwardRecord, v string) { r.StartDate = v },
	"EndDate":               func(r *AwardRecord, v string) { r.EndDate = v },
	"AwardedAmountToDate":   func(r *AwardRecord, v string) { r.AwardedAmountToDate = v },
	"Abstract":              func(r *AwardRecord, v string) { r.Abstract = v },
	"Organization":          func(r *AwardRecord, v string) { r.Organization = v },
	"OrganizationState":     func(r *AwardRecord, v string) { r.OrganizationState = v },
	"OrganizationCity":      func(r *AwardRecord, v string) { r.OrganizationCity = v },
	"PrincipalInvestigator": func(r *AwardRecord, v string) { r.PrincipalInvestigator = v },
	"ProgramManager":        func(r *AwardRecord, v string) { r.ProgramManager = v },
	"Co-PIName(s)":          func(r *AwardRecord, v string) { r.CoPINames = v },
}

// ReadRecords parses a header-first delimited stream. Columns it does not
// know are ignored; known optional columns may be absent. Rows with an empty
// award number are skipped.
func ReadRecords(r io.Reader, delim rune) ([]AwardRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingestion: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("ingestion: missing required column %q: %w", col, errors.ErrMalformedRecord)
		}
	}

	var records []AwardRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingestion: read row: %w", err)
		}
		var rec AwardRecord
		for name, set := range columnSetters {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				continue
			}
			set(&rec, strings.TrimSpace(row[i]))
		}
		if rec.AwardNumber == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func ReadRecordsFile(path string, delim rune) ([]AwardRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f, delim)
}
