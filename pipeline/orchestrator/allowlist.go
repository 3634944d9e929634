package orchestrator

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/gear6io/oraport/pkg/errors"
)

const allowListHeader = "TABLE"

// ReadAllowList loads table names from a CSV file. A header row naming a
// TABLE column selects that column; otherwise the first column is used.
func ReadAllowList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrAllowListReadFail, "failed to open allow-list", err).AddContext("path", path)
	}
	defer f.Close()

	tables, err := ParseAllowList(f)
	if err != nil {
		return nil, errors.New(ErrAllowListParseFail, "failed to parse allow-list", err).AddContext("path", path)
	}
	return tables, nil
}

// ParseAllowList reads CSV records from r. Names are trimmed and
// upper-cased; blank rows, # comments and duplicates are skipped.
func ParseAllowList(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	column := 0
	if len(records) > 0 {
		for i, field := range records[0] {
			if strings.EqualFold(strings.TrimSpace(field), allowListHeader) {
				column = i
				records = records[1:]
				break
			}
		}
	}

	seen := make(map[string]bool)
	var tables []string
	for _, record := range records {
		if column >= len(record) {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(record[column]))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tables = append(tables, name)
	}
	return tables, nil
}
