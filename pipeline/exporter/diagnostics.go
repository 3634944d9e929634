package exporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/gear6io/oraport/pipeline/catalog"
	"github.com/gear6io/oraport/pipeline/projection"
)

// NumericFinding counts the values of one numeric column that the numeric
// coercion rule exists for
type NumericFinding struct {
	Column   string
	DataType string
	Negative int64
	Null     int64
	Err      error
}

// Suspicious reports whether the column holds negative or NULL values
func (f NumericFinding) Suspicious() bool {
	return f.Negative > 0 || f.Null > 0
}

// ScanNumeric checks every numeric, non-excluded column of table for
// negative and NULL values. A failing column is recorded in its finding and
// does not stop the scan.
func (e *Exporter) ScanNumeric(ctx context.Context, db catalog.Querier, table string) ([]NumericFinding, error) {
	for _, name := range []string{e.owner, table} {
		if err := projection.ValidateIdentifier(name); err != nil {
			return nil, err
		}
	}

	columns, err := catalog.NewInspector(db).ListColumns(ctx, e.owner, table)
	if err != nil {
		return nil, err
	}

	var findings []NumericFinding
	for _, col := range columns {
		if col.Type != catalog.TypeNumeric || isExcluded(e.policy, col.Name) {
			continue
		}
		finding := NumericFinding{Column: col.Name, DataType: col.DataType}
		if err := projection.ValidateIdentifier(col.Name); err != nil {
			finding.Err = err
			findings = append(findings, finding)
			continue
		}

		query := numericScanSQL(e.owner, table, col.Name)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			finding.Err = err
			findings = append(findings, finding)
			continue
		}
		if rows.Next() {
			finding.Err = rows.Scan(&finding.Negative, &finding.Null)
		} else {
			finding.Err = rows.Err()
		}
		rows.Close()
		findings = append(findings, finding)
	}
	return findings, nil
}

func isExcluded(policy projection.Policy, column string) bool {
	_, ok := policy.Exclude[strings.ToUpper(column)]
	return ok
}

func numericScanSQL(owner, table, column string) string {
	return fmt.Sprintf(`SELECT COUNT(CASE WHEN "%[3]s" < 0 THEN 1 END), COUNT(CASE WHEN "%[3]s" IS NULL THEN 1 END) FROM "%[1]s"."%[2]s"`,
		owner, table, column)
}
