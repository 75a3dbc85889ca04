package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDangerous(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		dangerous bool
	}{
		{"plain select", `SELECT "Ticker" FROM "CompanyFundamentals"`, false},
		{"select with where", `select name from instruments where ticker = 'AAPL'`, false},
		{"delete upper", `DELETE FROM fundamentals_view`, true},
		{"delete lower", `delete from fundamentals_view`, true},
		{"delete mixed case", `DeLeTe from fundamentals_view`, true},
		{"drop", `DROP TABLE instruments`, true},
		{"drop mixed case", `DrOp table instruments`, true},
		{"insert", `INSERT INTO news VALUES (1)`, true},
		{"upsert", `upsert into news values (1)`, true},
		{"alter", `ALTER TABLE x ADD COLUMN y int`, true},
		{"create", `CREATE INDEX idx ON x (y)`, true},
		{"grant", `GRANT SELECT ON x TO y`, true},
		{"revoke", `REVOKE SELECT ON x FROM y`, true},
		{"reindex", `REINDEX TABLE x`, true},
		{"verb inside literal still rejected", `SELECT 1 WHERE note = 'please drop me a line'`, true},
		{"verb inside comment still rejected", `SELECT 1 -- delete later`, true},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dangerous, IsDangerous(tt.sql))
		})
	}
}
