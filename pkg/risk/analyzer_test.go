package risk

import "testing"

func TestClassify_DropAndTruncateAreCritical(t *testing.T) {
	a := NewAnalyzer()
	cases := []string{
		"DROP TABLE accounts",
		"drop database prod",
		"DROP SCHEMA reporting CASCADE",
		"TRUNCATE TABLE audit_log",
	}
	for _, sql := range cases {
		t.Run(sql, func(t *testing.T) {
			got := a.Classify(sql, nil)
			if got.Level != LevelCritical {
				t.Fatalf("Classify(%q).Level = %v, want CRITICAL", sql, got.Level)
			}
			if !containsSubstring(got.Warnings, "permanent data loss") {
				t.Errorf("Classify(%q).Warnings = %v, want to contain %q", sql, got.Warnings, "permanent data loss")
			}
		})
	}
}

func TestClassify_DeleteUpdateWithoutWhereIsHigh(t *testing.T) {
	a := NewAnalyzer()
	cases := []string{
		"DELETE FROM users",
		"UPDATE users SET active = false",
	}
	for _, sql := range cases {
		t.Run(sql, func(t *testing.T) {
			got := a.Classify(sql, nil)
			if got.Level != LevelHigh {
				t.Fatalf("Classify(%q).Level = %v, want HIGH", sql, got.Level)
			}
			if !containsSubstring(got.Warnings, "no WHERE clause") {
				t.Errorf("Classify(%q).Warnings = %v, want to contain %q", sql, got.Warnings, "no WHERE clause")
			}
		})
	}
}

func TestClassify_DeleteUpdateWithWhereIsMedium(t *testing.T) {
	a := NewAnalyzer()
	cases := []string{
		"DELETE FROM users WHERE id = 5",
		"UPDATE users SET active = false WHERE last_login < '2020-01-01'",
		"INSERT INTO users (name) VALUES ('a')",
		"CREATE TABLE t (id INT)",
		"ALTER TABLE users ADD COLUMN age INT",
	}
	for _, sql := range cases {
		t.Run(sql, func(t *testing.T) {
			got := a.Classify(sql, nil)
			if got.Level != LevelMedium {
				t.Fatalf("Classify(%q).Level = %v, want MEDIUM", sql, got.Level)
			}
		})
	}
}

func TestClassify_ReadStatementsAreLow(t *testing.T) {
	a := NewAnalyzer()
	cases := []string{
		"SELECT * FROM users",
		"EXPLAIN SELECT * FROM users",
		"SHOW TABLES",
	}
	for _, sql := range cases {
		t.Run(sql, func(t *testing.T) {
			got := a.Classify(sql, nil)
			if got.Level != LevelLow {
				t.Fatalf("Classify(%q).Level = %v, want LOW", sql, got.Level)
			}
		})
	}
}

func TestClassify_WhereInsideStringLiteralDoesNotCount(t *testing.T) {
	a := NewAnalyzer()
	sql := `DELETE FROM logs WHERE message = 'no clause here, just text'`
	got := a.Classify(sql, nil)
	if got.Level != LevelMedium {
		t.Fatalf("Classify() = %v, want MEDIUM (statement has a real WHERE clause)", got.Level)
	}

	sql2 := `DELETE FROM logs WHERE message LIKE '%WHERE%'`
	got2 := a.Classify(sql2, nil)
	if got2.Level != LevelMedium {
		t.Fatalf("Classify() = %v, want MEDIUM", got2.Level)
	}
}

func TestClassify_SubqueryWhereDoesNotSatisfyTopLevelClause(t *testing.T) {
	a := NewAnalyzer()
	sql := `UPDATE accounts SET flag = (SELECT 1 FROM audit WHERE audit.id = accounts.id)`
	got := a.Classify(sql, nil)
	if got.Level != LevelHigh {
		t.Fatalf("Classify() = %v, want HIGH (no top-level WHERE on the UPDATE itself)", got.Level)
	}
}

func TestClassify_AffectedRowsEstimatePassedThrough(t *testing.T) {
	a := NewAnalyzer()
	n := int64(42)
	got := a.Classify("SELECT * FROM users", &n)
	if got.AffectedRowsEstimate == nil || *got.AffectedRowsEstimate != 42 {
		t.Errorf("AffectedRowsEstimate = %v, want pointer to 42", got.AffectedRowsEstimate)
	}
}

func TestClassify_OperationsList(t *testing.T) {
	a := NewAnalyzer()
	got := a.Classify("SELECT * FROM users WHERE id = 1", nil)
	if len(got.Operations) != 1 || got.Operations[0] != "SELECT" {
		t.Errorf("Operations = %v, want [SELECT]", got.Operations)
	}
}

func containsSubstring(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
