package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// decoder converts stored text columns, keeping the first failure.
type decoder struct {
	err error
}

func (d *decoder) amount(value, currency string) generic.Amount {
	if d.err != nil {
		return generic.Amount{}
	}
	a, err := generic.ParseAmount(value, generic.Currency(currency))
	d.err = err
	return a
}

func (d *decoder) optionalAmount(value sql.NullString, currency string) *generic.Amount {
	if !value.Valid {
		return nil
	}
	a := d.amount(value.String, currency)
	return &a
}

func (d *decoder) month(value string) generic.Month {
	if d.err != nil {
		return generic.Month{}
	}
	m, err := generic.ParseMonth(value)
	d.err = err
	return m
}

func (d *decoder) date(value string) generic.TimePoint {
	if d.err != nil {
		return generic.TimePoint{}
	}
	tp, err := generic.ParseDate(value)
	d.err = err
	return tp
}

func (d *decoder) timestamp(value string) time.Time {
	if d.err != nil || value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	d.err = err
	return t
}

func (d *decoder) wrap(kind, id string) error {
	if d.err == nil {
		return nil
	}
	return fmt.Errorf("corrupt %s %s: %w", kind, id, d.err)
}

// Helper functions

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func optionalAmount(a *generic.Amount) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return nullString(a.Value.String())
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
