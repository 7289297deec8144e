package postgres

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/dashboard"
)

// psql builds every statement with Postgres positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// indicatorBase applies the shared dashboard filters to the incidence table.
// The indicator column comes from the typed enum, never from request input.
func indicatorBase(f dashboard.Filters) sq.SelectBuilder {
	b := psql.Select().From("malaria_indicators")
	if f.Year != 0 {
		b = b.Where(sq.Eq{"year": f.Year})
	}
	if len(f.States) > 0 {
		b = b.Where(sq.Eq{"state": f.States})
	}
	return b
}

func trendQuery(f dashboard.Filters) (string, []interface{}, error) {
	return indicatorBase(f).
		Columns("report_date", "COALESCE(SUM("+f.Indicator.Column()+"), 0)").
		GroupBy("report_date").
		OrderBy("report_date ASC").
		ToSql()
}

func comparisonQuery(f dashboard.Filters) (string, []interface{}, error) {
	return indicatorBase(f).
		Columns("state", "COALESCE(SUM("+f.Indicator.Column()+"), 0)").
		GroupBy("state").
		OrderBy("state ASC").
		ToSql()
}

func correlationQuery(f dashboard.Filters) (string, []interface{}, error) {
	return indicatorBase(f).
		Columns("state", "COALESCE(AVG(rainfall), 0)", "COALESCE(SUM("+f.Indicator.Column()+"), 0)").
		GroupBy("state").
		OrderBy("state ASC").
		ToSql()
}

func kpiQuery(f dashboard.Filters) (string, []interface{}, error) {
	return indicatorBase(f).
		Columns(
			"COALESCE(SUM(incidence), 0)",
			"COALESCE(SUM(mortality), 0)",
			"COALESCE(AVG(effective_treatment), 0)",
		).
		ToSql()
}

func boundariesQuery(states []string) (string, []interface{}, error) {
	b := psql.Select("state", "geometry").From("state_boundaries")
	if len(states) > 0 {
		b = b.Where(sq.Eq{"state": states})
	}
	return b.ToSql()
}
