package builder

import (
	"time"

	"marketdw/internal/table"
)

// BuildTimeDimension generates one row per calendar day in [start, end]. Keys
// are YYYYMMDD integers, so the table is identical run to run and idempotent
// to merge. Zero start/end fall back to the 2020-2030 default range.
func (b *Builder) BuildTimeDimension(start, end time.Time) *table.Table {
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		end = time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	out := emptyTable("dim_time")
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		quarter := (int(d.Month())-1)/3 + 1
		weekday := int(d.Weekday()) // Sunday = 0
		if weekday == 0 {
			weekday = 7
		}
		weekend := weekday >= 6

		appendRow(out, map[string]any{
			"time_key":        dateKey(d),
			"full_date":       d.Format("2006-01-02"),
			"year":            int64(d.Year()),
			"quarter":         int64(quarter),
			"month":           int64(d.Month()),
			"week_of_year":    int64(week),
			"day_of_month":    int64(d.Day()),
			"day_of_week":     int64(weekday),
			"day_of_year":     int64(d.YearDay()),
			"month_name":      d.Month().String(),
			"day_name":        d.Weekday().String(),
			"quarter_name":    "Q" + string(rune('0'+quarter)),
			"is_weekend":      weekend,
			"is_business_day": !weekend,
			"market_season":   marketSeason(d.Month()),
			"is_peak_season":  isPeakSeason(d.Month()),
			"selling_season":  sellingSeason(d.Month()),
		})
	}
	b.log.Info().Int("rows", out.Len()).Msg("built dim_time")
	return out
}
