package admin

import (
	"context"
	"net/url"
	"time"
)

// DateRange bounds a report query. Both ends are inclusive and formatted as
// YYYY-MM-DD in query parameters.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) query() string {
	params := url.Values{}
	params.Set("start_date", r.Start.Format("2006-01-02"))
	params.Set("end_date", r.End.Format("2006-01-02"))
	return "?" + params.Encode()
}

type Statistics struct {
	TotalTickets      int     `json:"total_tickets"`
	Completed         int     `json:"completed"`
	Cancelled         int     `json:"cancelled"`
	Skipped           int     `json:"skipped"`
	AvgWaitingMinutes float64 `json:"avg_waiting_minutes"`
	AvgServiceMinutes float64 `json:"avg_service_minutes"`
}

type PolyCount struct {
	PolyID   string `json:"poly_id"`
	PolyName string `json:"poly_name"`
	Count    int    `json:"count"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type WaitingTimePoint struct {
	Date       string  `json:"date"`
	AvgMinutes float64 `json:"avg_minutes"`
}

func (s *Service) Statistics(ctx context.Context, r DateRange) (Statistics, error) {
	var stats Statistics
	err := s.client.Get(ctx, "/v1/admin/reports/statistics"+r.query(), &stats)
	return stats, err
}

func (s *Service) BusiestPolys(ctx context.Context, r DateRange) ([]PolyCount, error) {
	var counts []PolyCount
	err := s.client.Get(ctx, "/v1/admin/reports/busiest-polys"+r.query(), &counts)
	return counts, err
}

func (s *Service) BusiestHours(ctx context.Context, r DateRange) ([]HourCount, error) {
	var counts []HourCount
	err := s.client.Get(ctx, "/v1/admin/reports/busiest-hours"+r.query(), &counts)
	return counts, err
}

func (s *Service) DailyCounts(ctx context.Context, r DateRange) ([]DailyCount, error) {
	var counts []DailyCount
	err := s.client.Get(ctx, "/v1/admin/reports/daily-count"+r.query(), &counts)
	return counts, err
}

func (s *Service) WaitingTimeTrend(ctx context.Context, r DateRange) ([]WaitingTimePoint, error) {
	var points []WaitingTimePoint
	err := s.client.Get(ctx, "/v1/admin/reports/waiting-time-trend"+r.query(), &points)
	return points, err
}

// Reports bundles every report for the range. Individual failures do not
// abort the batch; missing sections come back zero-valued.
type Reports struct {
	Statistics       Statistics         `json:"statistics"`
	BusiestPolys     []PolyCount        `json:"busiest_polys"`
	BusiestHours     []HourCount        `json:"busiest_hours"`
	DailyCounts      []DailyCount       `json:"daily_counts"`
	WaitingTimeTrend []WaitingTimePoint `json:"waiting_time_trend"`
}

func (s *Service) AllReports(ctx context.Context, r DateRange) Reports {
	var reports Reports
	var err error
	if reports.Statistics, err = s.Statistics(ctx, r); err != nil {
		s.logReportErr("statistics", err)
	}
	if reports.BusiestPolys, err = s.BusiestPolys(ctx, r); err != nil {
		s.logReportErr("busiest-polys", err)
	}
	if reports.BusiestHours, err = s.BusiestHours(ctx, r); err != nil {
		s.logReportErr("busiest-hours", err)
	}
	if reports.DailyCounts, err = s.DailyCounts(ctx, r); err != nil {
		s.logReportErr("daily-count", err)
	}
	if reports.WaitingTimeTrend, err = s.WaitingTimeTrend(ctx, r); err != nil {
		s.logReportErr("waiting-time-trend", err)
	}
	return reports
}

func (s *Service) logReportErr(report string, err error) {
	s.logger.Warn().Err(err).Str("report", report).Msg("report unavailable")
}
