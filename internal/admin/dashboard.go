package admin

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/furqon2004/antrian-rs-client/internal/models"
)

const defaultAvgServiceMinutes = 15

// PolyStats is one row of the admin dashboard: today's counts for a poly.
// Total excludes cancelled tickets.
type PolyStats struct {
	PolyID     string `json:"poly_id"`
	PolyName   string `json:"poly_name"`
	Total      int    `json:"total"`
	Waiting    int    `json:"waiting"`
	Serving    int    `json:"serving"`
	Completed  int    `json:"completed"`
	AvgMinutes int    `json:"avg_minutes"`
}

type dashboardRow struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Poly              *models.Poly `json:"poly"`
	Waiting           int          `json:"waiting"`
	Serving           int          `json:"serving"`
	Done              int          `json:"done"`
	AvgWaitingTime    float64      `json:"avg_waiting_time"`
	AvgServiceTime    float64      `json:"avg_service_time"`
	AvgServiceMinutes float64      `json:"avg_service_minutes"`
}

// DashboardStats fetches today's per-poly counters. The payload sometimes
// nests the rows one level deeper under data.data.
func (s *Service) DashboardStats(ctx context.Context) ([]PolyStats, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/v1/admin/dashboard", &raw); err != nil {
		return nil, err
	}

	var rows []dashboardRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		var nested struct {
			Data []dashboardRow `json:"data"`
		}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, err
		}
		rows = nested.Data
	}

	stats := make([]PolyStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, reshapeRow(row))
	}
	return stats, nil
}

func reshapeRow(row dashboardRow) PolyStats {
	stat := PolyStats{
		PolyID:    row.ID,
		PolyName:  row.Name,
		Waiting:   row.Waiting,
		Serving:   row.Serving,
		Completed: row.Done,
		Total:     row.Waiting + row.Serving + row.Done,
	}
	if row.Poly != nil {
		if row.Poly.ID != "" {
			stat.PolyID = row.Poly.ID
		}
		if row.Poly.Name != "" {
			stat.PolyName = row.Poly.Name
		}
	}
	if stat.PolyName == "" {
		stat.PolyName = "Unknown"
	}

	// avg_waiting_time is calculated by the backend from actual service
	// data; the other fields are static estimates used as fallbacks.
	avg := row.AvgWaitingTime
	if avg == 0 {
		avg = row.AvgServiceTime
	}
	if avg == 0 {
		avg = row.AvgServiceMinutes
	}
	if avg == 0 && row.Poly != nil {
		avg = float64(row.Poly.AvgServiceMinutes)
	}
	stat.AvgMinutes = int(math.Round(avg))
	if stat.AvgMinutes == 0 {
		stat.AvgMinutes = defaultAvgServiceMinutes
	}
	return stat
}

// Summary aggregates poly rows into hospital-wide totals. The average
// service time is weighted by each poly's completed count, skipping polys
// with no completions.
type Summary struct {
	TotalToday     int `json:"total_today"`
	Remaining      int `json:"remaining"`
	Completed      int `json:"completed"`
	AvgServiceTime int `json:"avg_service_time"`
}

func Summarize(stats []PolyStats) Summary {
	var sum Summary
	var weightedTime, weightedCount int
	for _, stat := range stats {
		sum.TotalToday += stat.Total
		sum.Remaining += stat.Waiting
		sum.Completed += stat.Completed
		if stat.Completed > 0 {
			weightedTime += stat.AvgMinutes * stat.Completed
			weightedCount += stat.Completed
		}
	}
	if weightedCount > 0 {
		sum.AvgServiceTime = int(math.Round(float64(weightedTime) / float64(weightedCount)))
	}
	return sum
}

type PeakHour struct {
	Hour   int  `json:"hour"`
	Count  int  `json:"count"`
	IsPeak bool `json:"is_peak"`
}

// Typical hospital traffic shape: a morning peak around 09:00 and a smaller
// one after the lunch break.
var hourMultipliers = map[int]float64{
	7: 0.3, 8: 0.8, 9: 1.0, 10: 0.9, 11: 0.6, 12: 0.4,
	13: 0.7, 14: 0.5, 15: 0.4, 16: 0.3, 17: 0.2,
}

const multiplierSum = 5.1

// PeakHours fetches the per-hour ticket distribution. The endpoint is not
// deployed everywhere; when it fails or returns nothing, a synthetic
// distribution is derived from totalToday instead.
func (s *Service) PeakHours(ctx context.Context, totalToday int) []PeakHour {
	var hours []PeakHour
	if err := s.client.Get(ctx, "/v1/admin/dashboard/peak-hours", &hours); err != nil {
		s.logger.Debug().Err(err).Msg("peak hours endpoint unavailable, using fallback")
		return FallbackPeakHours(totalToday, time.Now())
	}
	if len(hours) == 0 {
		return FallbackPeakHours(totalToday, time.Now())
	}
	return hours
}

// FallbackPeakHours spreads totalToday over 07:00-17:00 following the
// typical traffic shape. With no tickets at all it still sketches a small
// curve over the hours already elapsed.
func FallbackPeakHours(totalToday int, now time.Time) []PeakHour {
	currentHour := now.Hour()
	hours := make([]PeakHour, 0, 11)
	for h := 7; h <= 17; h++ {
		multiplier, ok := hourMultipliers[h]
		if !ok {
			multiplier = 0.5
		}
		var count int
		if totalToday > 0 {
			count = int(math.Round(float64(totalToday) * multiplier / multiplierSum))
		} else if h <= currentHour {
			count = int(math.Round(multiplier * 3))
		}
		if count < 0 {
			count = 0
		}
		hours = append(hours, PeakHour{Hour: h, Count: count})
	}

	maxCount := 0
	for _, h := range hours {
		if h.Count > maxCount {
			maxCount = h.Count
		}
	}
	if maxCount > 0 {
		for i := range hours {
			hours[i].IsPeak = hours[i].Count == maxCount
		}
		return hours
	}
	for i := range hours {
		if hours[i].Hour == 9 {
			hours[i].IsPeak = true
		}
	}
	return hours
}
