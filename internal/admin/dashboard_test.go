package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/furqon2004/antrian-rs-client/internal/api"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, api.Options{Logger: zerolog.Nop()})
	return NewService(client, zerolog.Nop(), nil)
}

func TestDashboardStatsReshaping(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":[
			{"poly":{"id":"p1","name":"Poli Umum"},"waiting":3,"serving":1,"done":6,"cancelled":2,"avg_waiting_time":12.4},
			{"id":"p2","name":"Poli Gigi","waiting":1,"serving":0,"done":0,"avg_service_minutes":20},
			{"id":"p3","waiting":0,"serving":0,"done":0}
		]}`)
	})

	stats, err := s.DashboardStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	// cancelled is excluded from the total
	require.Equal(t, 10, stats[0].Total)
	require.Equal(t, "Poli Umum", stats[0].PolyName)
	require.Equal(t, 12, stats[0].AvgMinutes)

	// avg falls through the field priority chain
	require.Equal(t, 20, stats[1].AvgMinutes)

	// nothing available -> default, and a missing name is labelled
	require.Equal(t, defaultAvgServiceMinutes, stats[2].AvgMinutes)
	require.Equal(t, "Unknown", stats[2].PolyName)
}

func TestDashboardStatsNestedData(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"data":[
			{"id":"p1","name":"Poli Umum","waiting":2,"serving":0,"done":1}
		]}}`)
	})

	stats, err := s.DashboardStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 3, stats[0].Total)
}

func TestReshapeAvgPriority(t *testing.T) {
	tests := []struct {
		name string
		row  dashboardRow
		want int
	}{
		{"waiting time wins", dashboardRow{AvgWaitingTime: 8, AvgServiceTime: 20, AvgServiceMinutes: 30}, 8},
		{"service time second", dashboardRow{AvgServiceTime: 20, AvgServiceMinutes: 30}, 20},
		{"service minutes third", dashboardRow{AvgServiceMinutes: 30}, 30},
		{"rounds half up", dashboardRow{AvgWaitingTime: 9.5}, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, reshapeRow(tc.row).AvgMinutes)
		})
	}
}

func TestSummarize(t *testing.T) {
	stats := []PolyStats{
		{Total: 10, Waiting: 3, Completed: 6, AvgMinutes: 10},
		{Total: 5, Waiting: 2, Completed: 3, AvgMinutes: 20},
		{Total: 2, Waiting: 2, Completed: 0, AvgMinutes: 50}, // no completions, excluded from the average
	}

	sum := Summarize(stats)
	require.Equal(t, 17, sum.TotalToday)
	require.Equal(t, 7, sum.Remaining)
	require.Equal(t, 9, sum.Completed)
	// (10*6 + 20*3) / 9 = 13.33 -> 13
	require.Equal(t, 13, sum.AvgServiceTime)
}

func TestSummarizeEmpty(t *testing.T) {
	require.Zero(t, Summarize(nil))
}

func TestFallbackPeakHoursDistributesTotal(t *testing.T) {
	now := time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)
	hours := FallbackPeakHours(51, now)
	require.Len(t, hours, 11)
	require.Equal(t, 7, hours[0].Hour)
	require.Equal(t, 17, hours[len(hours)-1].Hour)

	var nine PeakHour
	for _, h := range hours {
		if h.Hour == 9 {
			nine = h
		}
	}
	// 51 * 1.0 / 5.1 = 10 at the 09:00 peak
	require.Equal(t, 10, nine.Count)
	require.True(t, nine.IsPeak)
}

func TestFallbackPeakHoursNoData(t *testing.T) {
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	hours := FallbackPeakHours(0, now)

	for _, h := range hours {
		if h.Hour > now.Hour() {
			require.Zero(t, h.Count, "hour %d has not happened yet", h.Hour)
		}
	}

	peaks := 0
	for _, h := range hours {
		if h.IsPeak {
			peaks++
		}
	}
	require.GreaterOrEqual(t, peaks, 1)
}

func TestPeakHoursEndpointFallback(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false}`)
	})

	hours := s.PeakHours(context.Background(), 51)
	require.Len(t, hours, 11)
}
