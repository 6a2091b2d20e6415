package info

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/furqon2004/antrian-rs-client/internal/api"
)

// fixedNow is a Wednesday, day 3 in the backend's numbering.
var fixedNow = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, api.Options{Logger: zerolog.Nop()})
	s := NewService(client, t.TempDir(), zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func infoHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customer/info/queue-types":
			fmt.Fprint(w, `{"success":true,"data":[
				{"id":"qt-1","poly_id":"p1","name":"Umum","code_prefix":"A"},
				{"id":"qt-2","poly_id":"p2","name":"Gigi","code_prefix":"B"}
			]}`)
		case "/v1/customer/info/polys":
			fmt.Fprint(w, `{"success":true,"data":[
				{"id":"p1","name":"Poli Umum","is_active":true,
				 "service_hours":[{"day_of_week":3,"open_time":"08:00","close_time":"14:00","is_active":true}]},
				{"id":"p2","name":"Poli Gigi","is_active":true}
			]}`)
		case "/v1/customer/info/doctors":
			fmt.Fprint(w, `{"success":true,"data":[
				{"id":"d1","poly_id":"p1","name":"Siti",
				 "schedules":[{"day_of_week":3,"start_time":"08:00","end_time":"12:00","max_quota":20,"remaining_quota":5}]},
				{"id":"d2","poly_id":"p1","name":"Budi",
				 "schedules":[{"day_of_week":3,"start_time":"12:00","end_time":"16:00","max_quota":10}]},
				{"id":"d3","poly_id":"p2","name":"Ani",
				 "schedules":[{"day_of_week":5,"start_time":"08:00","end_time":"12:00","max_quota":15}]}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}
}

func TestQueueTypesFiltersAndEnriches(t *testing.T) {
	s := newTestService(t, infoHandler(t))

	types, err := s.QueueTypes(context.Background())
	if err != nil {
		t.Fatalf("queue types: %v", err)
	}

	// p2's only doctor practices on Friday, so qt-2 is closed today
	if len(types) != 1 || types[0].ID != "qt-1" {
		t.Fatalf("expected only qt-1 open today, got %+v", types)
	}

	qt := types[0]
	if qt.Quota != 30 {
		t.Fatalf("expected quota 30 across doctors, got %d", qt.Quota)
	}
	// d1 has 5 remaining, d2 reports none so its full quota counts
	if qt.RemainingQuota != 15 {
		t.Fatalf("expected remaining 15, got %d", qt.RemainingQuota)
	}
	if qt.TodayCount != 15 {
		t.Fatalf("expected today count 15, got %d", qt.TodayCount)
	}
	if qt.ServiceHours == nil || qt.ServiceHours.OpenTime != "08:00" || qt.ServiceHours.CloseTime != "14:00" {
		t.Fatalf("expected poly service hours preferred, got %+v", qt.ServiceHours)
	}
}

func TestQueueTypesServiceHoursFallBackToSchedule(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/customer/info/queue-types":
			fmt.Fprint(w, `{"success":true,"data":[{"id":"qt-1","poly_id":"p1","name":"Umum"}]}`)
		case "/v1/customer/info/polys":
			fmt.Fprint(w, `{"success":true,"data":[{"id":"p1","name":"Poli Umum","is_active":true}]}`)
		case "/v1/customer/info/doctors":
			fmt.Fprint(w, `{"success":true,"data":[
				{"id":"d1","poly_id":"p1","name":"Siti",
				 "schedules":[{"day_of_week":3,"start_time":"09:00","end_time":"13:00","max_quota":10}]}
			]}`)
		}
	})

	types, err := s.QueueTypes(context.Background())
	if err != nil {
		t.Fatalf("queue types: %v", err)
	}
	if len(types) != 1 || types[0].ServiceHours == nil {
		t.Fatalf("expected enriched queue type, got %+v", types)
	}
	if types[0].ServiceHours.OpenTime != "09:00" {
		t.Fatalf("expected doctor schedule hours, got %+v", types[0].ServiceHours)
	}
}

func TestPolysCached(t *testing.T) {
	var hits atomic.Int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"success":true,"data":[{"id":"p1","name":"Poli Umum"}]}`)
	})

	if _, err := s.Polys(context.Background(), false); err != nil {
		t.Fatalf("polys: %v", err)
	}
	if _, err := s.Polys(context.Background(), false); err != nil {
		t.Fatalf("polys: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one backend hit, got %d", got)
	}

	if _, err := s.Polys(context.Background(), true); err != nil {
		t.Fatalf("polys: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected refresh to bypass cache, got %d hits", got)
	}
}

func TestDoctorsOnDuty(t *testing.T) {
	s := newTestService(t, infoHandler(t))

	onDuty, err := s.DoctorsOnDuty(context.Background(), "")
	if err != nil {
		t.Fatalf("doctors on duty: %v", err)
	}
	if len(onDuty) != 2 {
		t.Fatalf("expected two doctors today, got %d", len(onDuty))
	}
	if onDuty[0].TodaySchedule == nil || onDuty[0].TodaySchedule.DayOfWeek != 3 {
		t.Fatalf("expected today's schedule attached, got %+v", onDuty[0].TodaySchedule)
	}

	filtered, err := s.DoctorsOnDuty(context.Background(), "p2")
	if err != nil {
		t.Fatalf("doctors on duty: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected no p2 doctors today, got %+v", filtered)
	}
}

func TestDayOfWeekMapping(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 1},  // Monday
		{time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), 6}, // Saturday
		{time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 7}, // Sunday
	}
	for _, tc := range tests {
		if got := dayOfWeek(tc.date); got != tc.want {
			t.Fatalf("%s: expected day %d, got %d", tc.date.Weekday(), tc.want, got)
		}
	}
}
