package queue

import (
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func TestEstimateAheadPriority(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    int
	}{
		{"explicit queues_ahead wins", Signals{QueueNumber: 10, QueuesAhead: intp(2), AIQueueLoad: intp(9), WaitingCount: intp(9)}, 2},
		{"ai load minus self", Signals{QueueNumber: 10, AIQueueLoad: intp(5), WaitingCount: intp(9)}, 4},
		{"waiting count minus self", Signals{QueueNumber: 10, WaitingCount: intp(6)}, 5},
		{"queue number difference", Signals{QueueNumber: 10, CurrentQueueNumber: intp(5)}, 4},
		{"current queue zero is ignored", Signals{QueueNumber: 10, CurrentQueueNumber: intp(0)}, 9},
		{"queue number fallback", Signals{QueueNumber: 3}, 2},
		{"negative clamps to zero", Signals{QueueNumber: 2, CurrentQueueNumber: intp(5)}, 0},
		{"explicit zero ahead", Signals{QueueNumber: 10, QueuesAhead: intp(0)}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.signals.Estimate().Ahead; got != tc.want {
				t.Fatalf("expected ahead %d, got %d", tc.want, got)
			}
		})
	}
}

func TestEstimatePerDoctor(t *testing.T) {
	t.Run("waiting list counts same doctor ahead", func(t *testing.T) {
		s := Signals{
			QueueNumber:  10,
			WaitingCount: intp(9),
			DoctorID:     "d1",
			WaitingList: []WaitingEntry{
				{DoctorID: "d1", QueueNumber: 3, Status: "WAITING"},
				{DoctorID: "d1", QueueNumber: 7, Status: "WAITING"},
				{DoctorID: "d1", QueueNumber: 5, Status: "SERVING"},
				{DoctorID: "d2", QueueNumber: 4, Status: "WAITING"},
				{DoctorID: "d1", QueueNumber: 12, Status: "WAITING"},
			},
		}
		est := s.Estimate()
		if est.Ahead != 2 {
			t.Fatalf("expected ahead 2, got %d", est.Ahead)
		}
		if !est.PerDoctor {
			t.Fatal("expected per-doctor estimate")
		}
	})

	t.Run("round robin split without waiting list", func(t *testing.T) {
		s := Signals{QueueNumber: 10, QueuesAhead: intp(8), DoctorID: "d1", TotalDoctors: 4}
		if got := s.Estimate().Ahead; got != 2 {
			t.Fatalf("expected ahead 2, got %d", got)
		}
	})

	t.Run("round robin defaults to two doctors", func(t *testing.T) {
		s := Signals{QueueNumber: 10, QueuesAhead: intp(8), DoctorID: "d1"}
		if got := s.Estimate().Ahead; got != 4 {
			t.Fatalf("expected ahead 4, got %d", got)
		}
	})

	t.Run("explicit doctor count overrides everything", func(t *testing.T) {
		s := Signals{
			QueueNumber:       10,
			QueuesAhead:       intp(8),
			QueuesAheadDoctor: intp(1),
			DoctorID:          "d1",
			WaitingList:       []WaitingEntry{{DoctorID: "d1", QueueNumber: 2, Status: "WAITING"}},
		}
		est := s.Estimate()
		if est.Ahead != 1 {
			t.Fatalf("expected ahead 1, got %d", est.Ahead)
		}
		if !est.PerDoctor {
			t.Fatal("expected per-doctor estimate")
		}
	})

	t.Run("no doctor means overall count", func(t *testing.T) {
		est := Signals{QueueNumber: 10, QueuesAhead: intp(8)}.Estimate()
		if est.Ahead != 8 {
			t.Fatalf("expected ahead 8, got %d", est.Ahead)
		}
		if est.PerDoctor {
			t.Fatal("expected overall estimate")
		}
	})
}

func TestEstimatedMinutes(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		want    int
	}{
		{"default rate", Signals{QueueNumber: 10, CurrentQueueNumber: intp(5)}, 40},
		{"derived rate", Signals{QueueNumber: 10, QueuesAhead: intp(4), OriginalEstimateMinutes: 60, OriginalQueueLength: 10}, 24},
		{"rate clamped low", Signals{QueueNumber: 10, QueuesAhead: intp(4), OriginalEstimateMinutes: 10, OriginalQueueLength: 10}, 20},
		{"rate clamped high", Signals{QueueNumber: 10, QueuesAhead: intp(4), OriginalEstimateMinutes: 300, OriginalQueueLength: 10}, 60},
		{"zero ahead is zero minutes", Signals{QueueNumber: 10, QueuesAhead: intp(0), OriginalEstimateMinutes: 60, OriginalQueueLength: 10}, 0},
		{"queue length falls back to overall", Signals{QueueNumber: 10, QueuesAhead: intp(5), OriginalEstimateMinutes: 30}, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.signals.Estimate().EstimatedMinutes; got != tc.want {
				t.Fatalf("expected %d minutes, got %d", tc.want, got)
			}
		})
	}
}

func TestEstimateMessage(t *testing.T) {
	t.Run("turn now names the doctor", func(t *testing.T) {
		est := Signals{QueueNumber: 1, QueuesAhead: intp(0), DoctorName: "Siti"}.Estimate()
		if want := "Giliran Anda segera tiba! Mohon bersiap masuk ke ruangan dr. Siti."; est.Message != want {
			t.Fatalf("expected %q, got %q", want, est.Message)
		}
	})

	t.Run("turn now without doctor", func(t *testing.T) {
		est := Signals{QueueNumber: 1, QueuesAhead: intp(0)}.Estimate()
		if !strings.Contains(est.Message, "ruangan dokter") {
			t.Fatalf("expected generic doctor wording, got %q", est.Message)
		}
	})

	tiers := []struct {
		ahead int
		want  string
	}{
		{1, "cukup lancar"},
		{3, "cukup lancar"},
		{4, "sedang berjalan"},
		{10, "sedang berjalan"},
		{11, "cukup padat"},
	}
	for _, tc := range tiers {
		est := Signals{QueueNumber: 99, QueuesAhead: intp(tc.ahead)}.Estimate()
		if !strings.Contains(est.Message, tc.want) {
			t.Fatalf("ahead %d: expected message containing %q, got %q", tc.ahead, tc.want, est.Message)
		}
	}
}
