// Package queue reconciles the backend's queue-status signals into a single
// position and wait estimate. The status endpoint has accumulated several
// overlapping fields (an explicit ahead count, an AI load prediction, a raw
// waiting count, queue numbers) that disagree with each other, so the
// estimator applies them in a fixed priority order instead of trusting any
// one of them.
package queue

import (
	"fmt"
	"math"
)

const (
	// Bounds for the derived minutes-per-patient rate. Backend estimates
	// divided by queue length occasionally produce absurd rates; anything
	// outside this window is clamped.
	minMinutesPerPatient = 5.0
	maxMinutesPerPatient = 15.0

	defaultMinutesPerPatient = 10.0

	// defaultTotalDoctors is the round-robin assumption when the backend
	// reports a doctor assignment but no doctor count.
	defaultTotalDoctors = 2
)

// WaitingEntry is one ticket from the status endpoint's waiting_list
// payload, used for the per-doctor refinement.
type WaitingEntry struct {
	DoctorID    string `json:"doctor_id"`
	QueueNumber int    `json:"queue_number"`
	Status      string `json:"status"`
}

// Signals are the raw inputs the estimator reconciles. Pointer fields
// distinguish "absent from the response" from a legitimate zero.
type Signals struct {
	QueueNumber        int
	QueuesAhead        *int
	QueuesAheadDoctor  *int
	AIQueueLoad        *int
	WaitingCount       *int
	CurrentQueueNumber *int

	DoctorID     string
	DoctorName   string
	WaitingList  []WaitingEntry
	TotalDoctors int

	// OriginalEstimateMinutes over OriginalQueueLength yields the
	// minutes-per-patient rate.
	OriginalEstimateMinutes float64
	OriginalQueueLength     int
}

type Estimate struct {
	Ahead            int
	EstimatedMinutes int
	Message          string
	PerDoctor        bool
}

// aheadRules derive the overall ahead count, first applicable rule wins.
// Counts that include the patient themselves subtract one.
var aheadRules = []struct {
	name  string
	apply func(s Signals) (int, bool)
}{
	{"queues_ahead", func(s Signals) (int, bool) {
		if s.QueuesAhead == nil {
			return 0, false
		}
		return *s.QueuesAhead, true
	}},
	{"ai_queue_load", func(s Signals) (int, bool) {
		if s.AIQueueLoad == nil {
			return 0, false
		}
		return *s.AIQueueLoad - 1, true
	}},
	{"waiting_count", func(s Signals) (int, bool) {
		if s.WaitingCount == nil {
			return 0, false
		}
		return *s.WaitingCount - 1, true
	}},
	{"queue_number_diff", func(s Signals) (int, bool) {
		if s.CurrentQueueNumber == nil || *s.CurrentQueueNumber == 0 {
			return 0, false
		}
		return s.QueueNumber - *s.CurrentQueueNumber - 1, true
	}},
	{"queue_number", func(s Signals) (int, bool) {
		return s.QueueNumber - 1, true
	}},
}

// Estimate reconciles the signals into an ahead count, an ETA and a
// display message.
func (s Signals) Estimate() Estimate {
	overall := 0
	for _, rule := range aheadRules {
		if value, ok := rule.apply(s); ok {
			overall = clampZero(value)
			break
		}
	}

	ahead := overall
	perDoctor := s.DoctorID != ""
	if perDoctor {
		ahead = s.doctorAhead(overall)
	}
	if s.QueuesAheadDoctor != nil {
		ahead = clampZero(*s.QueuesAheadDoctor)
		perDoctor = true
	}

	minutes := s.estimatedMinutes(ahead, overall)

	return Estimate{
		Ahead:            ahead,
		EstimatedMinutes: minutes,
		Message:          s.message(ahead, minutes),
		PerDoctor:        perDoctor,
	}
}

// doctorAhead refines the overall count to the patient's doctor. With a
// waiting list it counts same-doctor tickets ahead of this one; without one
// it falls back to an even round-robin split across the known doctors.
// The round-robin figure is an approximation, not a guaranteed count.
func (s Signals) doctorAhead(overall int) int {
	if len(s.WaitingList) > 0 {
		count := 0
		for _, entry := range s.WaitingList {
			if entry.DoctorID == s.DoctorID && entry.QueueNumber < s.QueueNumber && entry.Status == "WAITING" {
				count++
			}
		}
		return count
	}

	if overall == 0 {
		return 0
	}
	doctors := s.TotalDoctors
	if doctors <= 0 {
		doctors = defaultTotalDoctors
	}
	return overall / doctors
}

// estimatedMinutes is ahead times the minutes-per-patient rate. Zero ahead
// always means zero minutes.
func (s Signals) estimatedMinutes(ahead, overall int) int {
	if ahead <= 0 {
		return 0
	}

	queueLength := s.OriginalQueueLength
	if queueLength <= 0 {
		queueLength = overall
		if queueLength <= 0 {
			queueLength = 1
		}
	}

	rate := defaultMinutesPerPatient
	if s.OriginalEstimateMinutes > 0 && queueLength > 0 {
		rate = s.OriginalEstimateMinutes / float64(queueLength)
	}
	rate = math.Max(minMinutesPerPatient, math.Min(maxMinutesPerPatient, rate))

	return int(math.Round(float64(ahead) * rate))
}

func (s Signals) message(ahead, minutes int) string {
	switch {
	case ahead == 0:
		doctor := "dokter"
		if s.DoctorName != "" {
			doctor = "dr. " + s.DoctorName
		}
		return fmt.Sprintf("Giliran Anda segera tiba! Mohon bersiap masuk ke ruangan %s.", doctor)
	case ahead <= 3:
		return fmt.Sprintf("Antrian cukup lancar dengan %d pasien di depan Anda. Estimasi waktu tunggu sekitar %d menit.", ahead, minutes)
	case ahead <= 10:
		return fmt.Sprintf("Antrian sedang berjalan dengan %d pasien di depan Anda. Estimasi waktu tunggu sekitar %d menit. Harap bersabar.", ahead, minutes)
	default:
		return fmt.Sprintf("Antrian cukup padat dengan %d pasien di depan Anda. Estimasi waktu tunggu sekitar %d menit. Terima kasih atas kesabaran Anda.", ahead, minutes)
	}
}

func clampZero(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
