package models

// Poly is a hospital department (poliklinik).
type Poly struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Code              string        `json:"code,omitempty"`
	Description       string        `json:"description,omitempty"`
	IsActive          bool          `json:"is_active"`
	AvgServiceMinutes int           `json:"avg_service_minutes,omitempty"`
	ServiceHours      []ServiceHour `json:"service_hours,omitempty"`
}

// QueueType is a ticket category tied to a poly.
type QueueType struct {
	ID          string `json:"id"`
	PolyID      string `json:"poly_id,omitempty"`
	Name        string `json:"name"`
	CodePrefix  string `json:"code_prefix,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active,omitempty"`

	// Enrichment filled client-side from doctor schedules.
	ServiceHours   *ServiceHour `json:"service_hours,omitempty"`
	Quota          int          `json:"quota,omitempty"`
	RemainingQuota int          `json:"remaining_quota,omitempty"`
	TodayCount     int          `json:"today_count,omitempty"`
}

type Doctor struct {
	ID             string     `json:"id"`
	PolyID         string     `json:"poly_id"`
	Poly           *Poly      `json:"poly,omitempty"`
	Name           string     `json:"name"`
	SIPNumber      string     `json:"sip_number,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	Schedules      []Schedule `json:"schedules,omitempty"`
}

// Schedule is a doctor's weekly practice slot. DayOfWeek runs 1 (Monday)
// through 7 (Sunday).
type Schedule struct {
	ID             string `json:"id,omitempty"`
	DoctorID       string `json:"doctor_id,omitempty"`
	DayOfWeek      int    `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	MaxQuota       int    `json:"max_quota,omitempty"`
	RemainingQuota *int   `json:"remaining_quota,omitempty"`
}

type ServiceHour struct {
	ID        string `json:"id,omitempty"`
	PolyID    string `json:"poly_id,omitempty"`
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsActive  bool   `json:"is_active"`
}

type Staff struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id,omitempty"`
	PolyID   string `json:"poly_id,omitempty"`
	Poly     *Poly  `json:"poly,omitempty"`
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Staff    *Staff `json:"staff,omitempty"`
}
