package models

import "time"

// Ticket is the locally cached record of a queue ticket. The backend
// identifies tickets by id on staff endpoints and by token on customer
// endpoints, so both are kept and either may be used for lookups.
type Ticket struct {
	ID            string     `json:"id"`
	Token         string     `json:"token,omitempty"`
	QueueTypeID   string     `json:"queue_type_id"`
	QueueTypeName string     `json:"queue_type_name,omitempty"`
	QueueTypeCode string     `json:"queue_type_code,omitempty"`
	QueueType     *QueueType `json:"queue_type,omitempty"`
	QueueNumber   int        `json:"queue_number"`
	DisplayNumber string     `json:"display_number,omitempty"`
	Status        string     `json:"status"`
	PatientName   string     `json:"patient_name,omitempty"`
	PaymentType   string     `json:"payment_type,omitempty"`
	DoctorID      string     `json:"doctor_id,omitempty"`
	Doctor        *Doctor    `json:"doctor,omitempty"`
	ServiceDate   string     `json:"service_date,omitempty"`
	IssuedAt      string     `json:"issued_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

const (
	StatusWaiting   = "WAITING"
	StatusCalled    = "CALLED"
	StatusServing   = "SERVING"
	StatusDone      = "DONE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusSkipped   = "SKIPPED"
)

// ActiveStatuses are the states in which a ticket still occupies a queue
// position. One active ticket per device is enforced against this set.
var ActiveStatuses = []string{StatusWaiting, StatusCalled, StatusServing}

func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the backend considers the ticket closed.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusDone, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Matches reports whether key identifies this ticket by id or token.
func (t Ticket) Matches(key string) bool {
	if key == "" {
		return false
	}
	return t.ID == key || t.Token == key
}
