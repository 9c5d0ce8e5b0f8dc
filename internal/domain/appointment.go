package domain

import "time"

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusDone       AppointmentStatus = "done"
	StatusNoShow     AppointmentStatus = "no_show"
	StatusCanceled   AppointmentStatus = "canceled"
)

// IsValid returns true if the status is one of the known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusDone, StatusNoShow, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that leave the time grid
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusNoShow || s == StatusCanceled
}

// Service is a catalog item booked as part of an appointment
type Service struct {
	ID                 string
	Name               string
	DurationMinutes    int
	BufferAfterMinutes int
}

// Professional is a staff member owning appointments
type Professional struct {
	ID     string
	Name   string
	Color  string
	Active bool
}

// Appointment represents a scheduled or walk-in service booking
type Appointment struct {
	ID             string
	CompanyID      string
	ProfessionalID string
	ClientID       *string

	// Services in execution order; durations are sequential
	Services []Service

	// StartAt == nil means walk-in (holding queue, not on the time grid)
	StartAt *time.Time
	EndAt   *time.Time

	Status     AppointmentStatus
	Overbooked bool
	Notes      *string

	// Denormalized names for rendering conflicts
	ClientName       *string
	ProfessionalName string

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWalkIn returns true if the appointment has no place on the time grid
func (a *Appointment) IsWalkIn() bool {
	return a.StartAt == nil
}

// IsDeleted returns true if the appointment is soft-deleted
func (a *Appointment) IsDeleted() bool {
	return a.DeletedAt != nil
}

// OccupiesGrid returns true if the appointment blocks time for its professional
func (a *Appointment) OccupiesGrid() bool {
	return a.StartAt != nil && a.EndAt != nil && !a.IsDeleted() && !a.Status.IsTerminal()
}

// Interval returns the occupied window; ok is false for walk-ins
func (a *Appointment) Interval() (Interval, bool) {
	if a.StartAt == nil || a.EndAt == nil {
		return Interval{}, false
	}
	return Interval{Start: *a.StartAt, End: *a.EndAt}, true
}

// Reschedule sets StartAt and derives EndAt from the current service list.
// A nil start turns the appointment into a walk-in.
func (a *Appointment) Reschedule(start *time.Time) {
	if start == nil {
		a.StartAt = nil
		a.EndAt = nil
		return
	}
	s := *start
	e := EndFor(s, a.Services)
	a.StartAt = &s
	a.EndAt = &e
}

// Clone returns a deep copy safe to keep as a snapshot
func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	c := *a
	c.Services = append([]Service(nil), a.Services...)
	c.ClientID = cloneString(a.ClientID)
	c.Notes = cloneString(a.Notes)
	c.ClientName = cloneString(a.ClientName)
	c.StartAt = cloneTime(a.StartAt)
	c.EndAt = cloneTime(a.EndAt)
	c.DeletedAt = cloneTime(a.DeletedAt)
	return &c
}

// ServiceNames returns service names in execution order
func (a *Appointment) ServiceNames() []string {
	names := make([]string, len(a.Services))
	for i, s := range a.Services {
		names[i] = s.Name
	}
	return names
}

// AppointmentPatch partial update sent to the persistence store.
// Nil fields are left untouched.
type AppointmentPatch struct {
	ProfessionalID *string
	StartAt        *time.Time
	EndAt          *time.Time
	ClearSchedule  bool // set start_at/end_at to NULL (walk-in)
	Status         *AppointmentStatus
	Overbooked     *bool
	DeletedAt      *time.Time
	ClearDeletedAt bool
}

// IsEmpty returns true if the patch changes nothing
func (p AppointmentPatch) IsEmpty() bool {
	return p.ProfessionalID == nil && p.StartAt == nil && p.EndAt == nil && !p.ClearSchedule &&
		p.Status == nil && p.Overbooked == nil && p.DeletedAt == nil && !p.ClearDeletedAt
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
