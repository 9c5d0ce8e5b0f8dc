package domain

import "time"

// WaitlistPriority priority band of a waitlist entry
type WaitlistPriority string

const (
	PriorityUrgent WaitlistPriority = "urgent"
	PriorityVIP    WaitlistPriority = "vip"
	PriorityNormal WaitlistPriority = "normal"
)

// IsValid returns true for known priorities
func (p WaitlistPriority) IsValid() bool {
	return p == PriorityUrgent || p == PriorityVIP || p == PriorityNormal
}

// Rank returns the band order: lower ranks are offered first
func (p WaitlistPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityVIP:
		return 1
	default:
		return 2
	}
}

// WaitlistEntry a client's request for a future slot
type WaitlistEntry struct {
	ID             string
	CompanyID      string
	ClientID       string
	ProfessionalID *string // nil = any professional
	DesiredDate    *time.Time
	Priority       WaitlistPriority
	Position       int
	Notes          *string

	ClientName       string
	ClientPhone      *string
	ProfessionalName *string

	CreatedAt time.Time
}

// MatchesProfessional returns true if the entry accepts the given professional
func (e *WaitlistEntry) MatchesProfessional(professionalID string) bool {
	return e.ProfessionalID == nil || *e.ProfessionalID == professionalID
}

// RecentClient a client recently served by another professional,
// offered as an informational suggestion for a freed slot
type RecentClient struct {
	ID          string
	Name        string
	Phone       *string
	LastVisitAt time.Time
}

// SlotSuggestions candidates offered for a freed slot
type SlotSuggestions struct {
	Waitlist      []*WaitlistEntry
	RecentClients []*RecentClient
}
