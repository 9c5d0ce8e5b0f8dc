package conflict

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// Outcome result kind of a conflict check
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeRejected         Outcome = "rejected"
	OutcomeRequiresDecision Outcome = "requires_decision"
)

// Candidate placement being checked
type Candidate struct {
	ProfessionalID string
	Start          time.Time
	End            time.Time

	// ExcludeIDs appointments ignored by the check: the moved appointment
	// itself and the ones the caller agreed to displace
	ExcludeIDs []string
}

// Decision typed resolver output. Conflict is the earliest-starting
// conflicting appointment; Conflicts lists all of them in start order.
type Decision struct {
	Outcome   Outcome
	Conflict  *domain.Appointment
	Conflicts []*domain.Appointment
}

// HasConflict returns true unless the candidate was accepted
func (d Decision) HasConflict() bool {
	return d.Outcome != OutcomeAccepted
}
