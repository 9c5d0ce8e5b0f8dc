package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownMutation is returned when a stored mutation carries an unknown kind
var ErrUnknownMutation = errors.New("domain: unknown mutation kind")

// MutationKind tag of a mutation variant
type MutationKind string

const (
	MutationCreate  MutationKind = "create_appointment"
	MutationMove    MutationKind = "move_appointment"
	MutationStatus  MutationKind = "set_status"
	MutationDelete  MutationKind = "delete_appointment"
	MutationRestore MutationKind = "restore_appointment"
)

// MutationStore is the write side of the persistence store, tenant scoped
type MutationStore interface {
	InsertAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, companyID, id string, patch AppointmentPatch) error
	SoftDeleteAppointment(ctx context.Context, companyID, id string, at time.Time) error
}

// Mutation is a persisted change of one appointment. Each variant carries
// its own typed payload and knows how to write itself.
type Mutation interface {
	Kind() MutationKind
	AppointmentID() string
	Persist(ctx context.Context, store MutationStore, companyID string) error
}

// CreateMutation inserts a new appointment
type CreateMutation struct {
	Appointment *Appointment
}

func (m CreateMutation) Kind() MutationKind    { return MutationCreate }
func (m CreateMutation) AppointmentID() string { return m.Appointment.ID }

func (m CreateMutation) Persist(ctx context.Context, store MutationStore, _ string) error {
	return store.InsertAppointment(ctx, m.Appointment)
}

// MoveMutation places an appointment on a professional/time.
// StartAt == nil moves it to the walk-in holding queue.
type MoveMutation struct {
	ID             string
	ProfessionalID string
	StartAt        *time.Time
	EndAt          *time.Time
	Overbooked     bool
}

func (m MoveMutation) Kind() MutationKind    { return MutationMove }
func (m MoveMutation) AppointmentID() string { return m.ID }

func (m MoveMutation) Persist(ctx context.Context, store MutationStore, companyID string) error {
	professionalID := m.ProfessionalID
	overbooked := m.Overbooked
	patch := AppointmentPatch{
		ProfessionalID: &professionalID,
		Overbooked:     &overbooked,
	}
	if m.StartAt == nil {
		patch.ClearSchedule = true
	} else {
		patch.StartAt = m.StartAt
		patch.EndAt = m.EndAt
	}
	return store.UpdateAppointment(ctx, companyID, m.ID, patch)
}

// StatusMutation changes the appointment status
type StatusMutation struct {
	ID     string
	Status AppointmentStatus
}

func (m StatusMutation) Kind() MutationKind    { return MutationStatus }
func (m StatusMutation) AppointmentID() string { return m.ID }

func (m StatusMutation) Persist(ctx context.Context, store MutationStore, companyID string) error {
	status := m.Status
	return store.UpdateAppointment(ctx, companyID, m.ID, AppointmentPatch{Status: &status})
}

// DeleteMutation soft-deletes an appointment
type DeleteMutation struct {
	ID        string
	DeletedAt time.Time
}

func (m DeleteMutation) Kind() MutationKind    { return MutationDelete }
func (m DeleteMutation) AppointmentID() string { return m.ID }

func (m DeleteMutation) Persist(ctx context.Context, store MutationStore, companyID string) error {
	return store.SoftDeleteAppointment(ctx, companyID, m.ID, m.DeletedAt)
}

// RestoreMutation clears the soft-delete marker
type RestoreMutation struct {
	ID string
}

func (m RestoreMutation) Kind() MutationKind    { return MutationRestore }
func (m RestoreMutation) AppointmentID() string { return m.ID }

func (m RestoreMutation) Persist(ctx context.Context, store MutationStore, companyID string) error {
	return store.UpdateAppointment(ctx, companyID, m.ID, AppointmentPatch{ClearDeletedAt: true})
}

type mutationEnvelope struct {
	Kind    MutationKind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalMutation encodes a mutation as a tagged JSON envelope
func MarshalMutation(m Mutation) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(mutationEnvelope{Kind: m.Kind(), Payload: payload})
}

// UnmarshalMutation decodes a tagged JSON envelope into its variant
func UnmarshalMutation(data []byte) (Mutation, error) {
	var env mutationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	var (
		m   Mutation
		err error
	)
	switch env.Kind {
	case MutationCreate:
		var v CreateMutation
		err = json.Unmarshal(env.Payload, &v)
		if err == nil && v.Appointment == nil {
			err = fmt.Errorf("create mutation without appointment")
		}
		m = v
	case MutationMove:
		var v MoveMutation
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case MutationStatus:
		var v StatusMutation
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case MutationDelete:
		var v DeleteMutation
		err = json.Unmarshal(env.Payload, &v)
		m = v
	case MutationRestore:
		var v RestoreMutation
		err = json.Unmarshal(env.Payload, &v)
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutation, env.Kind)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SyncQueueItem a mutation awaiting remote persistence
type SyncQueueItem struct {
	ID         string
	CompanyID  string
	Mutation   Mutation
	EnqueuedAt time.Time
	RetryCount int
}

// Exhausted returns true once the item failed more times than the retry ceiling
func (i *SyncQueueItem) Exhausted() bool {
	return i.RetryCount > SyncMaxRetries
}
