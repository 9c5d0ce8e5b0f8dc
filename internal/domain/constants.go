package domain

import "time"

// Default agenda settings, applied when a tenant has no settings row yet
const (
	DefaultAllowOverbooking       = false
	DefaultLateCancelLimitMinutes = 120
	DefaultSuggestNextVisitDays   = 30
)

// Business validation constants
const (
	MaxServicesPerAppointment = 20
	MaxNotesLength            = 500
	MaxLateCancelLimitMinutes = 10080 // 1 week
	MaxSuggestNextVisitDays   = 365
)

// Trash retention for soft-deleted appointments
const TrashRetention = 30 * 24 * time.Hour

// Sync queue retry ceiling: an item failing more than this many times is dropped
const SyncMaxRetries = 3

// Waitlist suggestion limits
const (
	WaitlistSuggestionLimit     = 5
	RecentClientSuggestionLimit = 3
	RecentClientWindow          = 30 * 24 * time.Hour
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
