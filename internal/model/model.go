// Package model defines domain entities used by services and repositories.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// DefaultScore is substituted for any missing or unparseable score.
const DefaultScore = 50

// Urgency levels accepted on a diary row. Anything else is stored as "".
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// ValidUrgency reports whether v may be stored in the urgency_level column.
func ValidUrgency(v string) bool {
	switch v {
	case "", UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// DiaryRow is the canonical server-side representation of a diary entry.
// Score pointers are nil only before the submission adapter has defaulted them.
type DiaryRow struct {
	ID                 string // unique key, not necessarily a UUID
	UserID             string // owner, always stamped by the client
	Date               string
	Emotion            string
	Event              string
	Realization        string
	SelfEsteemScore    *int
	WorthlessnessScore *int
	AssignedCounselor  string
	UrgencyLevel       string
	IsVisibleToUser    bool
	CounselorName      string
	CounselorMemo      string
	CreatedAt          string // ISO-8601, as produced by the device
}

// Score returns p's value or DefaultScore when p is nil.
func Score(p *int) int {
	if p == nil {
		return DefaultScore
	}
	return *p
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// SyncUser is the owning identity of synced rows.
type SyncUser struct {
	ID           string
	LineUsername string
}

// User is an account stored on the server.
type User struct {
	ID           uuid.UUID // PK
	LineUsername string    // unique
	CreatedAt    time.Time
}

// UpsertOptions mirrors the store's upsert switches.
type UpsertOptions struct {
	OnConflict       string // only "id" is supported
	IgnoreDuplicates bool   // true: ON CONFLICT DO NOTHING
}

// SubmitResult reports the outcome of a single upsert submission.
type SubmitResult struct {
	Success   bool
	Submitted int
	Error     string
}

// DeleteResult reports the outcome of a (possibly chunked) deletion.
type DeleteResult struct {
	Success bool
	Deleted int64
	Failed  int // failed chunks
	Error   string
}

// CleanupResult reports a maintenance operation over local and remote data.
type CleanupResult struct {
	LocalRemoved  int
	RemoteRemoved int64
}

// SyncOutcome classifies a successful pass.
type SyncOutcome string

// Pass outcomes.
const (
	OutcomeSynced SyncOutcome = "synced"
	OutcomeNoData SyncOutcome = "no_data"
	OutcomeNoNew  SyncOutcome = "nothing_new"
)

// SyncResult describes one finished sync pass.
type SyncResult struct {
	Outcome   SyncOutcome
	Total     int // entries found in local storage
	Eligible  int // entries with all required fields
	Submitted int // rows sent to the remote store
	SyncedAt  time.Time
}

// State is the orchestrator's state machine position.
type State string

// Orchestrator states.
const (
	StateIdle      State = "idle"
	StateSyncing   State = "syncing"
	StateIdleError State = "idle_error"
)

// Status is a point-in-time snapshot of the orchestrator.
type Status struct {
	State           State
	LastError       string
	LastSyncTime    string
	User            *SyncUser
	AutoSyncEnabled bool
	LocalCount      int
	RemoteCount     int64
}

// String renders r as a short user-facing message.
func (r SyncResult) String() string {
	switch r.Outcome {
	case OutcomeNoData:
		return "no data to sync"
	case OutcomeNoNew:
		return "no new entries to sync"
	default:
		return fmt.Sprintf("synced %d entries", r.Submitted)
	}
}
