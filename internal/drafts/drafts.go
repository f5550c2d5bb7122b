// Package drafts holds the draft domain types consumed from the backend API.
// The draft state machine itself (ban/pick phases, turns, timers) runs
// server-side; these records are read-mostly snapshots plus the creation
// request.
package drafts

import (
	"strings"
	"time"
)

// Status of a draft as reported by the backend.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Phase of a draft as reported by the backend.
type Phase string

const (
	PhaseBan1  Phase = "BAN_PHASE_1"
	PhasePick1 Phase = "PICK_PHASE_1"
	PhaseBan2  Phase = "BAN_PHASE_2"
	PhasePick2 Phase = "PICK_PHASE_2"
)

// Draft is the backend's draft record. Replaced wholesale on each fetch,
// never patched field-by-field.
type Draft struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	BlueTeamName string `json:"blueTeamName" validate:"required"`
	RedTeamName  string `json:"redTeamName" validate:"required"`
	Status       Status `json:"status" validate:"required"`
	Mode         string `json:"mode" validate:"required"`

	BlueSideCaptainID string `json:"blueSideCaptainId,omitempty"`
	RedSideCaptainID  string `json:"redSideCaptainId,omitempty"`
	BlueSideTeamID    string `json:"blueSideTeamId,omitempty"`
	RedSideTeamID     string `json:"redSideTeamId,omitempty"`

	CurrentPhase Phase `json:"currentPhase,omitempty"`
	CurrentTurn  int   `json:"currentTurn,omitempty"`
	GameNumber   int   `json:"gameNumber,omitempty"`

	BanPhaseTimerDuration  int        `json:"banPhaseTimerDuration,omitempty"`
	PickPhaseTimerDuration int        `json:"pickPhaseTimerDuration,omitempty"`
	TimerEndTime           *time.Time `json:"timerEndTime,omitempty"`

	SpectateURL    string `json:"spectateUrl,omitempty"`
	BlueCaptainURL string `json:"blueCaptainUrl,omitempty"`
	RedCaptainURL  string `json:"redCaptainUrl,omitempty"`

	CreatedAt   time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreateRequest is the draft-creation payload.
type CreateRequest struct {
	Name         string `json:"name,omitempty" validate:"max=255"`
	Description  string `json:"description,omitempty" validate:"max=1000"`
	BlueTeamName string `json:"blueTeamName" validate:"required,max=255"`
	RedTeamName  string `json:"redTeamName" validate:"required,max=255"`
	Mode         string `json:"mode" validate:"required,oneof=TOURNAMENT FEARLESS FULL_FEARLESS"`

	BlueSideTeamID string `json:"blueSideTeamId,omitempty"`
	RedSideTeamID  string `json:"redSideTeamId,omitempty"`

	BanPhaseTimerDuration  int `json:"banPhaseTimerDuration,omitempty" validate:"omitempty,min=10"`
	PickPhaseTimerDuration int `json:"pickPhaseTimerDuration,omitempty" validate:"omitempty,min=10"`
}

// Mode describes a draft mode's rules for display.
type Mode struct {
	Mode        string `json:"mode"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Modes enumerates the known draft modes with the rule summaries shown when a
// user selects one.
func Modes() []Mode {
	return []Mode{
		{
			Mode:        "TOURNAMENT",
			DisplayName: "Tournament Draft",
			Description: "Standard competitive draft format with alternating bans and picks.",
		},
		{
			Mode:        "FEARLESS",
			DisplayName: "Fearless Draft",
			Description: "Champions picked in previous games are automatically banned for subsequent games.",
		},
		{
			Mode:        "FULL_FEARLESS",
			DisplayName: "Full Fearless Draft",
			Description: "Both champions picked and banned in previous games are automatically banned for subsequent games.",
		},
	}
}

// SpectateLink is the response to generating a spectator URL.
type SpectateLink struct {
	SpectateURL string `json:"spectateUrl" validate:"required"`
	Message     string `json:"message,omitempty"`
}

// AbsoluteURL surfaces a backend link to the user as an absolute URL by
// prefixing relative paths with the configured origin.
func AbsoluteURL(origin, raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	origin = strings.TrimSuffix(origin, "/")
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return origin + raw
}
