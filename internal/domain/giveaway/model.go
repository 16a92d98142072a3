package giveaway

import "time"

// State is the lifecycle position of the current-giveaway slot.
type State string

const (
	StateNone    State = "none"
	StateOpen    State = "open"
	StateClosing State = "closing"
)

// Giveaway is one raffle campaign. At most one giveaway is ongoing at a time.
type Giveaway struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	WinnerCount int        `json:"winner_count"`
	Ongoing     bool       `json:"ongoing"`
	// EndsAt is optional: when set, the giveaway is finished automatically after it.
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Entry is one participant's accepted claim in a giveaway.
type Entry struct {
	ID            int64     `json:"id"`
	ParticipantID string    `json:"participant_id"`
	GiveawayID    string    `json:"giveaway_id"`
	Winner        bool      `json:"winner"`
	CreatedAt     time.Time `json:"created_at"`
}

// AllowedRole is one acceptable eligibility role for a giveaway.
type AllowedRole struct {
	RoleID     string `json:"role_id"`
	GiveawayID string `json:"giveaway_id"`
}

// BlacklistEntry excludes a participant from every giveaway.
type BlacklistEntry struct {
	ParticipantID string    `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Member is a participant as resolved by the membership provider.
type Member struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Roles       []string  `json:"roles,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Role is a guild role as resolved by the membership provider.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
