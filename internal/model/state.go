package model

import "time"

// Status is the sync lifecycle state. There are no transition guards: any
// status may follow any other.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusSyncing      Status = "syncing"
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
	StatusDisconnected Status = "disconnected"
)

type SyncState struct {
	Status      Status     `json:"status"`
	IsConnected bool       `json:"isConnected"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Progress    int        `json:"progress,omitempty"`
}

// Tokens is the AIMS auth token pair. Created on login, replaced on refresh,
// discarded on disconnect.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ExpiresWithin reports whether the access token expires within d.
func (t Tokens) ExpiresWithin(d time.Duration) bool {
	return time.Until(t.ExpiresAt) < d
}
