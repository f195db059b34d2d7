package model

import (
	"fmt"
	"strings"
)

// ConferencePrefix marks article/space IDs that belong to conference rooms.
// Articles with this prefix are excluded from the regular space list.
const ConferencePrefix = "C"

type Space struct {
	ID             string            `json:"id"`
	Data           map[string]string `json:"data"`
	LabelCode      string            `json:"labelCode,omitempty"`
	TemplateName   string            `json:"templateName,omitempty"`
	AssignedLabels []string          `json:"assignedLabels,omitempty"`
	SyncStatus     string            `json:"syncStatus,omitempty"`
}

// Clone returns a deep copy so registry callers can't mutate shared state.
func (s *Space) Clone() *Space {
	cp := *s
	cp.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	if s.AssignedLabels != nil {
		cp.AssignedLabels = append([]string(nil), s.AssignedLabels...)
	}
	return &cp
}

type ConferenceRoom struct {
	ID             string            `json:"id"`
	HasMeeting     bool              `json:"hasMeeting"`
	MeetingName    string            `json:"meetingName"`
	StartTime      string            `json:"startTime"`
	EndTime        string            `json:"endTime"`
	Participants   []string          `json:"participants"`
	LabelCode      string            `json:"labelCode,omitempty"`
	Data           map[string]string `json:"data"`
	AssignedLabels []string          `json:"assignedLabels,omitempty"`
}

// Validate enforces the C-prefixed ID convention for conference rooms.
func (r *ConferenceRoom) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("conference room id is required")
	}
	if !strings.HasPrefix(r.ID, ConferencePrefix) {
		return fmt.Errorf("conference room id %q must start with %q", r.ID, ConferencePrefix)
	}
	return nil
}

func (r *ConferenceRoom) Clone() *ConferenceRoom {
	cp := *r
	cp.Data = make(map[string]string, len(r.Data))
	for k, v := range r.Data {
		cp.Data[k] = v
	}
	if r.Participants != nil {
		cp.Participants = append([]string(nil), r.Participants...)
	}
	if r.AssignedLabels != nil {
		cp.AssignedLabels = append([]string(nil), r.AssignedLabels...)
	}
	return &cp
}

// IsConferenceID reports whether an article or space ID is reserved for
// conference rooms.
func IsConferenceID(id string) bool {
	return strings.HasPrefix(id, ConferencePrefix)
}
