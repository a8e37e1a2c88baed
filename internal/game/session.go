package game

import (
	"time"

	"github.com/google/uuid"

	"pantry-exchange/pkg/types"
)

// Session is the lifecycle record for one game. HostID may be empty until
// the first participant joins.
type Session struct {
	ID           string              `json:"id"`
	HostID       string              `json:"host_id"`
	Status       types.SessionStatus `json:"status"`
	Participants []string            `json:"participants"` // admission order
	CreatedAt    time.Time           `json:"created_at"`
	StartedAt    time.Time           `json:"started_at,omitempty"`
	EndedAt      time.Time           `json:"ended_at,omitempty"`
}

func NewSession(hostID string, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		HostID:    hostID,
		Status:    types.SessionLobby,
		CreatedAt: now,
	}
}

func (s *Session) AddParticipant(pid string) {
	s.Participants = append(s.Participants, pid)
}

func (s *Session) RemoveParticipant(pid string) {
	for i, id := range s.Participants {
		if id == pid {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return
		}
	}
}

// Remaining returns how much game time is left at now, floored at zero.
func (s *Session) Remaining(duration time.Duration, now time.Time) time.Duration {
	if s.Status != types.SessionRunning {
		return 0
	}
	left := duration - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Clone returns a copy safe to hand across the engine boundary.
func (s *Session) Clone() Session {
	cp := *s
	cp.Participants = append([]string(nil), s.Participants...)
	return cp
}
