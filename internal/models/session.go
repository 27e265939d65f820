package models

import "github.com/google/uuid"

// SessionPhase discriminates the two states a connection can be in.
type SessionPhase int

const (
	PhaseUninit SessionPhase = iota
	PhaseInit
)

// SessionState is the sum-type state of one connection. Transitions are
// monotonic: Uninit moves to Init exactly once and never back.
type SessionState struct {
	Phase           SessionPhase
	ChatmateID      uuid.UUID
	RemainingCredit int
}

// Uninit is the initial state of every new connection.
func Uninit() SessionState {
	return SessionState{Phase: PhaseUninit}
}

// Init transitions to the initialized state carrying the resolved chatmate
// and the credit snapshot taken at handshake time.
func Init(chatmateID uuid.UUID, remainingCredit int) SessionState {
	return SessionState{Phase: PhaseInit, ChatmateID: chatmateID, RemainingCredit: remainingCredit}
}

// SpendOne decrements the local credit snapshot, saturating at zero.
func (s SessionState) SpendOne() SessionState {
	if s.RemainingCredit > 0 {
		s.RemainingCredit--
	}
	return s
}
