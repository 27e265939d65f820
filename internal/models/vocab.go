package models

import (
	"time"

	"github.com/google/uuid"
)

// LearnedVocab tracks one lemma's spaced-repetition state for one chatmate.
// Keyed uniquely by (ChatmateID, Vocab); vocab is language-bound and the
// chatmate already carries the language, so keying on the chatmate rather
// than the user avoids a redundant language column on every row.
type LearnedVocab struct {
	ChatmateID uuid.UUID `db:"chatmate_id"`
	Vocab      string    `db:"vocab"`
	Streak     int       `db:"streak"`
	UsageCount int       `db:"usage_count"`
	LastUsed   time.Time `db:"last_used"`
}

// VocabTransition is the mutation to apply to a LearnedVocab row.
type VocabTransition int

const (
	// TransitionNew inserts a row at streak=1, usage_count=1 if absent; a no-op if already tracked.
	TransitionNew VocabTransition = iota
	// TransitionReviewed increments streak and usage_count and refreshes last_used; a no-op if absent.
	TransitionReviewed
	// TransitionReset zeros streak, increments usage_count, and refreshes last_used; a no-op if absent.
	// Reserved: the agent pipeline never emits this transition today.
	TransitionReset
)

// VocabUpdate pairs a lemma with the transition to apply to it.
type VocabUpdate struct {
	Vocab      string
	Transition VocabTransition
}

// DueAt returns when a tracked lemma next becomes due for review: the review
// interval doubles with every successful streak, so a higher streak pushes
// the next due date further out.
func DueAt(lastUsed time.Time, streak int) time.Time {
	if streak < 1 {
		streak = 1
	}
	days := 1 << uint(streak-1)
	return lastUsed.Add(time.Duration(days) * 24 * time.Hour)
}

// OverdueBy returns how far past due a lemma is as of now; negative means
// not yet due.
func (v LearnedVocab) OverdueBy(now time.Time) time.Duration {
	return now.Sub(DueAt(v.LastUsed, v.Streak))
}

// IsDue reports whether the lemma is due for review as of now.
func (v LearnedVocab) IsDue(now time.Time) bool {
	return v.OverdueBy(now) > 0
}
