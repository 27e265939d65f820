package repository

import (
	"database/sql"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/google/uuid"
)

// FetchDueVocab returns the chatmate's most-overdue lemmas first, capped at
// limit. Overdue-ness is computed in SQL from the same doubling-interval
// rule as models.DueAt so the ordering matches what the agent would compute
// in process.
func (db *DB) FetchDueVocab(chatmateID uuid.UUID, limit int) ([]models.LearnedVocab, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
		SELECT chatmate_id, vocab, streak, usage_count, last_used
		FROM learned_vocab
		WHERE chatmate_id = $1
		  AND EXTRACT(EPOCH FROM (NOW() - (last_used + (POWER(2, GREATEST(streak, 1) - 1) * INTERVAL '1 day')))) > 0
		ORDER BY (NOW() - (last_used + (POWER(2, GREATEST(streak, 1) - 1) * INTERVAL '1 day'))) DESC
		LIMIT $2`

	rows, err := db.Query(query, chatmateID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	defer rows.Close()

	due := make([]models.LearnedVocab, 0, limit)
	for rows.Next() {
		var v models.LearnedVocab
		if err := rows.Scan(&v.ChatmateID, &v.Vocab, &v.Streak, &v.UsageCount, &v.LastUsed); err != nil {
			return nil, errors.Wrap(err, errors.ErrRepo)
		}
		due = append(due, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return due, nil
}

// StoreLearnedVocab applies each update in order as its own statement (not
// one shared transaction): a mid-batch failure halts processing but leaves
// every row applied before it committed, matching the state machine's
// per-row semantics below.
func (db *DB) StoreLearnedVocab(chatmateID uuid.UUID, updates []models.VocabUpdate) error {
	for _, u := range updates {
		var err error
		switch u.Transition {
		case models.TransitionNew:
			err = db.applyNew(chatmateID, u.Vocab)
		case models.TransitionReviewed:
			err = db.applyReviewed(chatmateID, u.Vocab)
		case models.TransitionReset:
			err = db.applyReset(chatmateID, u.Vocab)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyNew inserts a fresh row at streak=1, usage_count=1 if absent;
// idempotent if the lemma is already tracked.
func (db *DB) applyNew(chatmateID uuid.UUID, vocab string) error {
	const query = `
		INSERT INTO learned_vocab (chatmate_id, vocab, streak, usage_count, last_used)
		VALUES ($1, $2, 1, 1, NOW())
		ON CONFLICT (chatmate_id, vocab) DO NOTHING`

	if _, err := db.Exec(query, chatmateID, vocab); err != nil {
		return errors.Wrap(err, errors.ErrRepo)
	}
	return nil
}

// applyReviewed increments streak and usage_count and refreshes last_used;
// a no-op if the lemma isn't tracked yet.
func (db *DB) applyReviewed(chatmateID uuid.UUID, vocab string) error {
	const query = `
		UPDATE learned_vocab
		SET streak = streak + 1, usage_count = usage_count + 1, last_used = NOW()
		WHERE chatmate_id = $1 AND vocab = $2`

	if _, err := db.Exec(query, chatmateID, vocab); err != nil {
		return errors.Wrap(err, errors.ErrRepo)
	}
	return nil
}

// applyReset zeros streak, increments usage_count, and refreshes last_used;
// a no-op if the lemma isn't tracked yet. Reserved: nothing in the agent
// pipeline emits this today.
func (db *DB) applyReset(chatmateID uuid.UUID, vocab string) error {
	const query = `
		UPDATE learned_vocab
		SET streak = 0, usage_count = usage_count + 1, last_used = NOW()
		WHERE chatmate_id = $1 AND vocab = $2`

	if _, err := db.Exec(query, chatmateID, vocab); err != nil {
		return errors.Wrap(err, errors.ErrRepo)
	}
	return nil
}

// GetLearnedVocab is a direct lookup, used by tests to assert on post-state.
func (db *DB) GetLearnedVocab(chatmateID uuid.UUID, vocab string) (*models.LearnedVocab, error) {
	const query = `
		SELECT chatmate_id, vocab, streak, usage_count, last_used
		FROM learned_vocab
		WHERE chatmate_id = $1 AND vocab = $2`

	v := &models.LearnedVocab{}
	err := db.QueryRow(query, chatmateID, vocab).Scan(&v.ChatmateID, &v.Vocab, &v.Streak, &v.UsageCount, &v.LastUsed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrNotFound, "vocab not tracked")
		}
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return v, nil
}
