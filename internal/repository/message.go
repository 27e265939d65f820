package repository

import (
	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/google/uuid"
)

// StoreMessage appends a message to a chatmate's history. The chatmate's
// existence is checked first so a stale id maps to ErrNotFound rather than
// a foreign-key violation bubbling up as a generic repo error.
func (db *DB) StoreMessage(chatmateID uuid.UUID, role models.MessageRole, content string) (uuid.UUID, error) {
	if _, err := db.GetChatmateByID(chatmateID); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	const query = `
		INSERT INTO message (id, chatmate_id, content, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())`

	if _, err := db.Exec(query, id, chatmateID, content, role); err != nil {
		return uuid.Nil, errors.Wrap(err, errors.ErrRepo)
	}
	return id, nil
}

// recognizedRoles is the set of roles the pipeline understands; rows with
// any other value are silently dropped rather than surfaced as an error,
// since they represent data the agent pipeline can't make sense of in a
// generation request.
var recognizedRoles = map[models.MessageRole]bool{
	models.RoleUser:   true,
	models.RoleAi:     true,
	models.RoleSystem: true,
}

// GetChatMessageHistory returns up to limit most-recent messages in
// ascending order: selected most-recent-first, then reversed, so an index
// on (chatmate_id, created_at DESC) can satisfy the query directly.
func (db *DB) GetChatMessageHistory(chatmateID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
		SELECT id, chatmate_id, content, role, created_at
		FROM message
		WHERE chatmate_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.Query(query, chatmateID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	defer rows.Close()

	descending := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ChatmateID, &m.Content, &role, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrRepo)
		}
		m.Role = models.MessageRole(role)
		if !recognizedRoles[m.Role] {
			continue
		}
		descending = append(descending, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}

	ascending := make([]models.Message, len(descending))
	for i, m := range descending {
		ascending[len(descending)-1-i] = m
	}
	return ascending, nil
}
