package repository

import (
	"database/sql"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/google/uuid"
)

// CreateChatmate inserts a new chatmate for (userID, language). Uniqueness
// is enforced at the storage layer; a conflicting row maps to
// ErrAlreadyHandshaken rather than a generic repo error.
func (db *DB) CreateChatmate(userID string, language models.Language) (*models.Chatmate, error) {
	cm := &models.Chatmate{ID: uuid.New(), UserID: userID, Language: language}

	const query = `
		INSERT INTO chatmate (id, user_id, language, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at`

	err := db.QueryRow(query, cm.ID, cm.UserID, cm.Language).Scan(&cm.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.New(errors.ErrAlreadyHandshaken, "chatmate already exists for this language")
		}
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return cm, nil
}

// GetChatmateByLanguage looks up the caller's chatmate for a language, if any.
func (db *DB) GetChatmateByLanguage(userID string, language models.Language) (*models.Chatmate, error) {
	const query = `
		SELECT id, user_id, language, created_at
		FROM chatmate
		WHERE user_id = $1 AND language = $2`

	cm := &models.Chatmate{}
	err := db.QueryRow(query, userID, language).Scan(&cm.ID, &cm.UserID, &cm.Language, &cm.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrNotFound, "chatmate not found")
		}
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return cm, nil
}

// GetChatmateByID resolves a chatmate by its own id, regardless of owner;
// callers are responsible for the ownership check.
func (db *DB) GetChatmateByID(id uuid.UUID) (*models.Chatmate, error) {
	const query = `
		SELECT id, user_id, language, created_at
		FROM chatmate
		WHERE id = $1`

	cm := &models.Chatmate{}
	err := db.QueryRow(query, id).Scan(&cm.ID, &cm.UserID, &cm.Language, &cm.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(errors.ErrNotFound, "chatmate not found")
		}
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return cm, nil
}

// GetChatmates lists a user's chatmates ascending by creation time, most
// recently created last, capped at limit.
func (db *DB) GetChatmates(userID string, limit int) ([]models.Chatmate, error) {
	if limit <= 0 {
		limit = 10
	}

	const query = `
		SELECT id, user_id, language, created_at
		FROM chatmate
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := db.Query(query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	defer rows.Close()

	chatmates := make([]models.Chatmate, 0, limit)
	for rows.Next() {
		var cm models.Chatmate
		if err := rows.Scan(&cm.ID, &cm.UserID, &cm.Language, &cm.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrRepo)
		}
		chatmates = append(chatmates, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrRepo)
	}
	return chatmates, nil
}
