package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// ChatRepository stores chat history so consecutive invocations continue one
// conversation per pathway.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new [ChatRepository] with the given database connection
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append adds messages to the end of a pathway's conversation.
func (r *ChatRepository) Append(pathwayID string, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		var last int
		err := tx.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM chat_messages WHERE pathway_id = ?`, pathwayID).Scan(&last)
		if err != nil {
			return fmt.Errorf("failed to read chat position: %w", err)
		}

		now := time.Now().UTC()
		for i, m := range msgs {
			_, err := tx.Exec(
				`INSERT INTO chat_messages (id, pathway_id, position, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				shared.GenerateID(), pathwayID, last+i+1, m.Role, m.Content, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chat message: %w", err)
			}
		}
		return nil
	})
}

// History returns the last limit messages of a conversation in order.
// A non-positive limit returns everything.
func (r *ChatRepository) History(pathwayID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT role, content FROM (
			SELECT role, content, position FROM chat_messages
			WHERE pathway_id = ?
			ORDER BY position DESC
			LIMIT ?
		) ORDER BY position ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(query, pathwayID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	history := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat history: %w", err)
	}
	return history, nil
}

// Clear deletes a pathway's conversation and reports how many messages it had.
func (r *ChatRepository) Clear(pathwayID string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM chat_messages WHERE pathway_id = ?`, pathwayID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat history: %w", err)
	}
	return res.RowsAffected()
}
