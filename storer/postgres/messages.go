package postgres

import (
	"context"
	"fmt"

	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
)

var messages = storer.KindMessage.Collection()

const messageColumns = "id, conversation_id, sender, content, sent_at"

type messageRepository struct {
	p *postgresStorer
}

func (r *messageRepository) Get(ctx context.Context, id string) (storer.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storer.Message{}, fmt.Errorf("%w: message %s", storer.ErrNotFound, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, messages)

	msg, err := scanMessage(r.p.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return storer.Message{}, classify(err)
	}

	return msg, nil
}

func (r *messageRepository) Create(ctx context.Context, msg storer.Message) (storer.Message, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, sender, content)
		VALUES ($1, $2, $3)
		RETURNING %s
	`, messages, messageColumns)

	created, err := scanMessage(r.p.conn.QueryRowContext(ctx, query, msg.ConversationId, string(msg.Sender), msg.Content))
	if err != nil {
		return storer.Message{}, classify(err)
	}

	return created, nil
}

func scanMessage(row rowScanner) (storer.Message, error) {
	var msg storer.Message
	var sender string

	if err := row.Scan(&msg.Id, &msg.ConversationId, &sender, &msg.Content, &msg.SentAt); err != nil {
		return storer.Message{}, err
	}

	msg.Sender = storer.Sender(sender)

	return msg, nil
}
