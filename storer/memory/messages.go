package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
)

type messageRepository struct {
	s *memoryStorer
}

func (r *messageRepository) Get(ctx context.Context, id string) (storer.Message, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	msg, ok := r.s.messages[id]
	if !ok {
		return storer.Message{}, fmt.Errorf("%w: message %s", storer.ErrNotFound, id)
	}

	return msg, nil
}

func (r *messageRepository) Create(ctx context.Context, msg storer.Message) (storer.Message, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if len(msg.Id) == 0 {
		msg.Id = uuid.New().String()
	}

	if _, exists := r.s.messages[msg.Id]; exists {
		return storer.Message{}, fmt.Errorf("%w: message %s", storer.ErrDuplicate, msg.Id)
	}

	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	r.s.messages[msg.Id] = msg

	return msg, nil
}
