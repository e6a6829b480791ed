package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "worth:presence"

// PresenceMirror writes the nick-to-state map into one Redis hash. Each
// update replaces the hash so stale fields never linger after a restart.
type PresenceMirror struct {
	client *redis.Client
}

func NewPresenceMirror(client *redis.Client) *PresenceMirror {
	return &PresenceMirror{client: client}
}

func (m *PresenceMirror) Mirror(ctx context.Context, presence map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, presenceKey)
	if len(presence) > 0 {
		flat := make([]any, 0, len(presence)*2)
		for nick, state := range presence {
			flat = append(flat, nick, state)
		}
		pipe.HSet(ctx, presenceKey, flat...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror presence: %w", err)
	}
	return nil
}
