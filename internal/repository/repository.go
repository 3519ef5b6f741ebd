package repository

import (
	"context"
	"errors"
	"strings"

	"civic-chat/internal/domain"
)

// ReadWriter is the message persistence contract shared by every backend.
type ReadWriter interface {
	RecentMessages(ctx context.Context, ownerID string, limit int) ([]domain.Message, error)
	AppendMessage(ctx context.Context, msg domain.Message) error
}

var (
	_ ReadWriter = (*DynamoClient)(nil)
	_ ReadWriter = (*PostgresStore)(nil)
)

func validateMessage(msg domain.Message) error {
	if strings.TrimSpace(msg.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	switch msg.Role {
	case domain.RoleUser, domain.RoleAssistant:
	default:
		return errors.New("role must be user or assistant")
	}
	return nil
}

func reverse(msgs []domain.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
