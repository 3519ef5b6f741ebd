package domain

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single persisted conversation turn owned by one user.
type Message struct {
	OwnerID   string
	Role      Role
	Content   string
	CreatedAt time.Time
}
