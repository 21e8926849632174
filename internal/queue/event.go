// Package queue defines the admin audit events exchanged over the message
// broker and the consumer that records them.
package queue

// Audit actions.
const (
	ActionRoleChanged = "user.role_changed"
	ActionUserDeleted = "user.deleted"
)

// AuditQueueName is the durable queue admin events are published to.
const AuditQueueName = "admin.audit"

// AdminAuditEvent is published after an admin changes a role or deletes a
// user.  It is self-contained so the consumer never needs the database.
type AdminAuditEvent struct {
	Action           string `json:"action"`
	ActorID          uint64 `json:"actor_id"`
	TargetUserID     uint64 `json:"target_user_id"`
	Role             string `json:"role,omitempty"`
	ReviewsDeleted   int64  `json:"reviews_deleted,omitempty"`
	FavoritesDeleted int64  `json:"favorites_deleted,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}
