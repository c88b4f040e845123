package domain

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEventType тип события безопасности
type SecurityEventType string

const (
	SecurityEventAuthFailed       SecurityEventType = "auth_failed"
	SecurityEventForbidden        SecurityEventType = "forbidden"
	SecurityEventBlockedIPHit     SecurityEventType = "blocked_ip_hit"
	SecurityEventWebhookSigFailed SecurityEventType = "webhook_signature_failed"
	SecurityEventIPBlocked        SecurityEventType = "ip_blocked"
	SecurityEventIPUnblocked      SecurityEventType = "ip_unblocked"
	SecurityEventConfigChanged    SecurityEventType = "config_changed"
	SecurityEventChallengeCreated SecurityEventType = "challenge_created"
)

// SecurityLog запись журнала безопасности
type SecurityLog struct {
	ID        int64             `db:"id" json:"id"`
	EventType SecurityEventType `db:"event_type" json:"event_type"`
	IP        string            `db:"ip" json:"ip"`
	UserID    *uuid.UUID        `db:"user_id" json:"user_id,omitempty"`
	Detail    string            `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// BlockedIP заблокированный IP адрес
type BlockedIP struct {
	IP        string    `db:"ip" json:"ip"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlockIPRequest запрос на блокировку IP
type BlockIPRequest struct {
	IP     string `json:"ip" validate:"required,ip"`
	Reason string `json:"reason"`
}

// SecurityLogFilter фильтр выборки журнала безопасности
type SecurityLogFilter struct {
	Limit     int
	Page      int
	EventType string
}
