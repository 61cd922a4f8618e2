package events

import (
	"go.uber.org/zap"
)

// AuditHandler writes membership changes to the log.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger.Named("audit")}
}

// Handles returns the membership and world lifecycle event types.
func (h *AuditHandler) Handles() []string {
	return []string{
		TypeWorldCreated,
		TypeWorldDeleted,
		TypeMemberInvited,
		TypeInviteAccepted,
		TypeInviteDeclined,
		TypeMemberKicked,
		TypeMemberLeft,
	}
}

// Handle logs the event.
func (h *AuditHandler) Handle(event Event) error {
	fields := []zap.Field{
		zap.String("event", event.EventType()),
		zap.String("world_id", event.WorldID().String()),
		zap.String("actor_id", event.ActorID()),
		zap.Time("at", event.OccurredAt()),
	}
	if m, ok := event.(*MembershipEvent); ok {
		fields = append(fields,
			zap.String("membership_id", m.MembershipID.String()),
			zap.String("user_id", m.UserID),
		)
	}
	h.logger.Info("audit", fields...)
	return nil
}
