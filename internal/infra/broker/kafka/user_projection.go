package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	domainuser "gearshare/internal/domain/user"
)

// UserProjectionHandler keeps the local user projection in sync with the
// identity service's event stream. Users are managed upstream; this service
// only needs enough of them to validate booking participants.
type UserProjectionHandler struct {
	Users  domainuser.Repository
	Logger *slog.Logger
}

type userEventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"data"`
}

func (h *UserProjectionHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope userEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("skipping malformed user event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if envelope.Data.ID == "" {
		return nil
	}
	u, err := domainuser.NewUser(domainuser.ID(envelope.Data.ID), envelope.Data.Email, envelope.Data.Name, time.Now().UTC())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("skipping invalid user event", "user_id", envelope.Data.ID, "error", err)
		}
		return nil
	}
	if err := h.Users.Save(ctx, u); err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Debug("user projection updated", "user_id", envelope.Data.ID, "type", envelope.Type)
	}
	return nil
}

var _ MessageHandler = (*UserProjectionHandler)(nil)
