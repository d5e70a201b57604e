package service

import (
	"context"

	"go.uber.org/zap"

	"nest/backend/internal/model"
	"nest/backend/internal/repository"
	"nest/backend/pkg/mail"
)

// notifier fans a single event out to the three delivery channels: the
// in-app notifications table, the push queue and email. Delivery failures
// are logged and never propagate — a mutation that already committed must
// not fail because a side channel is down.
type notifier struct {
	notifications repository.NotificationRepository
	push          repository.PushRepository
	mailer        *mail.Mailer
	publisher     ChangePublisher
	logger        *zap.Logger
}

func newNotifier(
	notifications repository.NotificationRepository,
	push repository.PushRepository,
	mailer *mail.Mailer,
	publisher ChangePublisher,
	logger *zap.Logger,
) *notifier {
	return &notifier{
		notifications: notifications,
		push:          push,
		mailer:        mailer,
		publisher:     publisher,
		logger:        logger,
	}
}

// notice is one outbound event addressed to a single user.
type notice struct {
	user        *model.User
	ntype       string
	title       string
	message     string
	relatedType string
	relatedID   string
	metadata    model.JSONMap
	email       bool // also deliver by email
}

func (n *notifier) send(ctx context.Context, ev notice) {
	if ev.user == nil {
		return
	}

	rec := &model.Notification{
		UserID:   ev.user.UserID,
		Type:     ev.ntype,
		Title:    ev.title,
		Message:  ev.message,
		Metadata: ev.metadata,
	}
	if ev.relatedType != "" {
		rec.RelatedType = &ev.relatedType
	}
	if ev.relatedID != "" {
		rec.RelatedID = &ev.relatedID
	}
	if err := n.notifications.Create(ctx, rec); err != nil {
		n.logger.Error("create notification failed",
			zap.String("user_id", ev.user.UserID),
			zap.String("type", ev.ntype),
			zap.Error(err))
	} else {
		n.publisher.Publish("notifications", "INSERT", rec.NotificationID)
	}

	if err := n.push.Enqueue(ctx, &model.PushMessage{
		UserID:  ev.user.UserID,
		Title:   ev.title,
		Body:    ev.message,
		Payload: ev.metadata,
	}); err != nil {
		n.logger.Error("enqueue push failed",
			zap.String("user_id", ev.user.UserID),
			zap.Error(err))
	}

	if ev.email && ev.user.Email != "" {
		body := mail.RenderNotice(ev.title, []string{ev.message}, nil)
		n.mailer.SendAsync(ev.user.Email, ev.title, body)
	}
}

// sendToAll addresses the same notice to every user in the list, typically
// the admin set.
func (n *notifier) sendToAll(ctx context.Context, users []model.User, ev notice) {
	for i := range users {
		ev.user = &users[i]
		n.send(ctx, ev)
	}
}
