package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/application/dispatcher"
	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/domain/event"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// NotificationConfig controls staff notifications
type NotificationConfig struct {
	Enabled bool

	// ReceiveIDType applies to ids found in Recipients
	ReceiveIDType string

	// Recipients maps staff name or email to a Lark receive id
	Recipients map[string]string
}

// NotificationService turns task events into staff messages
type NotificationService interface {
	// Register subscribes the service to the task events it notifies on
	Register(d dispatcher.Dispatcher)

	// HandleStatusChanged notifies the assignee of a status transition
	HandleStatusChanged(ctx context.Context, evt *event.Event) error

	// HandleRuleTriggered notifies the assignee that an automation rule fired
	HandleRuleTriggered(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	cfg    NotificationConfig
	sender port.MessageSender
	repo   port.NotificationRepository
	clock  clock.Clock
	logger Logger
}

// NewNotificationService creates a new NotificationService. A disabled config
// produces a service that ignores every event.
func NewNotificationService(cfg NotificationConfig, sender port.MessageSender, repo port.NotificationRepository, c clock.Clock, logger Logger) NotificationService {
	if sender == nil {
		sender = noopSender{}
	}
	if cfg.ReceiveIDType == "" {
		cfg.ReceiveIDType = port.ReceiveIDOpenID
	}
	recipients := make(map[string]string, len(cfg.Recipients))
	for k, v := range cfg.Recipients {
		recipients[strings.ToLower(strings.TrimSpace(k))] = v
	}
	cfg.Recipients = recipients

	return &notificationServiceImpl{
		cfg:    cfg,
		sender: sender,
		repo:   repo,
		clock:  clock.OrReal(c),
		logger: logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeStatusChanged, "notify-status-changed", s.HandleStatusChanged)
	d.SubscribeNamed(event.TypeRuleTriggered, "notify-rule-triggered", s.HandleRuleTriggered)
}

func (s *notificationServiceImpl) HandleStatusChanged(ctx context.Context, evt *event.Event) error {
	if !evt.GetPayloadBool(event.KeyNotify) {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Task status updated\nMember: %s (%s)\nStatus: %s -> %s",
		evt.GetPayloadString(event.KeyMember),
		evt.GetPayloadString(event.KeyHealthPlan),
		evt.GetPayloadString(event.KeyFromStatus),
		evt.GetPayloadString(event.KeyToStatus))
	writeDue(&b, evt)

	return s.deliver(ctx, evt, b.String())
}

func (s *notificationServiceImpl) HandleRuleTriggered(ctx context.Context, evt *event.Event) error {
	if !evt.GetPayloadBool(event.KeyNotify) {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Automation: %s\nMember: %s (%s)\nStatus: %s",
		evt.GetPayloadString(event.KeyRuleName),
		evt.GetPayloadString(event.KeyMember),
		evt.GetPayloadString(event.KeyHealthPlan),
		evt.GetPayloadString(event.KeyToStatus))
	if note := evt.GetPayloadString(event.KeyNote); note != "" {
		fmt.Fprintf(&b, "\nNote: %s", note)
	}
	writeDue(&b, evt)

	return s.deliver(ctx, evt, b.String())
}

func writeDue(b *strings.Builder, evt *event.Event) {
	if due, ok := evt.GetPayloadTime(event.KeyDueDate); ok {
		fmt.Fprintf(b, "\nDue: %s", due.Format("Jan 2, 2006"))
	}
}

// deliver records the message, sends it and records the result
func (s *notificationServiceImpl) deliver(ctx context.Context, evt *event.Event, content string) error {
	if !s.cfg.Enabled {
		return nil
	}
	assignee := evt.GetPayloadString(event.KeyAssignee)
	idType, receiver := s.resolve(assignee)

	now := s.clock.Now()
	n := &entity.Notification{
		TaskID:    evt.TaskID,
		EventType: evt.Type.String(),
		Recipient: receiver,
		Content:   content,
		Status:    entity.NotificationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if receiver == "" {
		n.Status = entity.NotificationSkipped
		n.ErrorMessage = fmt.Sprintf("no receiver for assignee %q", assignee)
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to record notification",
				"error", err,
				"task_id", evt.TaskID)
			return fmt.Errorf("create notification: %w", err)
		}
	}
	if receiver == "" {
		s.logger.Info("Notification skipped",
			"task_id", evt.TaskID,
			"assignee", assignee)
		return nil
	}

	if err := s.sender.SendText(ctx, idType, receiver, content); err != nil {
		s.logger.Error("Failed to send notification",
			"error", err,
			"task_id", evt.TaskID,
			"event_type", evt.Type)
		if s.repo != nil && n.ID > 0 {
			if uerr := s.repo.UpdateStatus(ctx, n.ID, entity.NotificationFailed, err.Error()); uerr != nil {
				s.logger.Error("Failed to update notification status", "error", uerr, "notification_id", n.ID)
			}
		}
		return fmt.Errorf("send notification: %w", err)
	}

	if s.repo != nil && n.ID > 0 {
		if err := s.repo.MarkSent(ctx, n.ID); err != nil {
			s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", n.ID)
		}
	}
	s.logger.Info("Notification sent",
		"task_id", evt.TaskID,
		"event_type", evt.Type,
		"receive_id_type", idType)
	return nil
}

// resolve maps an assignee to a receive id. Configured recipients win;
// an email assignee is addressed by email.
func (s *notificationServiceImpl) resolve(assignee string) (string, string) {
	key := strings.ToLower(strings.TrimSpace(assignee))
	if key == "" {
		return "", ""
	}
	if id, ok := s.cfg.Recipients[key]; ok && id != "" {
		return s.cfg.ReceiveIDType, id
	}
	if utils.IsEmail(key) {
		return port.ReceiveIDEmail, strings.TrimSpace(assignee)
	}
	return "", ""
}

type noopSender struct{}

func (noopSender) SendText(context.Context, string, string, string) error { return nil }
