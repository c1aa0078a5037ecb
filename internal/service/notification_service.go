package service

import (
	"context"

	"ddjj/internal/apperr"
	"ddjj/internal/notify"
	"ddjj/internal/repository"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Read      bool   `json:"read"`
	CUIT      string `json:"cuit"`
	TradeCode string `json:"trade_code"`
	Amount    string `json:"amount"`
	Month     string `json:"month"`
	CreatedAt string `json:"created_at"`
}

type NotificationService interface {
	GetNotifications(ctx context.Context, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher notify.Publisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher notify.Publisher) NotificationService {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &notificationService{repo: repo, publisher: publisher}
}

// GetNotifications lists unread entries first, newest first.
func (s *notificationService) GetNotifications(ctx context.Context, page, limit int) ([]NotificationResponse, int64, error) {
	items, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Persistence("list notifications", err)
	}

	res := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		res = append(res, NotificationResponse{
			ID:        n.ID.String(),
			Kind:      n.Kind,
			Read:      n.Read,
			CUIT:      n.CUIT,
			TradeCode: n.TradeCode,
			Amount:    n.Amount.StringFixed(2),
			Month:     n.MonthLabel,
			CreatedAt: n.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid notification id %q", id)
	}
	affected, err := s.repo.MarkRead(ctx, notificationID)
	if err != nil {
		return apperr.Persistence("mark notification read", err)
	}
	if affected == 0 {
		return apperr.NotFound("notification %s", id)
	}
	s.publisher.Publish(ctx, notify.NewEvent(notify.EventNotificationRead, map[string]string{"id": id}))
	return nil
}
