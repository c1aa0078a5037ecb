package repository

import (
	"context"

	"ddjj/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	CreateBatch(ctx context.Context, notifications []model.Notification) error
	List(ctx context.Context, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return GetDB(ctx, r.db).Create(notification).Error
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&notifications).Error
}

// List returns unread notifications first, newest first within each group.
func (r *notificationRepository) List(ctx context.Context, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("is_read asc").Order("created_at desc").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Notification{}).Where("id = ?", id).Update("is_read", true)
	return res.RowsAffected, res.Error
}
