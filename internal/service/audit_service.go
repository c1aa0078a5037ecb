package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ddjj/internal/model"
	"ddjj/internal/repository"

	"github.com/rs/zerolog"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
	Record(ctx context.Context, actor, action, entityID, entityName string, details interface{})
}

type auditService struct {
	repo repository.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, log zerolog.Logger) AuditService {
	return &auditService{repo: repo, log: log}
}

// GetAuditLogs returns one page of entries, newest first.
func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actor := l.Actor
		if actor == "" {
			actor = "System"
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			Actor:      actor,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}

// Record writes an audit entry. Best effort: a failure is logged and never
// fails the audited operation.
func (s *auditService) Record(ctx context.Context, actor, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if err := s.repo.Log(ctx, &entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("failed to write audit log")
	}
}
