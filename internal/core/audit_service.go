package core

import (
	"context"
	"fmt"

	"carebridge-backend-go/internal/db"
	"carebridge-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService backed by an AuditRepository.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// RecordEvent persists an audit event.
func (s *auditService) RecordEvent(ctx context.Context, event models.AuditEvent) error {
	if s.auditRepo == nil {
		return fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	if err := s.auditRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record audit event via repository: %w", err)
	}
	return nil
}

// noopAuditService discards events. Used when audit storage is disabled.
type noopAuditService struct{}

// NewNoopAuditService creates an AuditService that records nothing.
func NewNoopAuditService() AuditService {
	return noopAuditService{}
}

func (noopAuditService) RecordEvent(context.Context, models.AuditEvent) error { return nil }
