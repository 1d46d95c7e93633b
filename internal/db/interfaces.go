package db

import (
	"context"

	"carebridge-backend-go/internal/models"
)

// AuditRepository defines the interface for audit log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, event models.AuditEvent) error
}
