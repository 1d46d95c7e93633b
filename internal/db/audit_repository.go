package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"carebridge-backend-go/internal/models"
)

const auditCollection = "auth_audit_events"

// firestoreAuditRepository implements the AuditRepository interface using
// Firestore. The event ID is used as the document ID so replayed publishes
// stay idempotent.
type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates a new firestoreAuditRepository.
func NewFirestoreAuditRepository(client *firestore.Client) (AuditRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for AuditRepository")
	}
	return &firestoreAuditRepository{client: client}, nil
}

// Create adds a new audit event document to Firestore. The Timestamp field
// carries the serverTimestamp tag, so Firestore sets it on write.
func (r *firestoreAuditRepository) Create(ctx context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		return errors.New("audit event ID cannot be empty")
	}
	_, err := r.client.Collection(auditCollection).Doc(event.ID).Create(ctx, event)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			// Same event recorded twice; the first write wins.
			return nil
		}
		return fmt.Errorf("failed to create audit event '%s': %w", event.ID, err)
	}
	return nil
}
