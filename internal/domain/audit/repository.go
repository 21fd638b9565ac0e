package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository appends and reads audit entries
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	FindByResource(ctx context.Context, resourceType string, resourceID uuid.UUID) ([]Entry, error)
}
