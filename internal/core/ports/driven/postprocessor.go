package driven

import (
	"context"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// PagePostProcessor transforms page data before it is stored.
type PagePostProcessor interface {
	// Name identifies the processor in errors and configuration.
	Name() string

	// Process modifies data in place.
	Process(ctx context.Context, data *domain.PageData) error
}
