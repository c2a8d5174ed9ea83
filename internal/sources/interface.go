package sources

import (
	"context"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
)

// Source interface defines the contract for all metrics adapters. Fetch never
// returns an error: every upstream failure is recovered into the record's
// Status and Reason fields at this boundary.
type Source interface {
	GetName() string
	Platform() models.Platform
	IsEnabled() bool
	Fetch(ctx context.Context, streamID string) *models.MetricsRecord
}
