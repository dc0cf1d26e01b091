package mirror

import (
	"context"

	"github.com/smallbiznis/brewlink/internal/telemetry"
)

// Sink copies accepted sensor samples to a secondary store. Failures never
// block ingestion.
type Sink interface {
	Name() string
	Mirror(ctx context.Context, sample telemetry.Sample) error
}
