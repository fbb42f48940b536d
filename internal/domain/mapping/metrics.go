package mapping

import "github.com/ecotone-audio/ecotone/internal/domain/diversity"

// YearMetrics is the metrics input consumed by the engine.
// Using the diversity type directly for consistency.
type YearMetrics = diversity.YearMetrics
