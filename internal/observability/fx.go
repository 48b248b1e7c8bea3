package observability

import (
	"github.com/smallbiznis/fiscal/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(metrics.Emission),
)
