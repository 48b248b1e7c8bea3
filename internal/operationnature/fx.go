package operationnature

import (
	"github.com/smallbiznis/fiscal/internal/operationnature/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("operationnature",
	fx.Provide(repository.NewRepository),
)
