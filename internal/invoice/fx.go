package invoice

import (
	"github.com/smallbiznis/fiscal/internal/invoice/repository"
	"github.com/smallbiznis/fiscal/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewEventRepository),
	fx.Provide(repository.NewSequenceRepository),
	fx.Provide(service.New),
)
