package party

import (
	"github.com/smallbiznis/fiscal/internal/party/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("party",
	fx.Provide(repository.NewCompanyRepository),
	fx.Provide(repository.NewCounterpartyRepository),
)
