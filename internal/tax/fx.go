package tax

import (
	"github.com/smallbiznis/fiscal/internal/cache"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"github.com/smallbiznis/fiscal/internal/tax/repository"
	"github.com/smallbiznis/fiscal/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax",
	fx.Provide(repository.NewRepository),
	fx.Provide(cache.NewRuleResolverCache),
	fx.Provide(newResolver),
)

func newResolver(repo taxdomain.Repository, rules cache.RuleResolverCache) taxdomain.Resolver {
	return service.NewCachedResolver(service.NewResolver(repo), rules)
}
