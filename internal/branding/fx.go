package branding

import (
	"github.com/billfold/billfold/internal/branding/repository"
	"github.com/billfold/billfold/internal/branding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("branding.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
