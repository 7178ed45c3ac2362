package auth

import (
	"github.com/billfold/billfold/internal/auth/repository"
	"github.com/billfold/billfold/internal/auth/service"
	"github.com/billfold/billfold/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
