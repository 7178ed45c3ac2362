package client

import (
	"github.com/billfold/billfold/internal/client/repository"
	"github.com/billfold/billfold/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
