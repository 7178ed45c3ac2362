package activity

import (
	"github.com/billfold/billfold/internal/activity/hub"
	"github.com/billfold/billfold/internal/activity/repository"
	"github.com/billfold/billfold/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(hub.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
