package usage

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
