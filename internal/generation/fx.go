package generation

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.service",
	fx.Provide(service.NewService),
)
