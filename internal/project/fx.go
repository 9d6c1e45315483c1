package project

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(service.NewService),
)
