package credit

import (
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.service",
	fx.Provide(service.NewService),
)
