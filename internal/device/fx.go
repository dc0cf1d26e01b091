package device

import (
	"github.com/smallbiznis/brewlink/internal/device/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("device.repository",
	fx.Provide(repository.Provide),
)
