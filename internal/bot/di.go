package bot

import (
	"github.com/samber/do/v2"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/tracker"
	"github.com/utyara3/TimeTracker/internal/webhook"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		svc := do.MustInvoke[*tracker.Service](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewManager(cfg.DiscordGuildID, svc, wh), nil
	})
}
