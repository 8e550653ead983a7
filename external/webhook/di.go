package webhook

import (
	"github.com/samber/do/v2"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/webhook"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (webhook.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPSender(c.EventWebhookURL), nil
	})
}
