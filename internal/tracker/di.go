package tracker

import (
	"github.com/samber/do/v2"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		return NewService(repo, SystemClock(), Options{
			Location:          cfg.Location(),
			Vocabulary:        cfg.Vocabulary,
			AllowCustomStates: cfg.AllowCustomStates,
			PendingEditTTL:    cfg.PendingEditTimeout(),
		}), nil
	})
}
