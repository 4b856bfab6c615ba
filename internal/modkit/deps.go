// Package modkit provides module wiring and core deps
package modkit

import (
	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/config"
	"mdms/internal/platform/logger"
	"mdms/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Memory is set when PG is the in process runner, repos must bind their memory doubles
	Memory bool
}

// FromStore copies the backends of an opened store into Deps
func FromStore(s *store.Store, cfg config.Conf) Deps {
	return Deps{Log: s.Log, Cfg: cfg, PG: s.PG, CH: s.CH, Memory: s.Memory}
}

// Binder picks the repo binder matching the backend behind PG
func Binder[T any](d Deps, pg, mem repokit.Binder[T]) repokit.Binder[T] {
	if d.Memory {
		return mem
	}
	return pg
}
