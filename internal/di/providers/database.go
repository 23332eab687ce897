package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/logger"
	"github.com/basegroupapp/basegroup-server/internal/store"
)

// StoreHandle wraps the store to implement do.Shutdowner.
type StoreHandle struct {
	Store *store.Store
}

// Shutdown closes the underlying badger store.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore opens the badger-backed store under the base path.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	st, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}

	log.Info("Store opened", "path", dbPath)
	return &StoreHandle{Store: st}, nil
}
