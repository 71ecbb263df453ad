package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/resourcemart/storefront/internal/auth"
	"github.com/resourcemart/storefront/internal/cart"
	"github.com/resourcemart/storefront/internal/catalog"
	"github.com/resourcemart/storefront/internal/client"
	"github.com/resourcemart/storefront/internal/config"
	"github.com/resourcemart/storefront/internal/logging"
	"github.com/resourcemart/storefront/internal/persist"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Digital resource marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newCartCmd())
	root.AddCommand(newLoginCmd())
	return root
}

// env bundles the client-side stores a command needs.
type env struct {
	cfg     config.Client
	persist *persist.Store
	auth    *auth.Store
	catalog *catalog.Store
	cart    *cart.Store
}

func newEnv() (*env, error) {
	cfg := config.LoadClient()
	log := logging.New(cfg.LogLevel)

	if dir := filepath.Dir(cfg.StatePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	p, err := persist.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	authStore := auth.NewStore(p, auth.WithLogger(log))
	token := authStore.Token()

	return &env{
		cfg:     cfg,
		persist: p,
		auth:    authStore,
		catalog: catalog.NewStore(client.NewCatalogClient(cfg.CatalogURL, token), catalog.WithLogger(log)),
		cart:    cart.NewStore(client.NewCartClient(cfg.CartURL, token), p, cart.WithLogger(log)),
	}, nil
}

func (e *env) close() {
	if e.persist != nil {
		_ = e.persist.Close()
	}
}
