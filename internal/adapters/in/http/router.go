// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"storefront/internal/adapters/in/http/handlers"
	mintapp "storefront/internal/application/mint"
	"storefront/internal/application/storefront"
)

// RouterDeps collects the services injected from the DI container.
// A nil service leaves its endpoints unmounted; /healthz is always on
// so the process reports ready even while wiring is degraded.
type RouterDeps struct {
	Storefront   *storefront.Service
	Orchestrator *mintapp.Orchestrator
	Cluster      string
}

// NewRouter sets up HTTP routing for the storefront endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.Storefront != nil {
		mux.Handle("/storefront/state", handlers.NewStateHandler(deps.Storefront))
	}
	if deps.Storefront != nil && deps.Orchestrator != nil {
		mux.Handle("/storefront/mint", handlers.NewMintHandler(deps.Orchestrator, deps.Cluster))
	}

	return mux
}
