// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	httpin "storefront/internal/adapters/in/http"
	"storefront/internal/adapters/in/http/middleware"
	mintapp "storefront/internal/application/mint"
	"storefront/internal/application/storefront"
	"storefront/internal/domain/mintsession"
	"storefront/internal/infra/config"
	"storefront/internal/infra/gateway"
	solanainfra "storefront/internal/infra/solana"
)

// Container is the bundle main.go runs: the assembled HTTP handler
// plus the resources it must close on shutdown.
type Container struct {
	Cfg     *config.Config
	Handler http.Handler

	cleanupFn []func()
}

// Close releases container resources on shutdown.
func (c *Container) Close() {
	for _, fn := range c.cleanupFn {
		fn()
	}
}

// Build wires config → chain clients → services → router. The mint
// path degrades gracefully: without a signing key the storefront still
// serves read-only state.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg.CandyMachineID == "" || cfg.CandyGuardID == "" {
		return nil, fmt.Errorf("di: CANDY_MACHINE_ID and CANDY_GUARD_ID are required")
	}

	rpcClient := solanainfra.NewJSONRPCClient(cfg.SolanaRPCEndpoint)
	machine := solanainfra.NewCandyMachineClient(rpcClient, cfg.CandyMachineID, cfg.CandyGuardID, cfg.TokenSymbols)
	wallets := &solanainfra.WalletContextReader{
		RPC:       rpcClient,
		MachineID: cfg.CandyMachineID,
		GuardID:   cfg.CandyGuardID,
	}

	allow, err := config.LoadAllowlists(cfg.AllowlistDir)
	if err != nil {
		return nil, fmt.Errorf("di: load allowlists: %w", err)
	}

	svc := storefront.NewService(machine, wallets, allow, cfg.DefaultGroupLabel)

	orch, err := buildOrchestrator(ctx, cfg, machine, svc)
	if err != nil {
		log.Printf("[di] WARN: mint path disabled: %v", err)
		orch = nil
	}

	deps := httpin.RouterDeps{
		Storefront:   svc,
		Orchestrator: orch,
		Cluster:      cfg.SolanaCluster,
	}

	handler := middleware.CORS(cfg.AllowedOrigin)(middleware.Recover(httpin.NewRouter(deps)))

	return &Container{
		Cfg:     cfg,
		Handler: handler,
	}, nil
}

// buildOrchestrator assembles the signing wallet, the program client,
// and (when configured) the gateway handshake.
func buildOrchestrator(ctx context.Context, cfg *config.Config, machine *solanainfra.CandyMachineClient, svc *storefront.Service) (*mintapp.Orchestrator, error) {
	account, err := loadSessionKey(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bloctoClient := client.NewClient(cfg.SolanaRPCEndpoint)
	wallet := &solanainfra.KeypairWallet{Account: account, RPC: bloctoClient}

	program := &solanainfra.ProgramClient{
		RPC:     bloctoClient,
		Wallet:  wallet,
		Machine: common.PublicKeyFromString(cfg.CandyMachineID),
		Guard:   common.PublicKeyFromString(cfg.CandyGuardID),
		Cluster: cfg.SolanaCluster,
		Batch:   cfg.BatchMint,
		Rules:   svc.Rules,
		Proof:   svc.Proof,
		Settled: machine.Invalidate,
	}

	var source mintapp.GatewayTokenSource
	needsGateway := false
	if cfg.GatewayBaseURL != "" {
		network := gatekeeperNetwork(ctx, svc, cfg.DefaultGroupLabel)
		if network != "" {
			source = gateway.NewClient(cfg.GatewayBaseURL, network)
			needsGateway = true
		}
	}

	orch := mintapp.NewOrchestrator(program, source, needsGateway,
		mintapp.WithFirstSettledHook(func(receipts []mintsession.Receipt) {
			log.Printf("[di] first mint settled (%d receipt(s))", len(receipts))
		}),
	)

	log.Printf("[di] mint path ready wallet=%s gateway=%t batch=%t",
		wallet.PublicKey().ToBase58(), needsGateway, cfg.BatchMint)
	return orch, nil
}

func loadSessionKey(ctx context.Context, cfg *config.Config) (account types.Account, err error) {
	switch {
	case cfg.WalletKeySecret != "":
		return solanainfra.LoadKeypairSecret(ctx, cfg.WalletKeySecret)
	case cfg.WalletKeyFile != "":
		return solanainfra.LoadKeypairFile(cfg.WalletKeyFile)
	default:
		return account, fmt.Errorf("no signing key configured (SOLANA_WALLET_KEY_SECRET or SOLANA_WALLET_KEY_FILE)")
	}
}

// gatekeeperNetwork reads the effective rule set once to find the
// gatekeeper network; an unreachable chain just disables the handshake
// until restart.
func gatekeeperNetwork(ctx context.Context, svc *storefront.Service, label string) string {
	rules, err := svc.Rules(ctx, label)
	if err != nil {
		log.Printf("[di] WARN: gatekeeper lookup failed: %v", err)
		return ""
	}
	if rules.Gatekeeper == nil {
		return ""
	}
	return rules.Gatekeeper.Network
}
