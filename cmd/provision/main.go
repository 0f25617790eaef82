// cmd/provision/main.go
//
// provision creates a drop end to end on devnet/mainnet:
//
//	provision -config drop.yaml -cache cache.json [-assets ./assets -bucket my-bucket]
//
// Progress is checkpointed into the cache file, so a failed run can be
// re-run and picks up where it stopped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/types"
	"gopkg.in/yaml.v3"

	"storefront/internal/adapters/out/gcs"
	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/guard"
	solanainfra "storefront/internal/infra/solana"
)

func main() {
	var (
		configPath = flag.String("config", "drop.yaml", "drop configuration (yaml)")
		cachePath  = flag.String("cache", "cache.json", "provisioning checkpoint file")
		assetsDir  = flag.String("assets", "", "directory of item assets (N.png / N.json); empty skips upload")
		bucket     = flag.String("bucket", "", "GCS bucket for hosted assets")
		rpcURL     = flag.String("rpc", "https://api.devnet.solana.com", "Solana RPC endpoint")
		keyFile    = flag.String("key", "key.json", "authority keypair file (solana-keygen format)")
		keySecret  = flag.String("key-secret", os.Getenv("SOLANA_WALLET_KEY_SECRET"), "Secret Manager version path; overrides -key")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, *configPath, *cachePath, *assetsDir, *bucket, *rpcURL, *keyFile, *keySecret); err != nil {
		log.Fatalf("[provision] FAILED: %v", err)
	}
	log.Printf("[provision] done")
}

func run(ctx context.Context, configPath, cachePath, assetsDir, bucket, rpcURL, keyFile, keySecret string) error {
	cfg, err := loadDropConfig(configPath)
	if err != nil {
		return err
	}
	cache, err := loadCache(cachePath)
	if err != nil {
		return err
	}

	authority, err := loadAuthority(ctx, keyFile, keySecret)
	if err != nil {
		return err
	}
	log.Printf("[provision] authority=%s drop=%s items=%d", authority.PublicKey.ToBase58(), cfg.Name, cfg.ItemsAvailable)

	prov := &solanainfra.Provisioner{
		RPC:       client.NewClient(rpcURL),
		Authority: authority,
	}

	// 1. Asset upload (optional, skipped when already done)
	if assetsDir != "" && len(cache.MetadataURLs) == 0 {
		if bucket == "" {
			return fmt.Errorf("-assets requires -bucket")
		}
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("storage.NewClient: %w", err)
		}
		defer gcsClient.Close()

		repo := gcs.NewAssetRepositoryGCS(gcsClient, bucket)
		urls, err := repo.UploadDir(ctx, cfg.Name, assetsDir)
		if err != nil {
			return err
		}
		cache.MetadataURLs = urls
		if err := saveCache(cachePath, cache); err != nil {
			return err
		}
		log.Printf("[provision] uploaded %d metadata files", len(urls))
	}

	// 2. Collection NFT
	if cache.CollectionMint == "" {
		mint, sig, err := prov.CreateCollection(ctx, solanainfra.CollectionInput{
			Name:                 cfg.Name,
			Symbol:               cfg.Symbol,
			URI:                  cfg.CollectionURI,
			SellerFeeBasisPoints: cfg.SellerFeeBasisPoints,
		})
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		cache.CollectionMint = mint
		cache.CollectionTx = sig
		if err := saveCache(cachePath, cache); err != nil {
			return err
		}
	}

	// 3. Candy machine
	if cache.CandyMachine == "" {
		machine, sig, err := prov.CreateCandyMachine(ctx, solanainfra.MachineInput{
			ItemsAvailable:       cfg.ItemsAvailable,
			Symbol:               cfg.Symbol,
			SellerFeeBasisPoints: cfg.SellerFeeBasisPoints,
			CollectionMint:       cache.CollectionMint,
		})
		if err != nil {
			return fmt.Errorf("create candy machine: %w", err)
		}
		cache.CandyMachine = machine
		cache.CandyMachineTx = sig
		if err := saveCache(cachePath, cache); err != nil {
			return err
		}
	}

	// 4. Candy guard with the group configuration
	guardCfg, err := cfg.guardConfig()
	if err != nil {
		return err
	}
	if cache.CandyGuard == "" {
		addr, sig, err := prov.CreateCandyGuard(ctx, cache.CandyMachine, guardCfg)
		if err != nil {
			return fmt.Errorf("create candy guard: %w", err)
		}
		cache.CandyGuard = addr
		cache.CandyGuardTx = sig
		if err := saveCache(cachePath, cache); err != nil {
			return err
		}
	} else {
		sig, err := prov.UpdateCandyGuard(ctx, cache.CandyGuard, guardCfg)
		if err != nil {
			return fmt.Errorf("update candy guard: %w", err)
		}
		log.Printf("[provision] candy guard updated tx=%s", sig)
	}

	log.Printf("[provision] collection=%s machine=%s guard=%s",
		cache.CollectionMint, cache.CandyMachine, cache.CandyGuard)
	return nil
}

// ------------------------------------------------------
// drop.yaml
// ------------------------------------------------------

type dropConfig struct {
	Name                 string      `yaml:"name"`
	Symbol               string      `yaml:"symbol"`
	SellerFeeBasisPoints uint16      `yaml:"sellerFeeBasisPoints"`
	ItemsAvailable       uint64      `yaml:"itemsAvailable"`
	CollectionURI        string      `yaml:"collectionUri"`
	Default              guardSpec   `yaml:"default"`
	Groups               []groupSpec `yaml:"groups"`
}

type groupSpec struct {
	Label  string    `yaml:"label"`
	Guards guardSpec `yaml:"guards"`
}

// guardSpec is the yaml-friendly shape of one guard set; amounts are
// human units (SOL, UI token amounts) and converted on the way in.
type guardSpec struct {
	BotTaxSOL       *float64 `yaml:"botTaxSol"`
	SolPaymentSOL   *float64 `yaml:"solPaymentSol"`
	SolDestination  string   `yaml:"solDestination"`
	StartDate       string   `yaml:"startDate"`
	EndDate         string   `yaml:"endDate"`
	MintLimit       *uint64  `yaml:"mintLimit"`
	MintLimitID     uint8    `yaml:"mintLimitId"`
	RedeemedAmount  *uint64  `yaml:"redeemedAmount"`
	AllowlistFile   string   `yaml:"allowlistFile"`
	AddressGate     string   `yaml:"addressGate"`
	GatekeeperNet   string   `yaml:"gatekeeperNetwork"`
	NFTPaymentColl  string   `yaml:"nftPaymentCollection"`
	NFTPaymentDest  string   `yaml:"nftPaymentDestination"`
	NFTGateColl     string   `yaml:"nftGateCollection"`
	NFTBurnColl     string   `yaml:"nftBurnCollection"`
	TokenPayment    *tokenAmountSpec `yaml:"tokenPayment"`
	TokenGate       *tokenAmountSpec `yaml:"tokenGate"`
	TokenBurn       *tokenAmountSpec `yaml:"tokenBurn"`
}

type tokenAmountSpec struct {
	Amount         uint64 `yaml:"amount"` // base units
	Mint           string `yaml:"mint"`
	DestinationATA string `yaml:"destinationAta"`
}

func loadDropConfig(path string) (*dropConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg dropConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Name == "" || cfg.ItemsAvailable == 0 {
		return nil, fmt.Errorf("config %s: name and itemsAvailable are required", path)
	}
	return &cfg, nil
}

func (c *dropConfig) guardConfig() (guard.Config, error) {
	def, err := c.Default.toRuleSet()
	if err != nil {
		return guard.Config{}, fmt.Errorf("default guards: %w", err)
	}
	cfg := guard.Config{Default: def}
	for _, g := range c.Groups {
		rules, err := g.Guards.toRuleSet()
		if err != nil {
			return guard.Config{}, fmt.Errorf("group %s: %w", g.Label, err)
		}
		cfg.Groups = append(cfg.Groups, guard.Group{Label: g.Label, Guards: rules})
	}
	return cfg, nil
}

func (s guardSpec) toRuleSet() (guard.RuleSet, error) {
	var out guard.RuleSet

	if s.BotTaxSOL != nil {
		out.BotTax = &guard.BotTaxGuard{
			Lamports:        uint64(*s.BotTaxSOL * guard.LamportsPerSOL),
			LastInstruction: true,
		}
	}
	if s.SolPaymentSOL != nil {
		if s.SolDestination == "" {
			return out, fmt.Errorf("solPaymentSol requires solDestination")
		}
		out.SolPayment = &guard.SolPaymentGuard{
			Lamports:    uint64(*s.SolPaymentSOL * guard.LamportsPerSOL),
			Destination: s.SolDestination,
		}
	}
	if s.StartDate != "" {
		t, err := time.Parse(time.RFC3339, s.StartDate)
		if err != nil {
			return out, fmt.Errorf("startDate: %w", err)
		}
		out.StartDate = &guard.StartDateGuard{Date: t.UTC()}
	}
	if s.EndDate != "" {
		t, err := time.Parse(time.RFC3339, s.EndDate)
		if err != nil {
			return out, fmt.Errorf("endDate: %w", err)
		}
		out.EndDate = &guard.EndDateGuard{Date: t.UTC()}
	}
	if s.MintLimit != nil {
		out.MintLimit = &guard.MintLimitGuard{ID: s.MintLimitID, Limit: *s.MintLimit}
	}
	if s.RedeemedAmount != nil {
		out.RedeemedAmount = &guard.RedeemedAmountGuard{Maximum: *s.RedeemedAmount}
	}
	if s.AllowlistFile != "" {
		root, err := merkleRootFromFile(s.AllowlistFile)
		if err != nil {
			return out, err
		}
		out.AllowList = &guard.AllowListGuard{MerkleRoot: root}
	}
	if s.AddressGate != "" {
		out.AddressGate = &guard.AddressGateGuard{Address: s.AddressGate}
	}
	if s.GatekeeperNet != "" {
		out.Gatekeeper = &guard.GatekeeperGuard{Network: s.GatekeeperNet, ExpireOnUse: true}
	}
	if s.NFTPaymentColl != "" {
		out.NFTPayment = &guard.NFTPaymentGuard{
			RequiredCollection: s.NFTPaymentColl,
			Destination:        s.NFTPaymentDest,
		}
	}
	if s.NFTGateColl != "" {
		out.NFTGate = &guard.NFTGateGuard{RequiredCollection: s.NFTGateColl}
	}
	if s.NFTBurnColl != "" {
		out.NFTBurn = &guard.NFTBurnGuard{RequiredCollection: s.NFTBurnColl}
	}
	if s.TokenPayment != nil {
		out.TokenPayment = &guard.TokenPaymentGuard{
			Amount:         s.TokenPayment.Amount,
			Mint:           s.TokenPayment.Mint,
			DestinationATA: s.TokenPayment.DestinationATA,
		}
	}
	if s.TokenGate != nil {
		out.TokenGate = &guard.TokenGateGuard{
			Amount: s.TokenGate.Amount,
			Mint:   s.TokenGate.Mint,
		}
	}
	if s.TokenBurn != nil {
		out.TokenBurn = &guard.TokenBurnGuard{
			Amount: s.TokenBurn.Amount,
			Mint:   s.TokenBurn.Mint,
		}
	}
	return out, nil
}

func merkleRootFromFile(path string) ([32]byte, error) {
	var root [32]byte
	raw, err := os.ReadFile(path)
	if err != nil {
		return root, fmt.Errorf("read allowlist %s: %w", path, err)
	}
	var addresses []string
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return root, fmt.Errorf("parse allowlist %s: %w", path, err)
	}
	tree, err := allowlist.NewTree(addresses)
	if err != nil {
		return root, fmt.Errorf("allowlist %s: %w", path, err)
	}
	return tree.Root(), nil
}

// ------------------------------------------------------
// cache.json
// ------------------------------------------------------

type provisionCache struct {
	MetadataURLs   []string `json:"metadataUrls,omitempty"`
	CollectionMint string   `json:"collectionMint,omitempty"`
	CollectionTx   string   `json:"collectionTx,omitempty"`
	CandyMachine   string   `json:"candyMachine,omitempty"`
	CandyMachineTx string   `json:"candyMachineTx,omitempty"`
	CandyGuard     string   `json:"candyGuard,omitempty"`
	CandyGuardTx   string   `json:"candyGuardTx,omitempty"`
}

func loadCache(path string) (*provisionCache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &provisionCache{}, nil
		}
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	var cache provisionCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", path, err)
	}
	return &cache, nil
}

func saveCache(path string, cache *provisionCache) error {
	raw, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	return nil
}

func loadAuthority(ctx context.Context, keyFile, keySecret string) (types.Account, error) {
	if keySecret != "" {
		return solanainfra.LoadKeypairSecret(ctx, keySecret)
	}
	return solanainfra.LoadKeypairFile(keyFile)
}
