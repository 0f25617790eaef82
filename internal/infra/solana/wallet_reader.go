// internal/infra/solana/wallet_reader.go
package solana

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"

	"storefront/internal/application/storefront"
	"storefront/internal/domain/eligibility"
	"storefront/internal/domain/guard"
)

// Candy Guard program (Guard1...)
const CandyGuardProgramID = "Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g"

// WalletContextReader implements storefront.WalletReader against the
// Solana RPC: native balance, SPL balances, NFT inventory and the
// wallet's mint-limit counter.
type WalletContextReader struct {
	RPC       RPCClient
	MachineID string
	GuardID   string
}

var _ storefront.WalletReader = (*WalletContextReader)(nil)

// NewWalletContextReader creates the reader for one machine/guard pair.
func NewWalletContextReader(rpc RPCClient, machineID, guardID string) *WalletContextReader {
	return &WalletContextReader{
		RPC:       rpc,
		MachineID: strings.TrimSpace(machineID),
		GuardID:   strings.TrimSpace(guardID),
	}
}

// ReadContext implements storefront.WalletReader. The rule set decides
// how much is fetched: token balances only for referenced mints, NFT
// metadata only when an NFT guard is active, the mint counter only
// under a mint-limit guard.
func (r *WalletContextReader) ReadContext(ctx context.Context, wallet string, rules guard.RuleSet) (eligibility.WalletContext, error) {
	if r == nil || r.RPC == nil {
		return eligibility.WalletContext{}, fmt.Errorf("solana wallet reader: client not configured")
	}
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return eligibility.WalletContext{}, fmt.Errorf("solana wallet reader: wallet is empty")
	}

	out := eligibility.WalletContext{
		Wallet:        wallet,
		TokenBalances: map[string]uint64{},
	}

	lamports, err := r.RPC.GetBalance(ctx, wallet)
	if err != nil {
		return eligibility.WalletContext{}, fmt.Errorf("solana wallet reader: balance: %w", err)
	}
	out.Lamports = lamports

	wantNFTs := rules.NFTPayment != nil || rules.NFTBurn != nil || rules.NFTGate != nil
	wantTokens := referencedMints(rules)

	if len(wantTokens) > 0 || wantNFTs {
		res, err := r.RPC.GetTokenAccountsByOwner(ctx, wallet, TokenProgramID)
		if err != nil {
			return eligibility.WalletContext{}, fmt.Errorf("solana wallet reader: token accounts: %w", err)
		}

		for _, v := range res.Value {
			mint := strings.TrimSpace(v.Account.Data.Parsed.Info.Mint)
			if mint == "" {
				continue
			}
			amount, err := strconv.ParseUint(v.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
			if err != nil || amount == 0 {
				continue
			}

			if _, want := wantTokens[mint]; want {
				out.TokenBalances[mint] += amount
			}

			// NFT candidate: unit amount, zero decimals.
			if wantNFTs && amount == 1 && v.Account.Data.Parsed.Info.TokenAmount.Decimals == 0 {
				collection, err := r.verifiedCollection(ctx, mint)
				if err != nil {
					return eligibility.WalletContext{}, err
				}
				if collection != "" {
					out.NFTs = append(out.NFTs, eligibility.OwnedNFT{Mint: mint, Collection: collection})
				}
			}
		}
	}

	if rules.MintLimit != nil {
		count, err := r.mintCount(ctx, wallet, rules.MintLimit.ID)
		if err != nil {
			return eligibility.WalletContext{}, err
		}
		out.RedeemedByWallet = count
	}

	return out, nil
}

// verifiedCollection resolves an NFT mint's verified collection address
// via its metadata account; empty when the NFT has no verified
// collection (it then satisfies no collection-scoped guard).
func (r *WalletContextReader) verifiedCollection(ctx context.Context, mint string) (string, error) {
	metaPubkey, err := token_metadata.GetTokenMetaPubkey(common.PublicKeyFromString(mint))
	if err != nil {
		return "", fmt.Errorf("solana wallet reader: metadata pda for %s: %w", maskShort(mint), err)
	}

	raw, ok, err := r.RPC.GetAccountInfo(ctx, metaPubkey.ToBase58())
	if err != nil {
		return "", fmt.Errorf("solana wallet reader: fetch metadata for %s: %w", maskShort(mint), err)
	}
	if !ok {
		return "", nil
	}

	meta, err := token_metadata.MetadataDeserialize(raw)
	if err != nil {
		// Not every unit-amount token is a metaplex NFT; skip quietly.
		return "", nil
	}
	if meta.Collection == nil || !meta.Collection.Verified {
		return "", nil
	}
	return meta.Collection.Key.ToBase58(), nil
}

// mintCount reads the wallet's mint-limit counter PDA; absent account
// means zero prior redemptions.
func (r *WalletContextReader) mintCount(ctx context.Context, wallet string, limitID uint8) (uint64, error) {
	if r.GuardID == "" || r.MachineID == "" {
		return 0, nil
	}

	pda, _, err := common.FindProgramAddress(
		[][]byte{
			[]byte("mint_limit"),
			{limitID},
			common.PublicKeyFromString(wallet).Bytes(),
			common.PublicKeyFromString(r.GuardID).Bytes(),
			common.PublicKeyFromString(r.MachineID).Bytes(),
		},
		common.PublicKeyFromString(CandyGuardProgramID),
	)
	if err != nil {
		return 0, fmt.Errorf("solana wallet reader: mint counter pda: %w", err)
	}

	raw, ok, err := r.RPC.GetAccountInfo(ctx, pda.ToBase58())
	if err != nil {
		return 0, fmt.Errorf("solana wallet reader: fetch mint counter: %w", err)
	}
	if !ok {
		return 0, nil
	}

	var counter mintCounterAccount
	if err := decodeAccount(raw, &counter); err != nil {
		return 0, fmt.Errorf("solana wallet reader: mint counter: %w", err)
	}
	return uint64(counter.Count), nil
}

func referencedMints(rules guard.RuleSet) map[string]struct{} {
	out := map[string]struct{}{}
	if rules.TokenPayment != nil {
		out[rules.TokenPayment.Mint] = struct{}{}
	}
	if rules.TokenBurn != nil {
		out[rules.TokenBurn.Mint] = struct{}{}
	}
	if rules.TokenGate != nil {
		out[rules.TokenGate.Mint] = struct{}{}
	}
	return out
}
