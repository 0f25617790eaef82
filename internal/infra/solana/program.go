// internal/infra/solana/program.go
package solana

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"
	"github.com/near/borsh-go"

	mintapp "storefront/internal/application/mint"
	"storefront/internal/domain/allowlist"
	"storefront/internal/domain/guard"
	"storefront/internal/domain/mintsession"
)

// ------------------------------------------------------
// Wallet adapter
// ------------------------------------------------------

// WalletAdapter is the wallet boundary: it owns the session's signing
// capability (exactly one in-flight signing request at a time) and
// submits assembled transactions.
type WalletAdapter interface {
	PublicKey() common.PublicKey
	// SignAndSend adds the wallet's signature and submits. It returns
	// mintsession.ErrUserRejected when the wallet declines.
	SignAndSend(ctx context.Context, param types.NewTransactionParam) (string, error)
}

// KeypairWallet is a WalletAdapter backed by a local keypair (devnet
// demo sessions; production storefronts sign in the browser).
type KeypairWallet struct {
	Account types.Account
	RPC     *client.Client
}

func (w *KeypairWallet) PublicKey() common.PublicKey {
	return w.Account.PublicKey
}

func (w *KeypairWallet) SignAndSend(ctx context.Context, param types.NewTransactionParam) (string, error) {
	if w == nil || w.RPC == nil {
		return "", fmt.Errorf("keypair wallet: not configured")
	}
	param.Signers = append(param.Signers, w.Account)

	tx, err := types.NewTransaction(param)
	if err != nil {
		return "", fmt.Errorf("keypair wallet: NewTransaction: %w", err)
	}
	sig, err := w.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("keypair wallet: SendTransaction: %w", err)
	}
	return sig, nil
}

// ------------------------------------------------------
// Program client
// ------------------------------------------------------

// mintV2Args is the borsh argument payload of one mint instruction:
// the group label plus per-guard arguments.
type mintV2Args struct {
	Label          string
	MerkleProof    [][32]byte
	NFTBurnMint    *[32]byte
	NFTPaymentMint *[32]byte
	NFTGateMint    *[32]byte
}

// ProgramClient implements the orchestrator's Program port against the
// candy guard program: one mint instruction per unit, submitted as one
// atomic transaction when batching is enabled, else sequentially.
type ProgramClient struct {
	RPC     *client.Client
	Wallet  WalletAdapter
	Machine common.PublicKey
	Guard   common.PublicKey
	Cluster string

	// Batch submits all units in one transaction. Off by default: a
	// full-size batch can exceed the transaction size limit.
	Batch bool

	// Rules supplies the effective rule set for a group label, Proof
	// the wallet's allow-list proof; both are wired from the storefront
	// service.
	Rules func(ctx context.Context, label string) (guard.RuleSet, error)
	Proof func(label, wallet string) allowlist.Proof

	// Settled is invoked after any unit settles (used to invalidate the
	// machine snapshot cache). May be nil.
	Settled func()
}

var _ mintapp.Program = (*ProgramClient)(nil)

// SupportsBatch implements mintapp.Program.
func (p *ProgramClient) SupportsBatch() bool {
	return p != nil && p.Batch
}

// MintBatch implements mintapp.Program: every unit in one transaction.
func (p *ProgramClient) MintBatch(ctx context.Context, req mintsession.Request) ([]mintsession.Receipt, error) {
	instructions := make([]types.Instruction, 0, req.Quantity)
	mints := make([]types.Account, 0, req.Quantity)

	rules, err := p.rules(ctx, req.GroupLabel)
	if err != nil {
		return nil, err
	}

	for i := 0; i < req.Quantity; i++ {
		nftMint := types.NewAccount()
		ix, err := p.mintInstruction(rules, req, i, nftMint.PublicKey)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ix)
		mints = append(mints, nftMint)
	}

	sig, err := p.send(ctx, instructions, mints)
	if err != nil {
		return nil, err
	}

	receipts := make([]mintsession.Receipt, 0, len(mints))
	now := time.Now().UTC()
	for _, m := range mints {
		receipts = append(receipts, mintsession.Receipt{
			ID:        uuid.NewString(),
			Mint:      m.PublicKey.ToBase58(),
			Signature: sig,
			SettledAt: now,
		})
	}
	p.settled()
	return receipts, nil
}

// MintOne implements mintapp.Program: unit i as its own transaction.
func (p *ProgramClient) MintOne(ctx context.Context, req mintsession.Request, i int) (mintsession.Receipt, error) {
	rules, err := p.rules(ctx, req.GroupLabel)
	if err != nil {
		return mintsession.Receipt{}, err
	}

	nftMint := types.NewAccount()
	ix, err := p.mintInstruction(rules, req, i, nftMint.PublicKey)
	if err != nil {
		return mintsession.Receipt{}, err
	}

	sig, err := p.send(ctx, []types.Instruction{ix}, []types.Account{nftMint})
	if err != nil {
		return mintsession.Receipt{}, err
	}

	log.Printf("[program] unit=%d minted nft=%s tx=%s", i, maskShort(nftMint.PublicKey.ToBase58()), maskShort(sig))
	p.settled()
	return mintsession.Receipt{
		ID:        uuid.NewString(),
		Mint:      nftMint.PublicKey.ToBase58(),
		Signature: sig,
		SettledAt: time.Now().UTC(),
	}, nil
}

func (p *ProgramClient) rules(ctx context.Context, label string) (guard.RuleSet, error) {
	if p.Rules == nil {
		return guard.RuleSet{}, nil
	}
	return p.Rules(ctx, label)
}

// mintInstruction builds the candy guard mint instruction for one unit,
// attaching the unit's NFT selections and the wallet's allow-list proof
// as guard arguments.
func (p *ProgramClient) mintInstruction(rules guard.RuleSet, req mintsession.Request, i int, nftMint common.PublicKey) (types.Instruction, error) {
	payer := p.Wallet.PublicKey()

	args := mintV2Args{Label: req.GroupLabel}
	if rules.AllowList != nil && p.Proof != nil {
		for _, node := range p.Proof(req.GroupLabel, req.Wallet) {
			args.MerkleProof = append(args.MerkleProof, node)
		}
	}

	sel := req.Selection(i)
	if sel.Burn != nil {
		k := common.PublicKeyFromString(*sel.Burn)
		var b [32]byte
		copy(b[:], k.Bytes())
		args.NFTBurnMint = &b
	}
	if sel.Payment != nil {
		k := common.PublicKeyFromString(*sel.Payment)
		var b [32]byte
		copy(b[:], k.Bytes())
		args.NFTPaymentMint = &b
	}
	if sel.Gate != nil {
		k := common.PublicKeyFromString(*sel.Gate)
		var b [32]byte
		copy(b[:], k.Bytes())
		args.NFTGateMint = &b
	}

	body, err := borsh.Serialize(args)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program: serialize mint args: %w", err)
	}
	data := append(anchorDiscriminator("mint_v2"), body...)

	metadata, err := token_metadata.GetTokenMetaPubkey(nftMint)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program: metadata pda: %w", err)
	}
	masterEdition, err := token_metadata.GetMasterEdition(nftMint)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program: master edition pda: %w", err)
	}
	ata, _, err := common.FindAssociatedTokenAddress(payer, nftMint)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("program: associated token address: %w", err)
	}

	accounts := []types.AccountMeta{
		{PubKey: p.Guard, IsSigner: false, IsWritable: false},
		{PubKey: p.Machine, IsSigner: false, IsWritable: true},
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: nftMint, IsSigner: true, IsWritable: true},
		{PubKey: metadata, IsSigner: false, IsWritable: true},
		{PubKey: masterEdition, IsSigner: false, IsWritable: true},
		{PubKey: ata, IsSigner: false, IsWritable: true},
		{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
		{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
	}

	// Payment destinations ride along as remaining accounts so the
	// program can settle transfers in the same instruction.
	if g := rules.SolPayment; g != nil {
		accounts = append(accounts, types.AccountMeta{
			PubKey: common.PublicKeyFromString(g.Destination), IsWritable: true,
		})
	}
	if g := rules.TokenPayment; g != nil {
		accounts = append(accounts, types.AccountMeta{
			PubKey: common.PublicKeyFromString(g.DestinationATA), IsWritable: true,
		})
	}

	return types.Instruction{
		ProgramID: common.PublicKeyFromString(CandyGuardProgramID),
		Accounts:  accounts,
		Data:      data,
	}, nil
}

// send assembles and submits one transaction signed by the wallet and
// the freshly generated NFT mint accounts.
func (p *ProgramClient) send(ctx context.Context, instructions []types.Instruction, mints []types.Account) (string, error) {
	if p == nil || p.RPC == nil || p.Wallet == nil {
		return "", fmt.Errorf("program: not configured")
	}

	latest, err := p.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("program: GetLatestBlockhash: %w", err)
	}

	sig, err := p.Wallet.SignAndSend(ctx, types.NewTransactionParam{
		Signers: mints,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        p.Wallet.PublicKey(),
			RecentBlockhash: latest.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		if errors.Is(err, mintsession.ErrUserRejected) {
			return "", mintsession.ErrUserRejected
		}
		// Anything the chain rejected is surfaced verbatim.
		return "", &mintsession.ProgramError{Message: err.Error()}
	}
	return sig, nil
}

func (p *ProgramClient) settled() {
	if p.Settled != nil {
		p.Settled()
	}
}

// anchorDiscriminator derives the 8-byte instruction discriminator the
// anchor convention prescribes: sha256("global:<name>")[:8].
func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}
