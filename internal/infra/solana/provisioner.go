// internal/infra/solana/provisioner.go
package solana

import (
	"context"
	"fmt"
	"log"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"

	"storefront/internal/domain/guard"
)

// CandyMachineProgramID is the candy machine core program.
const CandyMachineProgramID = "CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR"

// Provisioner creates and configures the on-chain drop: the collection
// NFT, the candy machine account, and the candy guard account with its
// group configuration. Used by the provision CLI, not the storefront.
type Provisioner struct {
	RPC       *client.Client
	Authority types.Account
}

// CollectionInput describes the collection NFT minted once per drop.
type CollectionInput struct {
	Name                 string
	Symbol               string
	URI                  string // hosted metadata.json URL
	SellerFeeBasisPoints uint16
}

// MachineInput describes the candy machine account body.
type MachineInput struct {
	ItemsAvailable       uint64
	Symbol               string
	SellerFeeBasisPoints uint16
	CollectionMint       string
}

// CreateCollection mints the collection NFT to the authority wallet,
// marking it as a sized collection so minted items can verify into it.
func (p *Provisioner) CreateCollection(ctx context.Context, in CollectionInput) (mintAddr string, signature string, err error) {
	authority := p.Authority
	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(authority.PublicKey, mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("GetMasterEdition: %w", err)
	}

	mintRent, err := p.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", "", fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}
	recent, err := p.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	maxSupply := uint64(0)
	collectionSize := uint64(0)

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{mint, authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     authority.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   authority.PublicKey,
					FreezeAuth: &authority.PublicKey,
				}),
				token_metadata.CreateMetadataAccountV3(
					token_metadata.CreateMetadataAccountV3Param{
						Metadata:                metadataPubkey,
						Mint:                    mint.PublicKey,
						MintAuthority:           authority.PublicKey,
						UpdateAuthority:         authority.PublicKey,
						Payer:                   authority.PublicKey,
						UpdateAuthorityIsSigner: true,
						IsMutable:               true,
						Data: token_metadata.DataV2{
							Name:                 in.Name,
							Symbol:               in.Symbol,
							Uri:                  in.URI,
							SellerFeeBasisPoints: in.SellerFeeBasisPoints,
							Creators: &[]token_metadata.Creator{
								{
									Address:  authority.PublicKey,
									Verified: true,
									Share:    100,
								},
							},
						},
						CollectionDetails: &token_metadata.CollectionDetails{
							V1: token_metadata.CollectionDetailsV1{Size: collectionSize},
						},
					},
				),
				associated_token_account.CreateAssociatedTokenAccount(
					associated_token_account.CreateAssociatedTokenAccountParam{
						Funder:                 authority.PublicKey,
						Owner:                  authority.PublicKey,
						Mint:                   mint.PublicKey,
						AssociatedTokenAccount: ata,
					},
				),
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   authority.PublicKey,
					Amount: 1,
				}),
				token_metadata.CreateMasterEditionV3(
					token_metadata.CreateMasterEditionParam{
						Edition:         masterEditionPubkey,
						Mint:            mint.PublicKey,
						UpdateAuthority: authority.PublicKey,
						MintAuthority:   authority.PublicKey,
						Metadata:        metadataPubkey,
						Payer:           authority.PublicKey,
						MaxSupply:       &maxSupply,
					},
				),
			},
		}),
	})
	if err != nil {
		return "", "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := p.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", "", fmt.Errorf("SendTransaction: %w", err)
	}

	log.Printf("[provision] collection minted mint=%s tx=%s", maskShort(mint.PublicKey.ToBase58()), maskShort(sig))
	return mint.PublicKey.ToBase58(), sig, nil
}

// CreateCandyMachine allocates and initializes the machine account.
// The account is created by the authority and handed to the program
// via the initialize instruction.
func (p *Provisioner) CreateCandyMachine(ctx context.Context, in MachineInput) (machineAddr string, signature string, err error) {
	authority := p.Authority
	machine := types.NewAccount()
	programID := common.PublicKeyFromString(CandyMachineProgramID)

	body := candyMachineData{
		ItemsAvailable:       in.ItemsAvailable,
		Symbol:               in.Symbol,
		SellerFeeBasisPoints: in.SellerFeeBasisPoints,
		MaxSupply:            0,
		IsMutable:            true,
	}
	args, err := borsh.Serialize(body)
	if err != nil {
		return "", "", fmt.Errorf("serialize machine data: %w", err)
	}

	space := machineAccountSpace(in.ItemsAvailable)
	rent, err := p.RPC.GetMinimumBalanceForRentExemption(ctx, space)
	if err != nil {
		return "", "", fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}
	recent, err := p.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	collectionMint := common.PublicKeyFromString(in.CollectionMint)
	collectionMetadata, err := token_metadata.GetTokenMetaPubkey(collectionMint)
	if err != nil {
		return "", "", fmt.Errorf("GetTokenMetaPubkey(collection): %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{machine, authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				system.CreateAccount(system.CreateAccountParam{
					From:     authority.PublicKey,
					New:      machine.PublicKey,
					Owner:    programID,
					Lamports: rent,
					Space:    space,
				}),
				{
					ProgramID: programID,
					Accounts: []types.AccountMeta{
						{PubKey: machine.PublicKey, IsSigner: true, IsWritable: true},
						{PubKey: authority.PublicKey, IsSigner: true, IsWritable: true},
						{PubKey: collectionMint, IsSigner: false, IsWritable: false},
						{PubKey: collectionMetadata, IsSigner: false, IsWritable: true},
						{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
						{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
					},
					Data: append(anchorDiscriminator("initialize_v2"), args...),
				},
			},
		}),
	})
	if err != nil {
		return "", "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := p.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", "", fmt.Errorf("SendTransaction: %w", err)
	}

	log.Printf("[provision] candy machine created machine=%s items=%d tx=%s",
		maskShort(machine.PublicKey.ToBase58()), in.ItemsAvailable, maskShort(sig))
	return machine.PublicKey.ToBase58(), sig, nil
}

// CreateCandyGuard initializes the guard account from a group config
// and wraps the machine so mints route through the guard.
func (p *Provisioner) CreateCandyGuard(ctx context.Context, machineAddr string, cfg guard.Config) (guardAddr string, signature string, err error) {
	authority := p.Authority
	guardProgram := common.PublicKeyFromString(CandyGuardProgramID)
	machineProgram := common.PublicKeyFromString(CandyMachineProgramID)
	machine := common.PublicKeyFromString(machineAddr)

	base := types.NewAccount()
	guardPDA, _, err := common.FindProgramAddress(
		[][]byte{[]byte("candy_guard"), base.PublicKey.Bytes()},
		guardProgram,
	)
	if err != nil {
		return "", "", fmt.Errorf("FindProgramAddress(candy_guard): %w", err)
	}

	payload, err := serializeGuardConfig(cfg)
	if err != nil {
		return "", "", err
	}

	recent, err := p.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{base, authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				{
					ProgramID: guardProgram,
					Accounts: []types.AccountMeta{
						{PubKey: guardPDA, IsSigner: false, IsWritable: true},
						{PubKey: base.PublicKey, IsSigner: true, IsWritable: false},
						{PubKey: authority.PublicKey, IsSigner: true, IsWritable: true},
						{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
					},
					Data: append(anchorDiscriminator("initialize"), payload...),
				},
				{
					ProgramID: guardProgram,
					Accounts: []types.AccountMeta{
						{PubKey: guardPDA, IsSigner: false, IsWritable: false},
						{PubKey: authority.PublicKey, IsSigner: true, IsWritable: false},
						{PubKey: machine, IsSigner: false, IsWritable: true},
						{PubKey: machineProgram, IsSigner: false, IsWritable: false},
					},
					Data: anchorDiscriminator("wrap"),
				},
			},
		}),
	})
	if err != nil {
		return "", "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := p.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", "", fmt.Errorf("SendTransaction: %w", err)
	}

	log.Printf("[provision] candy guard created guard=%s groups=%d tx=%s",
		maskShort(guardPDA.ToBase58()), len(cfg.Groups), maskShort(sig))
	return guardPDA.ToBase58(), sig, nil
}

// UpdateCandyGuard replaces the guard account's configuration.
func (p *Provisioner) UpdateCandyGuard(ctx context.Context, guardAddr string, cfg guard.Config) (string, error) {
	authority := p.Authority
	guardProgram := common.PublicKeyFromString(CandyGuardProgramID)

	payload, err := serializeGuardConfig(cfg)
	if err != nil {
		return "", err
	}
	recent, err := p.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{authority},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				{
					ProgramID: guardProgram,
					Accounts: []types.AccountMeta{
						{PubKey: common.PublicKeyFromString(guardAddr), IsSigner: false, IsWritable: true},
						{PubKey: authority.PublicKey, IsSigner: true, IsWritable: true},
						{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
					},
					Data: append(anchorDiscriminator("update"), payload...),
				},
			},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := p.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}
	return sig, nil
}

// machineAccountSpace sizes the machine account: header plus the
// hidden-settings name/uri table, 4 config lines minimum.
func machineAccountSpace(items uint64) uint64 {
	const header = 8 + 32 + 32 + 32 + 8 + 8 + 4 + 32 + 2 + 8 + 1
	const perItem = 4 + 32 + 4 + 200
	if items < 4 {
		items = 4
	}
	return header + items*perItem
}

// guardConfigData is the borsh payload of the initialize/update
// instructions: a default guard set plus labelled groups.
type guardConfigData struct {
	Default guardSetData
	Groups  *[]guardGroupData
}

func serializeGuardConfig(cfg guard.Config) ([]byte, error) {
	data := guardConfigData{Default: guardSetFromRules(cfg.Default)}
	if len(cfg.Groups) > 0 {
		groups := make([]guardGroupData, 0, len(cfg.Groups))
		for _, g := range cfg.Groups {
			groups = append(groups, guardGroupData{
				Label:  g.Label,
				Guards: guardSetFromRules(g.Guards),
			})
		}
		data.Groups = &groups
	}
	out, err := borsh.Serialize(data)
	if err != nil {
		return nil, fmt.Errorf("serialize guard config: %w", err)
	}
	return out, nil
}

// guardSetFromRules is the inverse of guardSetData.toRuleSet, used on
// the write path.
func guardSetFromRules(r guard.RuleSet) guardSetData {
	var out guardSetData

	if r.BotTax != nil {
		out.BotTax = &botTaxData{
			Lamports:        r.BotTax.Lamports,
			LastInstruction: r.BotTax.LastInstruction,
		}
	}
	if r.SolPayment != nil {
		out.SolPayment = &solPaymentData{
			Lamports:    r.SolPayment.Lamports,
			Destination: pubkeyBytes(r.SolPayment.Destination),
		}
	}
	if r.TokenPayment != nil {
		out.TokenPayment = &tokenPaymentData{
			Amount:         r.TokenPayment.Amount,
			Mint:           pubkeyBytes(r.TokenPayment.Mint),
			DestinationATA: pubkeyBytes(r.TokenPayment.DestinationATA),
		}
	}
	if r.StartDate != nil {
		out.StartDate = &dateData{Timestamp: r.StartDate.Date.Unix()}
	}
	if r.EndDate != nil {
		out.EndDate = &dateData{Timestamp: r.EndDate.Date.Unix()}
	}
	if r.TokenGate != nil {
		out.TokenGate = &tokenGateData{
			Amount: r.TokenGate.Amount,
			Mint:   pubkeyBytes(r.TokenGate.Mint),
		}
	}
	if r.TokenBurn != nil {
		out.TokenBurn = &tokenBurnData{
			Amount: r.TokenBurn.Amount,
			Mint:   pubkeyBytes(r.TokenBurn.Mint),
		}
	}
	if r.Gatekeeper != nil {
		out.Gatekeeper = &gatekeeperData{
			Network:     pubkeyBytes(r.Gatekeeper.Network),
			ExpireOnUse: r.Gatekeeper.ExpireOnUse,
		}
	}
	if r.AllowList != nil {
		out.AllowList = &allowListData{MerkleRoot: r.AllowList.MerkleRoot}
	}
	if r.MintLimit != nil {
		out.MintLimit = &mintLimitData{
			ID:    r.MintLimit.ID,
			Limit: uint16(r.MintLimit.Limit),
		}
	}
	if r.NFTPayment != nil {
		out.NFTPayment = &nftPaymentData{
			RequiredCollection: pubkeyBytes(r.NFTPayment.RequiredCollection),
			Destination:        pubkeyBytes(r.NFTPayment.Destination),
		}
	}
	if r.RedeemedAmount != nil {
		out.RedeemedAmount = &redeemedAmountData{Maximum: r.RedeemedAmount.Maximum}
	}
	if r.AddressGate != nil {
		out.AddressGate = &addressGateData{Address: pubkeyBytes(r.AddressGate.Address)}
	}
	if r.NFTGate != nil {
		out.NFTGate = &nftGateData{RequiredCollection: pubkeyBytes(r.NFTGate.RequiredCollection)}
	}
	if r.NFTBurn != nil {
		out.NFTBurn = &nftBurnData{RequiredCollection: pubkeyBytes(r.NFTBurn.RequiredCollection)}
	}

	return out
}

func pubkeyBytes(addr string) [32]byte {
	var out [32]byte
	copy(out[:], common.PublicKeyFromString(addr).Bytes())
	return out
}
