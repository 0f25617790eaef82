// internal/infra/solana/authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// LoadKeypairSecret reads a keypair JSON ([int,int,...], the solana-cli
// format) from GCP Secret Manager and restores it as a signing account.
//
// secretName: "projects/<project>/secrets/<id>/versions/latest"
func LoadKeypairSecret(ctx context.Context, secretName string) (types.Account, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return types.Account{}, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	res, err := client.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return types.Account{}, fmt.Errorf("access secret version %s: %w", secretName, err)
	}

	return accountFromJSON(res.Payload.Data)
}

// LoadKeypairFile reads a solana-cli keypair file (key.json) from disk.
func LoadKeypairFile(path string) (types.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair file %s: %w", path, err)
	}
	return accountFromJSON(raw)
}

func accountFromJSON(raw []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return types.Account{}, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return types.Account{}, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		b[i] = byte(v)
	}

	account, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("restore account: %w", err)
	}
	return account, nil
}
