// internal/infra/config/allowlists.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/domain/allowlist"
)

// LoadAllowlists reads every <label>.json in dir (a JSON array of
// wallet addresses) and builds the merkle tree for that group label.
// A missing directory is not an error: it just means no group uses an
// allow list.
func LoadAllowlists(dir string) (map[string]*allowlist.Tree, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read allowlist dir %s: %w", dir, err)
	}

	trees := make(map[string]*allowlist.Tree)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		label := strings.TrimSuffix(entry.Name(), ".json")

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("config: read allowlist %s: %w", entry.Name(), err)
		}

		var addresses []string
		if err := json.Unmarshal(raw, &addresses); err != nil {
			return nil, fmt.Errorf("config: parse allowlist %s: %w", entry.Name(), err)
		}

		tree, err := allowlist.NewTree(addresses)
		if err != nil {
			return nil, fmt.Errorf("config: build allowlist %s: %w", label, err)
		}
		trees[label] = tree
		log.Printf("[config] allowlist loaded label=%s addresses=%d", label, len(addresses))
	}
	return trees, nil
}
