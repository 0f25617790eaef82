// internal/application/mint/ports.go
package mint

import (
	"context"

	"storefront/internal/domain/mintsession"
)

// ============================================================
// Ports (consumer-side interfaces for the orchestrator)
// ============================================================

// GatewayStatus is the identity-gateway token state as reported by the
// external issuer's status stream.
type GatewayStatus string

const (
	GatewayNotRequested    GatewayStatus = "not-requested"
	GatewayRefreshRequired GatewayStatus = "refresh-required"
	GatewayActive          GatewayStatus = "active"
	GatewayUnknown         GatewayStatus = "unknown"
)

// GatewayTokenSource requests an identity/captcha token for the wallet
// and streams status updates until the token is active or the handshake
// terminally fails. Implementations close the channel when done; the
// caller abandons the stream by cancelling ctx.
type GatewayTokenSource interface {
	RequestToken(ctx context.Context, wallet string) (<-chan GatewayStatus, error)
}

// Program is the external minting program boundary. The program is the
// authority: it accepts or rejects each unit regardless of what the
// client-side evaluator predicted.
type Program interface {
	// SupportsBatch reports whether all units of a request can be
	// submitted as a single atomic transaction.
	SupportsBatch() bool

	// MintBatch submits every unit of the request atomically.
	MintBatch(ctx context.Context, req mintsession.Request) ([]mintsession.Receipt, error)

	// MintOne submits unit i of the request as its own transaction.
	MintOne(ctx context.Context, req mintsession.Request, i int) (mintsession.Receipt, error)
}
