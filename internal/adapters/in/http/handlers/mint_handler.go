// internal/adapters/in/http/handlers/mint_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	mintapp "storefront/internal/application/mint"
	"storefront/internal/domain/mintsession"
)

// MintHandler runs a mint session: it validates the request, hands it
// to the orchestrator, and renders the settled receipts with explorer
// links. Partial batches report the units that did settle.
type MintHandler struct {
	orch    *mintapp.Orchestrator
	cluster string
}

func NewMintHandler(orch *mintapp.Orchestrator, cluster string) http.Handler {
	return &MintHandler{orch: orch, cluster: cluster}
}

type mintRequestBody struct {
	Wallet     string `json:"wallet"`
	Quantity   int    `json:"quantity"`
	Group      string `json:"group"`
	Selections []struct {
		Burn    *string `json:"burn,omitempty"`
		Payment *string `json:"payment,omitempty"`
		Gate    *string `json:"gate,omitempty"`
	} `json:"selections,omitempty"`
}

type mintReceiptView struct {
	ID          string `json:"id"`
	Mint        string `json:"mint"`
	Signature   string `json:"signature"`
	SettledAt   string `json:"settledAt"`
	ExplorerURL string `json:"explorerUrl"`
}

type mintResponseBody struct {
	Receipts []mintReceiptView `json:"receipts"`
	Error    string            `json:"error,omitempty"`
}

func (h *MintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var body mintRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid json body"})
		return
	}

	req := mintsession.Request{
		Wallet:     body.Wallet,
		Quantity:   body.Quantity,
		GroupLabel: body.Group,
	}
	for _, s := range body.Selections {
		req.Selections = append(req.Selections, mintsession.NFTSelection{
			Burn:    s.Burn,
			Payment: s.Payment,
			Gate:    s.Gate,
		})
	}

	receipts, err := h.orch.Mint(r.Context(), req)
	if err != nil {
		h.writeMintErr(w, err)
		return
	}

	_ = json.NewEncoder(w).Encode(mintResponseBody{Receipts: h.views(receipts)})
}

func (h *MintHandler) writeMintErr(w http.ResponseWriter, err error) {
	var partial *mintsession.PartialError
	if errors.As(err, &partial) {
		// Some units settled before the failure; the caller gets both.
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(mintResponseBody{
			Receipts: h.views(partial.Settled),
			Error:    partial.Error(),
		})
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, mintsession.ErrMintInFlight):
		code = http.StatusConflict
	case errors.Is(err, mintsession.ErrConfigUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, mintsession.ErrUserRejected),
		errors.Is(err, mintsession.ErrInvalidWallet),
		errors.Is(err, mintsession.ErrInvalidQuantity),
		errors.Is(err, mintsession.ErrSelectionMismatch):
		code = http.StatusBadRequest
	default:
		var gw *mintsession.GatewayError
		var prog *mintsession.ProgramError
		if errors.As(err, &gw) {
			code = http.StatusGatewayTimeout
		} else if errors.As(err, &prog) {
			code = http.StatusBadGateway
		}
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *MintHandler) views(receipts []mintsession.Receipt) []mintReceiptView {
	out := make([]mintReceiptView, 0, len(receipts))
	for _, rc := range receipts {
		out = append(out, mintReceiptView{
			ID:          rc.ID,
			Mint:        rc.Mint,
			Signature:   rc.Signature,
			SettledAt:   rc.SettledAt.Format(time.RFC3339),
			ExplorerURL: rc.ExplorerURL(h.cluster),
		})
	}
	return out
}
