package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/tijolinho/services"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// MarketplaceHandler lida com requisições HTTP do mercado secundário.
type MarketplaceHandler struct {
	Service *services.LedgerService
}

// NewMarketplaceHandler cria uma nova instância do handler do mercado.
func NewMarketplaceHandler(s *services.LedgerService) *MarketplaceHandler {
	return &MarketplaceHandler{Service: s}
}

// RegisterRoutes registra as rotas do mercado no roteador.
func (h *MarketplaceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/marketplace", h.InitializeMarketplace)
	r.Get("/marketplace", h.GetMarketplace)
	r.Put("/marketplace/fee", h.UpdateFee)
	r.Post("/marketplace/listings", h.CreateListing)
	r.Get("/marketplace/listings/{key}", h.GetListing)
	r.Post("/marketplace/listings/{key}/trade", h.ExecuteTrade)
	r.Delete("/marketplace/listings/{key}", h.CancelListing)
}

// InitializeMarketplace cria o registro único do mercado.
// POST /marketplace
func (h *MarketplaceHandler) InitializeMarketplace(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Treasury string `json:"treasury"`
		Fee      uint16 `json:"fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	treasury, err := solana.PublicKeyFromBase58(requestBody.Treasury)
	if err != nil {
		http.Error(w, "chave da tesouraria inválida", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.InitializeMarketplace(r.Context(), signer, treasury, requestBody.Fee)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetMarketplace obtém a configuração do mercado.
// GET /marketplace
func (h *MarketplaceHandler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.GetMarketplace(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// UpdateFee ajusta a taxa do mercado.
// PUT /marketplace/fee
func (h *MarketplaceHandler) UpdateFee(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Fee uint16 `json:"fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.UpdateMarketplaceFee(r.Context(), signer, requestBody.Fee)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// CreateListing lista tokens para revenda.
// POST /marketplace/listings
func (h *MarketplaceHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Mint          string `json:"mint"`
		PricePerToken uint64 `json:"price_per_token"`
		TokenAmount   uint64 `json:"token_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mint, err := solana.PublicKeyFromBase58(requestBody.Mint)
	if err != nil {
		http.Error(w, "chave do mint inválida", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.CreateListing(r.Context(), signer, mint, requestBody.PricePerToken, requestBody.TokenAmount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetListing obtém uma listagem pelo endereço.
// GET /marketplace/listings/{key}
func (h *MarketplaceHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, "endereço da listagem inválido", http.StatusBadRequest)
		return
	}

	l, err := h.Service.GetListing(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// ExecuteTrade executa uma compra contra uma listagem ativa.
// POST /marketplace/listings/{key}/trade
func (h *MarketplaceHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, "endereço da listagem inválido", http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.ExecuteTrade(r.Context(), signer, key, requestBody.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// CancelListing cancela uma listagem ativa do próprio vendedor.
// DELETE /marketplace/listings/{key}
func (h *MarketplaceHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, "endereço da listagem inválido", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.CancelListing(r.Context(), signer, key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}
