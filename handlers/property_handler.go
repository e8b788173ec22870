package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/tijolinho/ledger"
	"github.com/ferreirogomes/tijolinho/services"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// PropertyHandler lida com requisições HTTP relacionadas a imóveis.
type PropertyHandler struct {
	Service *services.LedgerService
}

// NewPropertyHandler cria uma nova instância do handler de imóveis.
func NewPropertyHandler(s *services.LedgerService) *PropertyHandler {
	return &PropertyHandler{Service: s}
}

// RegisterRoutes registra as rotas de imóveis no roteador.
func (h *PropertyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/properties", h.CreateProperty)
	r.Get("/properties/{id}", h.GetProperty)
	r.Get("/properties/{id}/quote", h.QuotePurchase)
	r.Post("/properties/{id}/purchase", h.PurchaseTokens)
	r.Post("/properties/{id}/yield", h.DistributeYield)
	r.Put("/properties/{id}/value", h.UpdateValue)
	r.Get("/properties/{id}/holdings/{owner}", h.GetHolding)
}

// CreateProperty cria o registro de um imóvel tokenizado.
// POST /properties
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		PropertyID      string `json:"property_id"`
		Name            string `json:"name"`
		Address         string `json:"address"`
		TotalValue      uint64 `json:"total_value"`
		TokenSupply     uint64 `json:"token_supply"`
		YieldPercentage uint8  `json:"yield_percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	propertyID, err := propertyIDFromString(requestBody.PropertyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.CreateProperty(r.Context(), signer, &ledger.CreateProperty{
		PropertyID:      propertyID,
		Name:            requestBody.Name,
		Address:         requestBody.Address,
		TotalValue:      requestBody.TotalValue,
		TokenSupply:     requestBody.TokenSupply,
		YieldPercentage: requestBody.YieldPercentage,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetProperty obtém o registro de um imóvel.
// GET /properties/{id}
func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Service.GetProperty(r.Context(), propertyID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// QuotePurchase cota uma compra primária com precisão decimal.
// GET /properties/{id}/quote?amount=N
func (h *PropertyHandler) QuotePurchase(w http.ResponseWriter, r *http.Request) {
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		http.Error(w, "parâmetro amount inválido", http.StatusBadRequest)
		return
	}

	quote, err := h.Service.QuotePurchase(r.Context(), propertyID, amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// PurchaseTokens compra tokens da oferta primária.
// POST /properties/{id}/purchase
func (h *PropertyHandler) PurchaseTokens(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.PurchaseTokens(r.Context(), signer, propertyID, requestBody.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// DistributeYield distribui rendimento pro-rata aos titulares.
// POST /properties/{id}/yield
func (h *PropertyHandler) DistributeYield(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.DistributeYield(r.Context(), signer, propertyID, requestBody.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// UpdateValue reavalia o valor total do imóvel.
// PUT /properties/{id}/value
func (h *PropertyHandler) UpdateValue(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		NewValue uint64 `json:"new_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.UpdatePropertyValue(r.Context(), signer, propertyID, requestBody.NewValue)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// GetHolding obtém a posição de um titular em um imóvel.
// GET /properties/{id}/holdings/{owner}
func (h *PropertyHandler) GetHolding(w http.ResponseWriter, r *http.Request) {
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner, err := solana.PublicKeyFromBase58(chi.URLParam(r, "owner"))
	if err != nil {
		http.Error(w, "chave do titular inválida", http.StatusBadRequest)
		return
	}

	holding, err := h.Service.GetHolding(r.Context(), propertyID, owner)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}
