package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/tijolinho/ledger"
	"github.com/ferreirogomes/tijolinho/services"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// RegistryHandler lida com requisições HTTP do registro de verificação.
type RegistryHandler struct {
	Service *services.LedgerService
}

// NewRegistryHandler cria uma nova instância do handler do registro.
func NewRegistryHandler(s *services.LedgerService) *RegistryHandler {
	return &RegistryHandler{Service: s}
}

// RegisterRoutes registra as rotas do registro no roteador.
func (h *RegistryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/registry", h.InitializeRegistry)
	r.Get("/registry", h.GetRegistry)
	r.Post("/registry/verifiers", h.AddVerifier)
	r.Get("/registry/verifiers/{authority}", h.GetVerifier)
	r.Delete("/registry/verifiers/{authority}", h.RemoveVerifier)
	r.Post("/registry/properties", h.RegisterProperty)
	r.Get("/registry/properties/{id}", h.GetAttestation)
	r.Post("/registry/properties/{id}/verify", h.VerifyProperty)
	r.Put("/registry/properties/{id}/status", h.UpdateVerificationStatus)
}

// InitializeRegistry cria o registro único de verificadores.
// POST /registry
func (h *RegistryHandler) InitializeRegistry(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.InitializeRegistry(r.Context(), signer)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetRegistry obtém o registro de verificadores.
// GET /registry
func (h *RegistryHandler) GetRegistry(w http.ResponseWriter, r *http.Request) {
	g, err := h.Service.GetRegistry(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

// AddVerifier cadastra (ou reativa) um verificador credenciado.
// POST /registry/verifiers
func (h *RegistryHandler) AddVerifier(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		Authority string `json:"authority"`
		Name      string `json:"name"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	authority, err := solana.PublicKeyFromBase58(requestBody.Authority)
	if err != nil {
		http.Error(w, "chave da autoridade do verificador inválida", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.AddVerifier(r.Context(), signer, authority, requestBody.Name, requestBody.URL)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetVerifier obtém o cadastro de um verificador pela autoridade.
// GET /registry/verifiers/{authority}
func (h *RegistryHandler) GetVerifier(w http.ResponseWriter, r *http.Request) {
	authority, err := solana.PublicKeyFromBase58(chi.URLParam(r, "authority"))
	if err != nil {
		http.Error(w, "chave da autoridade do verificador inválida", http.StatusBadRequest)
		return
	}

	v, err := h.Service.GetVerifier(r.Context(), authority)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// RemoveVerifier desativa um verificador, preservando o histórico.
// DELETE /registry/verifiers/{authority}
func (h *RegistryHandler) RemoveVerifier(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	authority, err := solana.PublicKeyFromBase58(chi.URLParam(r, "authority"))
	if err != nil {
		http.Error(w, "chave da autoridade do verificador inválida", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.RemoveVerifier(r.Context(), signer, authority)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// RegisterProperty abre a ficha de verificação de um imóvel.
// POST /registry/properties
func (h *RegistryHandler) RegisterProperty(w http.ResponseWriter, r *http.Request) {
	signer, err := signerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var requestBody struct {
		PropertyID string `json:"property_id"`
		TokenMint  string `json:"token_mint"`
		Address    string `json:"address"`
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
	tokenMint, err := solana.PublicKeyFromBase58(requestBody.TokenMint)
	if err != nil {
		http.Error(w, "chave do mint inválida", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.RegisterPropertyAttestation(r.Context(), signer, &ledger.RegisterProperty{
		PropertyID: propertyID,
		TokenMint:  tokenMint,
		Address:    requestBody.Address,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

// GetAttestation obtém a ficha de verificação de um imóvel.
// GET /registry/properties/{id}
func (h *RegistryHandler) GetAttestation(w http.ResponseWriter, r *http.Request) {
	propertyID, err := propertyIDFromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.Service.GetAttestation(r.Context(), propertyID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// VerifyProperty registra o desfecho da verificação de um imóvel.
// POST /registry/properties/{id}/verify
func (h *RegistryHandler) VerifyProperty(w http.ResponseWriter, r *http.Request) {
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
		Approved                   bool   `json:"approved"`
		Method                     string `json:"method"`
		Notes                      string `json:"notes"`
		LegalComplianceVerified    bool   `json:"legal_compliance_verified"`
		PropertyConditionVerified  bool   `json:"property_condition_verified"`
		ValuationConditionVerified bool   `json:"valuation_condition_verified"`
		VerificationExpiry         int64  `json:"verification_expiry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome := ledger.VerificationRejected
	if requestBody.Approved {
		outcome = ledger.VerificationVerified
	}
	receipt, err := h.Service.VerifyProperty(r.Context(), signer, propertyID, outcome, ledger.VerificationDetails{
		Method:                     requestBody.Method,
		Notes:                      requestBody.Notes,
		LegalComplianceVerified:    requestBody.LegalComplianceVerified,
		PropertyConditionVerified:  requestBody.PropertyConditionVerified,
		ValuationConditionVerified: requestBody.ValuationConditionVerified,
		VerificationExpiry:         requestBody.VerificationExpiry,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// UpdateVerificationStatus força um status por decisão da autoridade.
// PUT /registry/properties/{id}/status
func (h *RegistryHandler) UpdateVerificationStatus(w http.ResponseWriter, r *http.Request) {
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
		Status uint8 `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if requestBody.Status > uint8(ledger.VerificationExpired) {
		http.Error(w, "status de verificação inválido", http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.UpdateVerificationStatus(r.Context(), signer, propertyID, ledger.VerificationStatus(requestBody.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}
