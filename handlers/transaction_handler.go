package handlers

import (
	"net/http"

	"github.com/ferreirogomes/tijolinho/services"

	"github.com/go-chi/chi/v5"
)

// TransactionHandler lida com consultas ao diário de invocações.
type TransactionHandler struct {
	Service *services.LedgerService
}

// NewTransactionHandler cria uma nova instância do handler de transações.
func NewTransactionHandler(s *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{Service: s}
}

// RegisterRoutes registra as rotas de transações no roteador.
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions/{id}", h.GetTransaction)
}

// GetTransaction busca uma entrada do diário pelo ID.
// GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "ID da transação é obrigatório", http.StatusBadRequest)
		return
	}

	rec, err := h.Service.GetTransaction(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
