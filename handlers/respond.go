package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ferreirogomes/tijolinho/ledger"
	"github.com/ferreirogomes/tijolinho/services"
	"github.com/ferreirogomes/tijolinho/storage"

	"github.com/gagliardetto/solana-go"
)

// signerFromRequest extrai a chave pública do assinante do cabeçalho
// X-Signer. A verificação criptográfica da assinatura é papel do gateway na
// frente da API; aqui a chave vale como identidade declarada.
func signerFromRequest(r *http.Request) (solana.PublicKey, error) {
	raw := r.Header.Get("X-Signer")
	if raw == "" {
		return solana.PublicKey{}, errors.New("cabeçalho X-Signer é obrigatório")
	}
	return solana.PublicKeyFromBase58(raw)
}

// propertyIDFromString interpreta o identificador de 32 bytes em base58.
func propertyIDFromString(raw string) (ledger.PropertyID, error) {
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return ledger.PropertyID{}, errors.New("identificador do imóvel inválido")
	}
	return ledger.PropertyID(key), nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError traduz os erros de negócio do motor em códigos HTTP.
func respondError(w http.ResponseWriter, err error) {
	var vErr *ledger.ValidationError
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, ledger.ErrMalformedInstruction),
		errors.Is(err, ledger.ErrFeeTooHigh):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, ledger.ErrNotInitialized):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientTokens),
		errors.Is(err, ledger.ErrPropertyNotAvailable),
		errors.Is(err, ledger.ErrListingNotActive),
		errors.Is(err, ledger.ErrVerifierNotActive),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, storage.ErrInsufficientBalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
