package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ferreirogomes/tijolinho/handlers"
	"github.com/ferreirogomes/tijolinho/models"
	"github.com/ferreirogomes/tijolinho/services"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore é um Store em memória de aplicação imediata, suficiente para os
// fluxos de criação e consulta exercitados aqui.
type fakeStore struct {
	records  map[solana.PublicKey]fakeRecord
	balances map[solana.PublicKey]uint64
	journal  []models.Transaction
}

type fakeRecord struct {
	kind  string
	scope []byte
	data  []byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:  make(map[solana.PublicKey]fakeRecord),
		balances: make(map[solana.PublicKey]uint64),
	}
}

func (s *fakeStore) Begin(ctx context.Context) (services.Tx, error) {
	return &fakeTx{s: s}, nil
}

func (s *fakeStore) GetRecordSnapshot(ctx context.Context, key solana.PublicKey) ([]byte, bool, error) {
	rec, found := s.records[key]
	return rec.data, found, nil
}

func (s *fakeStore) GetTransaction(ctx context.Context, id string) (models.Transaction, bool, error) {
	for _, rec := range s.journal {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return models.Transaction{}, false, nil
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) GetRecord(key solana.PublicKey) ([]byte, bool, error) {
	rec, found := t.s.records[key]
	return rec.data, found, nil
}

func (t *fakeTx) PutRecord(key solana.PublicKey, kind string, scope, data []byte) error {
	t.s.records[key] = fakeRecord{kind: kind, scope: scope, data: data}
	return nil
}

func (t *fakeTx) ListRecords(kind string, scope []byte) ([][]byte, error) {
	var rows [][]byte
	for _, rec := range t.s.records {
		if rec.kind == kind && string(rec.scope) == string(scope) {
			rows = append(rows, rec.data)
		}
	}
	return rows, nil
}

func (t *fakeTx) Balance(addr solana.PublicKey) (uint64, error) {
	return t.s.balances[addr], nil
}

func (t *fakeTx) Transfer(from, to solana.PublicKey, amount uint64) error {
	t.s.balances[from] -= amount
	t.s.balances[to] += amount
	return nil
}

func (t *fakeTx) SaveTransaction(rec models.Transaction) error {
	t.s.journal = append(t.s.journal, rec)
	return nil
}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

type stubBridge struct{}

func (stubBridge) TransferUnits(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) (solana.Signature, error) {
	return solana.Signature{1}, nil
}

func newTestRouter() chi.Router {
	svc := services.NewLedgerService(newFakeStore(), stubBridge{}, services.NewDeriver(solana.NewWallet().PublicKey()), zap.NewNop())
	r := chi.NewRouter()
	handlers.NewPropertyHandler(svc).RegisterRoutes(r)
	handlers.NewTransactionHandler(svc).RegisterRoutes(r)
	return r
}

func createPropertyRequest(t *testing.T, signer string, body map[string]any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/properties", bytes.NewReader(payload))
	if signer != "" {
		req.Header.Set("X-Signer", signer)
	}
	return req
}

// TestCreatePropertyEndpoint cobre criação, consulta e os códigos de erro da
// rota de imóveis.
func TestCreatePropertyEndpoint(t *testing.T) {
	router := newTestRouter()
	owner := solana.NewWallet().PublicKey()
	propertyID := solana.NewWallet().PublicKey().String()

	body := map[string]any{
		"property_id":  propertyID,
		"name":         "Edifício Copan",
		"address":      "Av. Ipiranga, 200",
		"total_value":  1000000,
		"token_supply": 1000,
	}

	// Sem assinante é 400.
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, createPropertyRequest(t, "", body))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, createPropertyRequest(t, owner.String(), body))
	require.Equal(t, http.StatusCreated, rr.Code)

	var receipt services.Receipt
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&receipt))
	assert.NotEmpty(t, receipt.TransactionID)

	// Duplicata é 409.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, createPropertyRequest(t, owner.String(), body))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Consulta devolve o registro criado.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/properties/"+propertyID, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var property struct {
		Name        string `json:"Name"`
		TotalValue  uint64 `json:"TotalValue"`
		TokenSupply uint64 `json:"TokenSupply"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&property))
	assert.Equal(t, "Edifício Copan", property.Name)
	assert.Equal(t, uint64(1000000), property.TotalValue)

	// O diário registra a invocação.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions/"+receipt.TransactionID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestGetPropertyNotFound cobre 404 para imóvel inexistente e 400 para
// identificador malformado.
func TestGetPropertyNotFound(t *testing.T) {
	router := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/properties/"+solana.NewWallet().PublicKey().String(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/properties/nao-e-base58", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestCreatePropertyValidation cobre 400 para dados de negócio inválidos.
func TestCreatePropertyValidation(t *testing.T) {
	router := newTestRouter()
	owner := solana.NewWallet().PublicKey()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, createPropertyRequest(t, owner.String(), map[string]any{
		"property_id":  solana.NewWallet().PublicKey().String(),
		"name":         "",
		"address":      "Av. Ipiranga, 200",
		"total_value":  1,
		"token_supply": 1,
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
