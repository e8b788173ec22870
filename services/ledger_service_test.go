package services

import (
	"context"
	"testing"
	"time"

	"github.com/ferreirogomes/tijolinho/ledger"
	"github.com/ferreirogomes/tijolinho/models"
	"github.com/ferreirogomes/tijolinho/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore é um Store em memória com a mesma semântica transacional do
// PostgreSQL: tudo que uma invocação escreve só aparece no Commit.
type memStore struct {
	records  map[solana.PublicKey]memRecord
	balances map[solana.PublicKey]uint64
	journal  []models.Transaction
}

type memRecord struct {
	kind  string
	scope []byte
	data  []byte
}

func newMemStore() *memStore {
	return &memStore{
		records:  make(map[solana.PublicKey]memRecord),
		balances: make(map[solana.PublicKey]uint64),
	}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{store: s, puts: make(map[solana.PublicKey]memRecord)}, nil
}

func (s *memStore) GetRecordSnapshot(ctx context.Context, key solana.PublicKey) ([]byte, bool, error) {
	rec, found := s.records[key]
	return rec.data, found, nil
}

func (s *memStore) GetTransaction(ctx context.Context, id string) (models.Transaction, bool, error) {
	for _, rec := range s.journal {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return models.Transaction{}, false, nil
}

type memTransfer struct {
	from, to solana.PublicKey
	amount   uint64
}

type memTx struct {
	store     *memStore
	puts      map[solana.PublicKey]memRecord
	putOrder  []solana.PublicKey
	transfers []memTransfer
	saved     []models.Transaction
}

func (t *memTx) GetRecord(key solana.PublicKey) ([]byte, bool, error) {
	if rec, found := t.puts[key]; found {
		return rec.data, true, nil
	}
	rec, found := t.store.records[key]
	return rec.data, found, nil
}

func (t *memTx) PutRecord(key solana.PublicKey, kind string, scope, data []byte) error {
	if _, staged := t.puts[key]; !staged {
		t.putOrder = append(t.putOrder, key)
	}
	t.puts[key] = memRecord{kind: kind, scope: scope, data: data}
	return nil
}

func (t *memTx) ListRecords(kind string, scope []byte) ([][]byte, error) {
	var rows [][]byte
	for _, rec := range t.store.records {
		if rec.kind == kind && string(rec.scope) == string(scope) {
			rows = append(rows, rec.data)
		}
	}
	return rows, nil
}

func (t *memTx) Balance(addr solana.PublicKey) (uint64, error) {
	return t.effectiveBalance(addr), nil
}

func (t *memTx) effectiveBalance(addr solana.PublicKey) uint64 {
	balance := t.store.balances[addr]
	for _, tr := range t.transfers {
		if tr.from.Equals(addr) {
			balance -= tr.amount
		}
		if tr.to.Equals(addr) {
			balance += tr.amount
		}
	}
	return balance
}

func (t *memTx) Transfer(from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if t.effectiveBalance(from) < amount {
		return storage.ErrInsufficientBalance
	}
	t.transfers = append(t.transfers, memTransfer{from: from, to: to, amount: amount})
	return nil
}

func (t *memTx) SaveTransaction(rec models.Transaction) error {
	t.saved = append(t.saved, rec)
	return nil
}

func (t *memTx) Commit() error {
	for _, tr := range t.transfers {
		t.store.balances[tr.from] -= tr.amount
		t.store.balances[tr.to] += tr.amount
	}
	for _, key := range t.putOrder {
		t.store.records[key] = t.puts[key]
	}
	t.store.journal = append(t.store.journal, t.saved...)
	return nil
}

func (t *memTx) Rollback() error { return nil }

// MockBridge substitui o colaborador de transferência de tokens.
type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) TransferUnits(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) (solana.Signature, error) {
	args := m.Called(ctx, mint, from, to, amount)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func newTestService(t *testing.T) (*LedgerService, *memStore, *MockBridge) {
	t.Helper()
	store := newMemStore()
	bridge := new(MockBridge)
	svc := NewLedgerService(store, bridge, NewDeriver(solana.NewWallet().PublicKey()), zap.NewNop())
	svc.now = func() time.Time { return time.Unix(1717000000, 0) }
	return svc, store, bridge
}

func testPropertyID() ledger.PropertyID {
	var id ledger.PropertyID
	copy(id[:], "imovel-teste-0001")
	return id
}

func createTestProperty(t *testing.T, svc *LedgerService, owner solana.PublicKey, totalValue, tokenSupply uint64) ledger.PropertyID {
	t.Helper()
	id := testPropertyID()
	_, err := svc.CreateProperty(context.Background(), owner, &ledger.CreateProperty{
		PropertyID:      id,
		Name:            "Edifício Copan",
		Address:         "Av. Ipiranga, 200",
		TotalValue:      totalValue,
		TokenSupply:     tokenSupply,
		YieldPercentage: 7,
	})
	require.NoError(t, err)
	return id
}

// TestCreateProperty cobre a criação e a rejeição de duplicata.
func TestCreateProperty(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := solana.NewWallet().PublicKey()

	id := createTestProperty(t, svc, owner, 1_000_000, 1000)

	p, err := svc.GetProperty(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, uint64(1_000_000), p.TotalValue)
	assert.Equal(t, uint64(1000), p.TokenSupply)
	assert.Equal(t, uint8(7), p.YieldPercentage)

	require.Len(t, store.journal, 1)
	assert.Equal(t, "create_property", store.journal[0].Kind)
	assert.Equal(t, models.TransactionConfirmed, store.journal[0].Status)

	_, err = svc.CreateProperty(context.Background(), owner, &ledger.CreateProperty{
		PropertyID:  id,
		Name:        "Edifício Copan",
		Address:     "Av. Ipiranga, 200",
		TotalValue:  1,
		TokenSupply: 1,
	})
	assert.ErrorIs(t, err, ledger.ErrAlreadyInitialized)
}

// TestPurchaseTokens cobre a compra primária completa: valor do comprador
// para o dono, tokens via a ponte, posição acumulada e diário pendente.
func TestPurchaseTokens(t *testing.T) {
	svc, store, bridge := newTestService(t)
	owner := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()

	id := createTestProperty(t, svc, owner, 1000, 100) // preço unitário 10
	store.balances[buyer] = 500

	sig := solana.Signature{1, 2, 3}
	bridge.On("TransferUnits", mock.Anything, mock.Anything, owner, buyer, uint64(30)).Return(sig, nil)

	receipt, err := svc.PurchaseTokens(context.Background(), buyer, id, 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), receipt.Cost)
	assert.False(t, receipt.SoldOut)
	assert.Equal(t, sig.String(), receipt.Signature)

	assert.Equal(t, uint64(200), store.balances[buyer])
	assert.Equal(t, uint64(300), store.balances[owner])

	holding, err := svc.GetHolding(context.Background(), id, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), holding.Amount)
	assert.Equal(t, uint64(300), holding.PurchasePrice)

	rec, err := svc.GetTransaction(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, rec.Status)
	assert.Equal(t, sig.String(), rec.Signature)

	bridge.AssertExpectations(t)
}

// TestPurchaseTokensInsufficientBalance garante que saldo curto aborta tudo:
// nenhuma posição criada, nenhum saldo alterado, nenhuma chamada à ponte.
func TestPurchaseTokensInsufficientBalance(t *testing.T) {
	svc, store, bridge := newTestService(t)
	owner := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()

	id := createTestProperty(t, svc, owner, 1000, 100)
	store.balances[buyer] = 10

	_, err := svc.PurchaseTokens(context.Background(), buyer, id, 30)
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)

	assert.Equal(t, uint64(10), store.balances[buyer])
	_, err = svc.GetHolding(context.Background(), id, buyer)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	bridge.AssertNotCalled(t, "TransferUnits", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestDistributeYield cobre a distribuição pro-rata sobre posições reais e o
// guarda de autorização do dono.
func TestDistributeYield(t *testing.T) {
	svc, store, bridge := newTestService(t)
	owner := solana.NewWallet().PublicKey()
	holderA := solana.NewWallet().PublicKey()
	holderB := solana.NewWallet().PublicKey()

	id := createTestProperty(t, svc, owner, 1000, 100)
	store.balances[holderA] = 1000
	store.balances[holderB] = 1000

	bridge.On("TransferUnits", mock.Anything, mock.Anything, owner, holderA, uint64(30)).Return(solana.Signature{1}, nil)
	bridge.On("TransferUnits", mock.Anything, mock.Anything, owner, holderB, uint64(70)).Return(solana.Signature{2}, nil)

	_, err := svc.PurchaseTokens(context.Background(), holderA, id, 30)
	require.NoError(t, err)
	_, err = svc.PurchaseTokens(context.Background(), holderB, id, 70)
	require.NoError(t, err)

	// Só o dono distribui.
	_, err = svc.DistributeYield(context.Background(), holderA, id, 1000)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	balanceA := store.balances[holderA]
	balanceB := store.balances[holderB]

	_, err = svc.DistributeYield(context.Background(), owner, id, 1000)
	require.NoError(t, err)

	assert.Equal(t, balanceA+300, store.balances[holderA])
	assert.Equal(t, balanceB+700, store.balances[holderB])

	holding, err := svc.GetHolding(context.Background(), id, holderA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1717000000), holding.LastYieldClaim)
}

// TestMarketplaceTrade cobre o fluxo completo do mercado secundário com a
// decomposição preço/taxa/vendedor e os contadores do marketplace.
func TestMarketplaceTrade(t *testing.T) {
	svc, store, bridge := newTestService(t)
	authority := solana.NewWallet().PublicKey()
	treasury := solana.NewWallet().PublicKey()
	seller := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	_, err := svc.InitializeMarketplace(context.Background(), authority, treasury, 250)
	require.NoError(t, err)

	listingReceipt, err := svc.CreateListing(context.Background(), seller, mint, 5, 1000)
	require.NoError(t, err)

	m, err := svc.GetMarketplace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ActiveListings)

	store.balances[buyer] = 5000
	sig := solana.Signature{9}
	bridge.On("TransferUnits", mock.Anything, mint, seller, buyer, uint64(1000)).Return(sig, nil)

	trade, err := svc.ExecuteTrade(context.Background(), buyer, listingReceipt.Record, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), trade.TotalPrice)
	assert.Equal(t, uint64(125), trade.Fee)
	assert.Equal(t, uint64(4875), trade.SellerAmount)
	assert.True(t, trade.Completed)

	assert.Equal(t, uint64(0), store.balances[buyer])
	assert.Equal(t, uint64(4875), store.balances[seller])
	assert.Equal(t, uint64(125), store.balances[treasury])

	l, err := svc.GetListing(context.Background(), listingReceipt.Record)
	require.NoError(t, err)
	assert.Equal(t, ledger.ListingCompleted, l.Status)

	m, err = svc.GetMarketplace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.ActiveListings)
	assert.Equal(t, uint64(5000), m.TotalVolume)

	bridge.AssertExpectations(t)
}

// TestCancelListing cobre o cancelamento pelo vendedor e o guarda contra
// terceiros.
func TestCancelListing(t *testing.T) {
	svc, _, _ := newTestService(t)
	authority := solana.NewWallet().PublicKey()
	seller := solana.NewWallet().PublicKey()

	_, err := svc.InitializeMarketplace(context.Background(), authority, solana.NewWallet().PublicKey(), 250)
	require.NoError(t, err)
	listingReceipt, err := svc.CreateListing(context.Background(), seller, solana.NewWallet().PublicKey(), 5, 100)
	require.NoError(t, err)

	_, err = svc.CancelListing(context.Background(), solana.NewWallet().PublicKey(), listingReceipt.Record)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = svc.CancelListing(context.Background(), seller, listingReceipt.Record)
	require.NoError(t, err)

	l, err := svc.GetListing(context.Background(), listingReceipt.Record)
	require.NoError(t, err)
	assert.Equal(t, ledger.ListingCancelled, l.Status)
}

// TestUpdateMarketplaceFee cobre autorização e teto da taxa.
func TestUpdateMarketplaceFee(t *testing.T) {
	svc, _, _ := newTestService(t)
	authority := solana.NewWallet().PublicKey()

	_, err := svc.InitializeMarketplace(context.Background(), authority, solana.NewWallet().PublicKey(), 250)
	require.NoError(t, err)

	_, err = svc.UpdateMarketplaceFee(context.Background(), solana.NewWallet().PublicKey(), 100)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = svc.UpdateMarketplaceFee(context.Background(), authority, 1001)
	assert.ErrorIs(t, err, ledger.ErrFeeTooHigh)

	_, err = svc.UpdateMarketplaceFee(context.Background(), authority, 500)
	require.NoError(t, err)

	m, err := svc.GetMarketplace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(500), m.Fee)
}

// TestRegistryWorkflow cobre o ciclo do registro: cadastro de verificador,
// abertura de atestação, verificação e desativação.
func TestRegistryWorkflow(t *testing.T) {
	svc, _, _ := newTestService(t)
	authority := solana.NewWallet().PublicKey()
	verifierAuthority := solana.NewWallet().PublicKey()
	propertyOwner := solana.NewWallet().PublicKey()

	_, err := svc.InitializeRegistry(context.Background(), authority)
	require.NoError(t, err)

	_, err = svc.AddVerifier(context.Background(), authority, verifierAuthority, "Cartório Digital", "https://cartorio.example.com")
	require.NoError(t, err)

	id := testPropertyID()
	_, err = svc.RegisterPropertyAttestation(context.Background(), propertyOwner, &ledger.RegisterProperty{
		PropertyID: id,
		TokenMint:  solana.NewWallet().PublicKey(),
		Address:    "Rua Augusta, 1500",
	})
	require.NoError(t, err)

	record, err := svc.GetAttestation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.VerificationPending, record.Status)

	// Verificador não credenciado não conclui.
	_, err = svc.VerifyProperty(context.Background(), solana.NewWallet().PublicKey(), id, ledger.VerificationVerified, ledger.VerificationDetails{})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.VerifyProperty(context.Background(), verifierAuthority, id, ledger.VerificationVerified, ledger.VerificationDetails{
		Method: "vistoria presencial",
		Notes:  "matrícula conferida",
	})
	require.NoError(t, err)

	record, err = svc.GetAttestation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.VerificationVerified, record.Status)
	require.NotNil(t, record.Details)
	assert.Equal(t, "vistoria presencial", record.Details.Method)

	v, err := svc.GetVerifier(context.Background(), verifierAuthority)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.VerifiedProperties)

	// Verified → Expired por decisão da autoridade.
	_, err = svc.UpdateVerificationStatus(context.Background(), authority, id, ledger.VerificationExpired)
	require.NoError(t, err)
	record, err = svc.GetAttestation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.VerificationExpired, record.Status)

	_, err = svc.RemoveVerifier(context.Background(), authority, verifierAuthority)
	require.NoError(t, err)
	v, err = svc.GetVerifier(context.Background(), verifierAuthority)
	require.NoError(t, err)
	assert.False(t, v.IsActive)

	g, err := svc.GetRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), g.VerifierCount)
	assert.Equal(t, uint64(1), g.PropertyCount)
}

// TestQuotePurchase cobre a cotação decimal exata e o erro de supply zero.
func TestQuotePurchase(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := solana.NewWallet().PublicKey()
	id := createTestProperty(t, svc, owner, 1000, 4)

	quote, err := svc.QuotePurchase(context.Background(), id, 2)
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(decimal.NewFromInt(250)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, uint64(4), quote.Remaining)

	_, err = svc.QuotePurchase(context.Background(), testPropertyID(), 0)
	require.NoError(t, err) // quantidade zero cota total zero, não é erro
}
