package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/tijolinho/ledger"
	"github.com/ferreirogomes/tijolinho/models"
	"github.com/ferreirogomes/tijolinho/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Erros do serviço, distintos dos erros de negócio do motor.
var (
	ErrRecordNotFound  = errors.New("services: registro não encontrado")
	ErrZeroTokenSupply = errors.New("services: imóvel sem supply de tokens")
)

// Store é o armazenamento transacional que o serviço consome.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	GetRecordSnapshot(ctx context.Context, key solana.PublicKey) ([]byte, bool, error)
	GetTransaction(ctx context.Context, id string) (models.Transaction, bool, error)
}

// Tx é uma invocação atômica sobre o armazenamento.
type Tx interface {
	GetRecord(key solana.PublicKey) ([]byte, bool, error)
	PutRecord(key solana.PublicKey, kind string, scope, data []byte) error
	ListRecords(kind string, scope []byte) ([][]byte, error)
	Balance(addr solana.PublicKey) (uint64, error)
	Transfer(from, to solana.PublicKey, amount uint64) error
	SaveTransaction(rec models.Transaction) error
	Commit() error
	Rollback() error
}

// TokenBridge é o colaborador externo que move os tokens fracionários.
type TokenBridge interface {
	TransferUnits(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) (solana.Signature, error)
}

// SQLStore adapta *storage.DB à interface Store.
type SQLStore struct {
	DB *storage.DB
}

func (s SQLStore) Begin(ctx context.Context) (Tx, error) { return s.DB.Begin(ctx) }

func (s SQLStore) GetRecordSnapshot(ctx context.Context, key solana.PublicKey) ([]byte, bool, error) {
	return s.DB.GetRecordSnapshot(ctx, key)
}

func (s SQLStore) GetTransaction(ctx context.Context, id string) (models.Transaction, bool, error) {
	return s.DB.GetTransaction(ctx, id)
}

// Receipt é o comprovante de uma invocação aplicada com sucesso.
type Receipt struct {
	TransactionID string           `json:"transaction_id"`
	Record        solana.PublicKey `json:"record"`
	Signature     string           `json:"signature,omitempty"`
}

// TradeReceipt estende o comprovante com a decomposição financeira do trade.
type TradeReceipt struct {
	Receipt
	TotalPrice   uint64 `json:"total_price"`
	Fee          uint64 `json:"fee"`
	SellerAmount uint64 `json:"seller_amount"`
	Completed    bool   `json:"completed"`
}

// PurchaseReceipt estende o comprovante com o custo da compra primária.
type PurchaseReceipt struct {
	Receipt
	Cost    uint64 `json:"cost"`
	SoldOut bool   `json:"sold_out"`
}

// PriceQuote é a cotação exata de uma compra primária, sem o truncamento
// inteiro do motor.
type PriceQuote struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Remaining uint64          `json:"remaining"`
}

// LedgerService orquestra o motor de liquidação: codifica cada operação como
// instrução de wire, decodifica de volta (o mesmo caminho que o programa
// on-chain percorre), carrega os registros envolvidos, aplica o motor puro e
// grava tudo em uma única invocação atômica.
type LedgerService struct {
	store  Store
	bridge TokenBridge
	keys   *Deriver
	logger *zap.Logger
	now    func() time.Time
}

// NewLedgerService cria o serviço central do ledger.
func NewLedgerService(store Store, bridge TokenBridge, keys *Deriver, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		bridge: bridge,
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}
}

// roundTrip força cada operação pelo codec de instruções antes de aplicar,
// garantindo que só comandos representáveis no formato de wire executam.
func roundTrip(cmd ledger.Command) (ledger.Command, error) {
	decoded, err := ledger.DecodeInstruction(cmd.Encode())
	if err != nil {
		return nil, fmt.Errorf("falha ao codificar instrução: %w", err)
	}
	return decoded, nil
}

// CreateProperty cria o registro de um imóvel tokenizado.
func (s *LedgerService) CreateProperty(ctx context.Context, owner solana.PublicKey, cmd *ledger.CreateProperty) (*Receipt, error) {
	decoded, err := roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.CreateProperty)

	key, err := s.keys.PropertyKey(c.PropertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, found, err := tx.GetRecord(key); err != nil {
		return nil, err
	} else if found {
		return nil, ledger.ErrAlreadyInitialized
	}

	p, err := ledger.NewProperty(owner, c, uint64(s.now().Unix()))
	if err != nil {
		return nil, err
	}
	if err := tx.PutRecord(key, storage.KindProperty, c.PropertyID[:], p.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "create_property", owner, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("imóvel criado",
		zap.String("transaction_id", rec.ID),
		zap.String("property", key.String()),
		zap.Uint64("token_supply", p.TokenSupply),
	)
	return &Receipt{TransactionID: rec.ID, Record: key}, nil
}

// PurchaseTokens compra tokens da oferta primária. O comprador paga o custo
// ao dono do imóvel e recebe os tokens via a ponte custodial.
func (s *LedgerService) PurchaseTokens(ctx context.Context, buyer solana.PublicKey, propertyID ledger.PropertyID, amount uint64) (*PurchaseReceipt, error) {
	decoded, err := roundTrip(&ledger.PurchaseTokens{Amount: amount})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.PurchaseTokens)

	propertyKey, err := s.keys.PropertyKey(propertyID)
	if err != nil {
		return nil, err
	}
	holdingKey, err := s.keys.HoldingKey(propertyID, buyer)
	if err != nil {
		return nil, err
	}
	mint, err := s.keys.MintKey(propertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.loadProperty(tx, propertyKey)
	if err != nil {
		return nil, err
	}
	holding, err := s.loadHoldingOrZero(tx, holdingKey)
	if err != nil {
		return nil, err
	}

	result, err := ledger.PurchaseUnits(p, holding, mint, p.Owner, buyer, c.Amount, uint64(s.now().Unix()))
	if err != nil {
		return nil, err
	}

	// Valor primeiro, tokens depois, contabilidade por último.
	if err := tx.Transfer(buyer, p.Owner, result.Cost); err != nil {
		return nil, err
	}
	sig, err := s.bridge.TransferUnits(ctx, result.Transfer.Mint, result.Transfer.From, result.Transfer.To, result.Transfer.Amount)
	if err != nil {
		return nil, fmt.Errorf("falha ao mover tokens: %w", err)
	}

	if err := tx.PutRecord(propertyKey, storage.KindProperty, propertyID[:], p.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(holdingKey, storage.KindHolding, propertyID[:], holding.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "purchase_tokens", buyer, sig)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("compra primária liquidada",
		zap.String("transaction_id", rec.ID),
		zap.String("property", propertyKey.String()),
		zap.Uint64("amount", c.Amount),
		zap.Uint64("cost", result.Cost),
		zap.Bool("sold_out", result.SoldOut),
	)
	return &PurchaseReceipt{
		Receipt: Receipt{TransactionID: rec.ID, Record: holdingKey, Signature: rec.Signature},
		Cost:    result.Cost,
		SoldOut: result.SoldOut,
	}, nil
}

// DistributeYield distribui rendimento pro-rata entre todos os titulares do
// imóvel. Só o dono distribui, e ele banca os pagamentos.
func (s *LedgerService) DistributeYield(ctx context.Context, signer solana.PublicKey, propertyID ledger.PropertyID, amount uint64) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.DistributeYield{Amount: amount})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.DistributeYield)

	propertyKey, err := s.keys.PropertyKey(propertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.loadProperty(tx, propertyKey)
	if err != nil {
		return nil, err
	}
	if !p.Owner.Equals(signer) {
		return nil, ledger.ErrUnauthorized
	}

	rows, err := tx.ListRecords(storage.KindHolding, propertyID[:])
	if err != nil {
		return nil, err
	}
	holdings := make([]*ledger.PropertyToken, 0, len(rows))
	for _, row := range rows {
		h, err := ledger.DecodePropertyToken(row)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	payouts, err := ledger.DistributeYieldToHolders(p, holdings, c.Amount, uint64(s.now().Unix()))
	if err != nil {
		return nil, err
	}

	for _, payout := range payouts {
		if err := tx.Transfer(signer, payout.Holder, payout.Amount); err != nil {
			return nil, err
		}
	}

	if err := tx.PutRecord(propertyKey, storage.KindProperty, propertyID[:], p.Encode()); err != nil {
		return nil, err
	}
	for _, h := range holdings {
		holdingKey, err := s.keys.HoldingKey(propertyID, h.Owner)
		if err != nil {
			return nil, err
		}
		if err := tx.PutRecord(holdingKey, storage.KindHolding, propertyID[:], h.Encode()); err != nil {
			return nil, err
		}
	}

	rec, err := s.journal(tx, "distribute_yield", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("rendimento distribuído",
		zap.String("transaction_id", rec.ID),
		zap.String("property", propertyKey.String()),
		zap.Uint64("total", c.Amount),
		zap.Int("holders", len(payouts)),
	)
	return &Receipt{TransactionID: rec.ID, Record: propertyKey}, nil
}

// UpdatePropertyValue reavalia o valor total do imóvel.
func (s *LedgerService) UpdatePropertyValue(ctx context.Context, signer solana.PublicKey, propertyID ledger.PropertyID, newValue uint64) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.UpdatePropertyValue{NewValue: newValue})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.UpdatePropertyValue)

	propertyKey, err := s.keys.PropertyKey(propertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.loadProperty(tx, propertyKey)
	if err != nil {
		return nil, err
	}
	if err := ledger.RevalueProperty(p, signer, c.NewValue); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(propertyKey, storage.KindProperty, propertyID[:], p.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "update_property_value", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: propertyKey}, nil
}

// InitializeMarketplace cria o registro único de configuração do mercado.
func (s *LedgerService) InitializeMarketplace(ctx context.Context, authority, treasury solana.PublicKey, fee uint16) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.InitializeMarketplace{Treasury: treasury, Fee: fee})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.InitializeMarketplace)

	key, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, found, err := tx.GetRecord(key); err != nil {
		return nil, err
	} else if found {
		return nil, ledger.ErrAlreadyInitialized
	}

	m, err := ledger.NewMarketplace(authority, c.Treasury, c.Fee, s.now().Unix())
	if err != nil {
		return nil, err
	}
	if err := tx.PutRecord(key, storage.KindMarketplace, key.Bytes(), m.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "initialize_marketplace", authority, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: key}, nil
}

// CreateListing lista tokens para revenda no mercado secundário.
func (s *LedgerService) CreateListing(ctx context.Context, seller solana.PublicKey, mint solana.PublicKey, pricePerToken, tokenAmount uint64) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.CreateListing{Mint: mint, PricePerToken: pricePerToken, TokenAmount: tokenAmount})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.CreateListing)

	marketplaceKey, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.loadMarketplace(tx, marketplaceKey)
	if err != nil {
		return nil, err
	}

	l, err := ledger.OpenListing(m, seller, c.Mint, c.PricePerToken, c.TokenAmount, s.now().Unix())
	if err != nil {
		return nil, err
	}
	listingKey, err := s.keys.ListingKey(seller, c.Mint, l.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.PutRecord(marketplaceKey, storage.KindMarketplace, marketplaceKey.Bytes(), m.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(listingKey, storage.KindListing, marketplaceKey.Bytes(), l.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "create_listing", seller, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("listagem criada",
		zap.String("transaction_id", rec.ID),
		zap.String("listing", listingKey.String()),
		zap.Uint64("price_per_token", c.PricePerToken),
		zap.Uint64("token_amount", c.TokenAmount),
	)
	return &Receipt{TransactionID: rec.ID, Record: listingKey}, nil
}

// ExecuteTrade executa uma compra contra uma listagem ativa: valor para o
// vendedor, taxa para a tesouraria, tokens para o comprador.
func (s *LedgerService) ExecuteTrade(ctx context.Context, buyer solana.PublicKey, listingKey solana.PublicKey, amount uint64) (*TradeReceipt, error) {
	decoded, err := roundTrip(&ledger.ExecuteTrade{Amount: amount})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.ExecuteTrade)

	marketplaceKey, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.loadMarketplace(tx, marketplaceKey)
	if err != nil {
		return nil, err
	}
	l, err := s.loadListing(tx, listingKey)
	if err != nil {
		return nil, err
	}
	buyerBalance, err := tx.Balance(buyer)
	if err != nil {
		return nil, err
	}

	settlement, err := ledger.SettleTrade(l, m, buyer, c.Amount, buyerBalance, s.now().Unix())
	if err != nil {
		return nil, err
	}

	if err := tx.Transfer(settlement.SellerPayment.From, settlement.SellerPayment.To, settlement.SellerPayment.Amount); err != nil {
		return nil, err
	}
	if settlement.FeePayment != nil {
		if err := tx.Transfer(settlement.FeePayment.From, settlement.FeePayment.To, settlement.FeePayment.Amount); err != nil {
			return nil, err
		}
	}
	sig, err := s.bridge.TransferUnits(ctx, settlement.UnitTransfer.Mint, settlement.UnitTransfer.From, settlement.UnitTransfer.To, settlement.UnitTransfer.Amount)
	if err != nil {
		return nil, fmt.Errorf("falha ao mover tokens: %w", err)
	}

	if err := tx.PutRecord(listingKey, storage.KindListing, marketplaceKey.Bytes(), l.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(marketplaceKey, storage.KindMarketplace, marketplaceKey.Bytes(), m.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "execute_trade", buyer, sig)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("trade liquidado",
		zap.String("transaction_id", rec.ID),
		zap.String("listing", listingKey.String()),
		zap.Uint64("total_price", settlement.TotalPrice),
		zap.Uint64("fee", settlement.Fee),
		zap.Bool("completed", settlement.Completed),
	)
	return &TradeReceipt{
		Receipt:      Receipt{TransactionID: rec.ID, Record: listingKey, Signature: rec.Signature},
		TotalPrice:   settlement.TotalPrice,
		Fee:          settlement.Fee,
		SellerAmount: settlement.SellerAmount,
		Completed:    settlement.Completed,
	}, nil
}

// CancelListing cancela uma listagem ativa do próprio vendedor.
func (s *LedgerService) CancelListing(ctx context.Context, seller solana.PublicKey, listingKey solana.PublicKey) (*Receipt, error) {
	if _, err := roundTrip(&ledger.CancelListing{}); err != nil {
		return nil, err
	}

	marketplaceKey, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.loadMarketplace(tx, marketplaceKey)
	if err != nil {
		return nil, err
	}
	l, err := s.loadListing(tx, listingKey)
	if err != nil {
		return nil, err
	}
	if err := ledger.CloseListing(l, m, seller, s.now().Unix()); err != nil {
		return nil, err
	}

	if err := tx.PutRecord(listingKey, storage.KindListing, marketplaceKey.Bytes(), l.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(marketplaceKey, storage.KindMarketplace, marketplaceKey.Bytes(), m.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "cancel_listing", seller, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: listingKey}, nil
}

// UpdateMarketplaceFee ajusta a taxa do mercado.
func (s *LedgerService) UpdateMarketplaceFee(ctx context.Context, signer solana.PublicKey, fee uint16) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.UpdateMarketplaceFee{Fee: fee})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.UpdateMarketplaceFee)

	marketplaceKey, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.loadMarketplace(tx, marketplaceKey)
	if err != nil {
		return nil, err
	}
	if err := ledger.SetMarketplaceFee(m, signer, c.Fee, s.now().Unix()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(marketplaceKey, storage.KindMarketplace, marketplaceKey.Bytes(), m.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "update_marketplace_fee", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: marketplaceKey}, nil
}

// InitializeRegistry cria o registro único de verificadores.
func (s *LedgerService) InitializeRegistry(ctx context.Context, authority solana.PublicKey) (*Receipt, error) {
	if _, err := roundTrip(&ledger.InitializeRegistry{}); err != nil {
		return nil, err
	}

	key, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, found, err := tx.GetRecord(key); err != nil {
		return nil, err
	} else if found {
		return nil, ledger.ErrAlreadyInitialized
	}

	g := ledger.NewRegistry(authority, s.now().Unix())
	if err := tx.PutRecord(key, storage.KindRegistry, key.Bytes(), g.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "initialize_registry", authority, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: key}, nil
}

// AddVerifier cadastra (ou reativa) um verificador credenciado.
func (s *LedgerService) AddVerifier(ctx context.Context, signer, verifierAuthority solana.PublicKey, name, url string) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.AddVerifier{Name: name, URL: url})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.AddVerifier)

	registryKey, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}
	verifierKey, err := s.keys.VerifierKey(verifierAuthority)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g, err := s.loadRegistry(tx, registryKey)
	if err != nil {
		return nil, err
	}
	v, err := s.loadVerifierOrZero(tx, verifierKey)
	if err != nil {
		return nil, err
	}

	if err := ledger.RegisterVerifier(g, v, signer, verifierAuthority, c.Name, c.URL, s.now().Unix()); err != nil {
		return nil, err
	}

	if err := tx.PutRecord(registryKey, storage.KindRegistry, registryKey.Bytes(), g.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(verifierKey, storage.KindVerifier, registryKey.Bytes(), v.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "add_verifier", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: verifierKey}, nil
}

// RemoveVerifier desativa um verificador, preservando o histórico.
func (s *LedgerService) RemoveVerifier(ctx context.Context, signer, verifierAuthority solana.PublicKey) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.RemoveVerifier{Verifier: verifierAuthority})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.RemoveVerifier)

	registryKey, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}
	verifierKey, err := s.keys.VerifierKey(c.Verifier)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g, err := s.loadRegistry(tx, registryKey)
	if err != nil {
		return nil, err
	}
	v, err := s.loadVerifier(tx, verifierKey)
	if err != nil {
		return nil, err
	}

	if err := ledger.DeactivateVerifier(g, v, signer, s.now().Unix()); err != nil {
		return nil, err
	}

	if err := tx.PutRecord(registryKey, storage.KindRegistry, registryKey.Bytes(), g.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(verifierKey, storage.KindVerifier, registryKey.Bytes(), v.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "remove_verifier", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: verifierKey}, nil
}

// RegisterPropertyAttestation abre a ficha de verificação de um imóvel.
func (s *LedgerService) RegisterPropertyAttestation(ctx context.Context, owner solana.PublicKey, cmd *ledger.RegisterProperty) (*Receipt, error) {
	decoded, err := roundTrip(cmd)
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.RegisterProperty)

	registryKey, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}
	attestationKey, err := s.keys.AttestationKey(c.PropertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g, err := s.loadRegistry(tx, registryKey)
	if err != nil {
		return nil, err
	}
	if _, found, err := tx.GetRecord(attestationKey); err != nil {
		return nil, err
	} else if found {
		return nil, ledger.ErrAlreadyInitialized
	}

	record, err := ledger.OpenAttestation(g, owner, c, s.now().Unix())
	if err != nil {
		return nil, err
	}

	if err := tx.PutRecord(registryKey, storage.KindRegistry, registryKey.Bytes(), g.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(attestationKey, storage.KindAttestation, registryKey.Bytes(), record.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "register_property", owner, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: attestationKey}, nil
}

// VerifyProperty registra o desfecho da verificação de um imóvel. O signer é
// a autoridade do verificador credenciado.
func (s *LedgerService) VerifyProperty(ctx context.Context, signer solana.PublicKey, propertyID ledger.PropertyID, outcome ledger.VerificationStatus, details ledger.VerificationDetails) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.VerifyProperty{Outcome: outcome, Details: details})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.VerifyProperty)

	verifierKey, err := s.keys.VerifierKey(signer)
	if err != nil {
		return nil, err
	}
	attestationKey, err := s.keys.AttestationKey(propertyID)
	if err != nil {
		return nil, err
	}
	registryKey, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	v, err := s.loadVerifier(tx, verifierKey)
	if err != nil {
		return nil, err
	}
	record, err := s.loadAttestation(tx, attestationKey)
	if err != nil {
		return nil, err
	}

	if err := ledger.SubmitVerification(record, v, signer, verifierKey, c.Outcome, c.Details, s.now().Unix()); err != nil {
		return nil, err
	}

	if err := tx.PutRecord(attestationKey, storage.KindAttestation, registryKey.Bytes(), record.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(verifierKey, storage.KindVerifier, registryKey.Bytes(), v.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "verify_property", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}

	s.logger.Info("verificação registrada",
		zap.String("transaction_id", rec.ID),
		zap.String("attestation", attestationKey.String()),
		zap.String("outcome", c.Outcome.String()),
	)
	return &Receipt{TransactionID: rec.ID, Record: attestationKey}, nil
}

// UpdateVerificationStatus força um status por decisão da autoridade do
// registro.
func (s *LedgerService) UpdateVerificationStatus(ctx context.Context, signer solana.PublicKey, propertyID ledger.PropertyID, status ledger.VerificationStatus) (*Receipt, error) {
	decoded, err := roundTrip(&ledger.UpdateVerificationStatus{Status: status})
	if err != nil {
		return nil, err
	}
	c := decoded.(*ledger.UpdateVerificationStatus)

	registryKey, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}
	attestationKey, err := s.keys.AttestationKey(propertyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	g, err := s.loadRegistry(tx, registryKey)
	if err != nil {
		return nil, err
	}
	record, err := s.loadAttestation(tx, attestationKey)
	if err != nil {
		return nil, err
	}

	if err := ledger.OverrideVerificationStatus(g, record, signer, c.Status, s.now().Unix()); err != nil {
		return nil, err
	}

	if err := tx.PutRecord(attestationKey, storage.KindAttestation, registryKey.Bytes(), record.Encode()); err != nil {
		return nil, err
	}
	if err := tx.PutRecord(registryKey, storage.KindRegistry, registryKey.Bytes(), g.Encode()); err != nil {
		return nil, err
	}

	rec, err := s.journal(tx, "update_verification_status", signer, solana.Signature{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("falha ao confirmar invocação: %w", err)
	}
	return &Receipt{TransactionID: rec.ID, Record: attestationKey}, nil
}

// GetProperty carrega o registro de um imóvel, fora de transação.
func (s *LedgerService) GetProperty(ctx context.Context, propertyID ledger.PropertyID) (*ledger.Property, error) {
	key, err := s.keys.PropertyKey(propertyID)
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeProperty(data)
}

// GetHolding carrega a posição de um titular em um imóvel.
func (s *LedgerService) GetHolding(ctx context.Context, propertyID ledger.PropertyID, owner solana.PublicKey) (*ledger.PropertyToken, error) {
	key, err := s.keys.HoldingKey(propertyID, owner)
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodePropertyToken(data)
}

// GetMarketplace carrega a configuração do mercado.
func (s *LedgerService) GetMarketplace(ctx context.Context) (*ledger.Marketplace, error) {
	key, err := s.keys.MarketplaceKey()
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeMarketplace(data)
}

// GetListing carrega uma listagem pelo endereço.
func (s *LedgerService) GetListing(ctx context.Context, listingKey solana.PublicKey) (*ledger.Listing, error) {
	data, found, err := s.store.GetRecordSnapshot(ctx, listingKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeListing(data)
}

// GetRegistry carrega o registro de verificadores.
func (s *LedgerService) GetRegistry(ctx context.Context) (*ledger.Registry, error) {
	key, err := s.keys.RegistryKey()
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeRegistry(data)
}

// GetVerifier carrega o cadastro de um verificador pela autoridade.
func (s *LedgerService) GetVerifier(ctx context.Context, authority solana.PublicKey) (*ledger.Verifier, error) {
	key, err := s.keys.VerifierKey(authority)
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeVerifier(data)
}

// GetAttestation carrega a ficha de verificação de um imóvel.
func (s *LedgerService) GetAttestation(ctx context.Context, propertyID ledger.PropertyID) (*ledger.PropertyRecord, error) {
	key, err := s.keys.AttestationKey(propertyID)
	if err != nil {
		return nil, err
	}
	data, found, err := s.store.GetRecordSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodePropertyRecord(data)
}

// GetTransaction busca uma entrada do diário.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	rec, found, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if !found {
		return models.Transaction{}, ErrRecordNotFound
	}
	return rec, nil
}

// QuotePurchase cota uma compra primária com aritmética decimal exata, sem o
// truncamento inteiro do motor. Útil para exibição; a liquidação em si usa o
// preço inteiro.
func (s *LedgerService) QuotePurchase(ctx context.Context, propertyID ledger.PropertyID, amount uint64) (*PriceQuote, error) {
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.TokenSupply == 0 {
		return nil, ErrZeroTokenSupply
	}
	unit := decimal.NewFromUint64(p.TotalValue).Div(decimal.NewFromUint64(p.TokenSupply))
	return &PriceQuote{
		UnitPrice: unit,
		Total:     unit.Mul(decimal.NewFromUint64(amount)),
		Remaining: p.Remaining(),
	}, nil
}

func (s *LedgerService) journal(tx Tx, kind string, signer solana.PublicKey, sig solana.Signature) (models.Transaction, error) {
	rec := models.Transaction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Signer:    signer.String(),
		Status:    models.TransactionConfirmed,
		CreatedAt: s.now(),
	}
	if !sig.IsZero() {
		rec.Signature = sig.String()
		rec.Status = models.TransactionPending
	}
	if err := tx.SaveTransaction(rec); err != nil {
		return models.Transaction{}, err
	}
	return rec, nil
}

func (s *LedgerService) loadProperty(tx Tx, key solana.PublicKey) (*ledger.Property, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeProperty(data)
}

func (s *LedgerService) loadHoldingOrZero(tx Tx, key solana.PublicKey) (*ledger.PropertyToken, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &ledger.PropertyToken{}, nil
	}
	return ledger.DecodePropertyToken(data)
}

func (s *LedgerService) loadMarketplace(tx Tx, key solana.PublicKey) (*ledger.Marketplace, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeMarketplace(data)
}

func (s *LedgerService) loadListing(tx Tx, key solana.PublicKey) (*ledger.Listing, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeListing(data)
}

func (s *LedgerService) loadRegistry(tx Tx, key solana.PublicKey) (*ledger.Registry, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeRegistry(data)
}

func (s *LedgerService) loadVerifier(tx Tx, key solana.PublicKey) (*ledger.Verifier, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodeVerifier(data)
}

func (s *LedgerService) loadVerifierOrZero(tx Tx, key solana.PublicKey) (*ledger.Verifier, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &ledger.Verifier{}, nil
	}
	return ledger.DecodeVerifier(data)
}

func (s *LedgerService) loadAttestation(tx Tx, key solana.PublicKey) (*ledger.PropertyRecord, error) {
	data, found, err := tx.GetRecord(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecordNotFound
	}
	return ledger.DecodePropertyRecord(data)
}
