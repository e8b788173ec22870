package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// Motor de liquidação. Todas as funções são puras sobre as cópias de
// registros recebidas: validam tudo antes de mutar qualquer coisa, para que
// o host possa tratar qualquer falha como "nada aconteceu". Efeitos que
// movem valor ou tokens são devolvidos ao host, que precisa aplicá-los
// antes de gravar a contabilidade interna.

// BasisPointsDenominator converte basis points em fração (10000 = 100%).
const BasisPointsDenominator = 10000

// UnitTransfer é uma movimentação de tokens fracionários executada pelo
// colaborador externo de transferência.
type UnitTransfer struct {
	Mint   solana.PublicKey
	From   solana.PublicKey
	To     solana.PublicKey
	Amount uint64
}

// ValueTransfer é uma movimentação de valor entre contas do host.
type ValueTransfer struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Amount uint64
}

// NewProperty monta o registro inicial de um imóvel a partir do comando de
// criação já validado estruturalmente.
func NewProperty(owner solana.PublicKey, c *CreateProperty, now uint64) (*Property, error) {
	if err := ValidatePropertyData(c.Name, c.Address, c.TotalValue, c.TokenSupply, c.YieldPercentage); err != nil {
		return nil, err
	}
	return &Property{
		IsInitialized:         true,
		Owner:                 owner,
		PropertyID:            c.PropertyID,
		Name:                  c.Name,
		Address:               c.Address,
		TotalValue:            c.TotalValue,
		TokenSupply:           c.TokenSupply,
		YieldPercentage:       c.YieldPercentage,
		LastYieldDistribution: now,
	}, nil
}

// TokenPrice é o preço unitário implícito da oferta primária.
func TokenPrice(p *Property) uint64 {
	if p.TokenSupply == 0 {
		return 0
	}
	return p.TotalValue / p.TokenSupply
}

// PurchaseResult descreve a liquidação de uma compra primária.
type PurchaseResult struct {
	Cost     uint64
	Transfer UnitTransfer
	SoldOut  bool
}

// PurchaseUnits compra tokens da oferta primária. A posição do comprador é
// única por par (imóvel, titular); compras subsequentes acumulam nela. A
// movimentação dos tokens em si fica com o colaborador externo, via o
// UnitTransfer devolvido.
func PurchaseUnits(p *Property, holding *PropertyToken, mint, treasury, buyer solana.PublicKey, amount, now uint64) (*PurchaseResult, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if !p.Available() {
		return nil, ErrPropertyNotAvailable
	}
	if amount > p.Remaining() {
		return nil, ErrInsufficientTokens
	}

	cost, err := checkedMul(TokenPrice(p), amount)
	if err != nil {
		return nil, err
	}
	newSold, err := checkedAdd(p.TokensSold, amount)
	if err != nil {
		return nil, err
	}
	newAmount, err := checkedAdd(holding.Amount, amount)
	if err != nil {
		return nil, err
	}
	newPrice, err := checkedAdd(holding.PurchasePrice, cost)
	if err != nil {
		return nil, err
	}

	if !holding.IsInitialized {
		holding.IsInitialized = true
		holding.PropertyID = p.PropertyID
		holding.Owner = buyer
		holding.PurchaseDate = now
	}
	holding.Amount = newAmount
	holding.PurchasePrice = newPrice
	p.TokensSold = newSold

	return &PurchaseResult{
		Cost:     cost,
		Transfer: UnitTransfer{Mint: mint, From: treasury, To: buyer, Amount: amount},
		SoldOut:  p.TokensSold == p.TokenSupply,
	}, nil
}

// RevalueProperty atualiza o valor total do imóvel. Só o dono pode reavaliar.
func RevalueProperty(p *Property, signer solana.PublicKey, newValue uint64) error {
	if !p.IsInitialized {
		return ErrNotInitialized
	}
	if !p.Owner.Equals(signer) {
		return ErrUnauthorized
	}
	if newValue == 0 {
		return newValidationError("new_value", "deve ser maior que zero")
	}
	p.TotalValue = newValue
	return nil
}

// NewMarketplace monta o registro de configuração do mercado.
func NewMarketplace(authority, treasury solana.PublicKey, fee uint16, now int64) (*Marketplace, error) {
	if err := ValidateFee(fee); err != nil {
		return nil, err
	}
	return &Marketplace{
		IsInitialized: true,
		Authority:     authority,
		Treasury:      treasury,
		Fee:           fee,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// OpenListing cria uma listagem de revenda e incrementa o contador de
// listagens ativas do mercado.
func OpenListing(m *Marketplace, seller, mint solana.PublicKey, pricePerToken, tokenAmount uint64, now int64) (*Listing, error) {
	if !m.IsInitialized {
		return nil, ErrNotInitialized
	}
	if err := ValidateListingData(pricePerToken, tokenAmount); err != nil {
		return nil, err
	}
	active, err := checkedAdd(m.ActiveListings, 1)
	if err != nil {
		return nil, err
	}
	m.ActiveListings = active
	m.UpdatedAt = now
	return &Listing{
		IsInitialized: true,
		Seller:        seller,
		Mint:          mint,
		PricePerToken: pricePerToken,
		TokenAmount:   tokenAmount,
		Status:        ListingActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// TradeSettlement descreve a liquidação completa de um trade: preço, taxa e
// os efeitos a aplicar, na ordem em que o host deve aplicá-los.
type TradeSettlement struct {
	TotalPrice    uint64
	Fee           uint64
	SellerAmount  uint64
	UnitTransfer  UnitTransfer   // tokens: vendedor → comprador
	SellerPayment ValueTransfer  // valor: comprador → vendedor
	FeePayment    *ValueTransfer // valor: comprador → tesouraria (nil se taxa zero)
	Completed     bool
}

// SettleTrade executa um trade contra uma listagem ativa.
//
//	total = preço_unitário * quantidade        (multiplicação verificada)
//	taxa  = floor(total * fee_bps / 10000)     (intermediário de 128 bits)
//	vendedor recebe total - taxa               (subtração verificada)
//
// O saldo do comprador é conferido contra o total antes de qualquer
// mutação; underflow no contador de listagens ativas indica inconsistência
// interna e é fatal, nunca silencioso.
func SettleTrade(l *Listing, m *Marketplace, buyer solana.PublicKey, amount, buyerBalance uint64, now int64) (*TradeSettlement, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if l.Status != ListingActive {
		return nil, ErrListingNotActive
	}
	if amount > l.TokenAmount {
		return nil, ErrInsufficientTokens
	}

	totalPrice, err := checkedMul(l.PricePerToken, amount)
	if err != nil {
		return nil, err
	}
	fee, err := mulDiv(totalPrice, uint64(m.Fee), BasisPointsDenominator)
	if err != nil {
		return nil, err
	}
	sellerAmount, err := checkedSub(totalPrice, fee)
	if err != nil {
		return nil, err
	}
	if buyerBalance < totalPrice {
		return nil, ErrInsufficientFunds
	}

	remaining, err := checkedSub(l.TokenAmount, amount)
	if err != nil {
		return nil, err
	}
	activeListings := m.ActiveListings
	completed := remaining == 0
	if completed {
		activeListings, err = checkedSub(m.ActiveListings, 1)
		if err != nil {
			return nil, err
		}
	}
	totalVolume, err := checkedAdd(m.TotalVolume, totalPrice)
	if err != nil {
		return nil, err
	}

	// Toda a aritmética validada; agora sim a contabilidade muda.
	l.TokenAmount = remaining
	if completed {
		l.Status = ListingCompleted
	}
	l.UpdatedAt = now
	m.ActiveListings = activeListings
	m.TotalVolume = totalVolume
	m.UpdatedAt = now

	settlement := &TradeSettlement{
		TotalPrice:    totalPrice,
		Fee:           fee,
		SellerAmount:  sellerAmount,
		UnitTransfer:  UnitTransfer{Mint: l.Mint, From: l.Seller, To: buyer, Amount: amount},
		SellerPayment: ValueTransfer{From: buyer, To: l.Seller, Amount: sellerAmount},
		Completed:     completed,
	}
	if fee > 0 {
		settlement.FeePayment = &ValueTransfer{From: buyer, To: m.Treasury, Amount: fee}
	}
	return settlement, nil
}

// CloseListing cancela uma listagem ativa. Só o vendedor pode cancelar.
func CloseListing(l *Listing, m *Marketplace, signer solana.PublicKey, now int64) error {
	if !l.Seller.Equals(signer) {
		return ErrUnauthorized
	}
	if l.Status != ListingActive {
		return ErrListingNotActive
	}
	active, err := checkedSub(m.ActiveListings, 1)
	if err != nil {
		return err
	}
	l.Status = ListingCancelled
	l.UpdatedAt = now
	m.ActiveListings = active
	m.UpdatedAt = now
	return nil
}

// SetMarketplaceFee ajusta a taxa do mercado. Só a autoridade pode, e o
// teto de 1000 bps é inegociável — em caso de rejeição a taxa anterior
// permanece intacta.
func SetMarketplaceFee(m *Marketplace, signer solana.PublicKey, fee uint16, now int64) error {
	if !m.Authority.Equals(signer) {
		return ErrUnauthorized
	}
	if err := ValidateFee(fee); err != nil {
		return err
	}
	m.Fee = fee
	m.UpdatedAt = now
	return nil
}
