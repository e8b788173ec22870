package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// ListingStatus é o ciclo de vida de uma listagem de revenda. Completed e
// Cancelled são terminais: nenhuma mutação posterior é permitida.
type ListingStatus uint8

const (
	ListingActive ListingStatus = iota
	ListingCompleted
	ListingCancelled
)

// String implementa fmt.Stringer para logs e respostas de API.
func (s ListingStatus) String() string {
	switch s {
	case ListingActive:
		return "active"
	case ListingCompleted:
		return "completed"
	case ListingCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Marketplace guarda a configuração e os contadores globais do mercado
// secundário. A taxa é em basis points (10000 bps = 100%); a regra de
// negócio limita a 1000 bps no update, não no storage.
type Marketplace struct {
	IsInitialized  bool
	Authority      solana.PublicKey
	Treasury       solana.PublicKey
	Fee            uint16
	ActiveListings uint64
	TotalVolume    uint64
	CreatedAt      int64
	UpdatedAt      int64
}

// MarketplaceLen é o tamanho fixo do registro Marketplace em bytes.
const MarketplaceLen = 1 + 32 + 32 + 2 + 8 + 8 + 8 + 8

// Encode serializa o registro no layout fixo de wire.
func (m *Marketplace) Encode() []byte {
	w := newFieldWriter(MarketplaceLen)
	w.writeBool(m.IsInitialized)
	w.writePubkey(m.Authority)
	w.writePubkey(m.Treasury)
	w.writeU16(m.Fee)
	w.writeU64(m.ActiveListings)
	w.writeU64(m.TotalVolume)
	w.writeI64(m.CreatedAt)
	w.writeI64(m.UpdatedAt)
	return w.bytes()
}

// DecodeMarketplace desserializa o registro do layout fixo.
func DecodeMarketplace(src []byte) (*Marketplace, error) {
	r := newFieldReader(src, MarketplaceLen)
	var m Marketplace
	m.IsInitialized = r.readBool()
	m.Authority = r.readPubkey()
	m.Treasury = r.readPubkey()
	m.Fee = r.readU16()
	m.ActiveListings = r.readU64()
	m.TotalVolume = r.readU64()
	m.CreatedAt = r.readI64()
	m.UpdatedAt = r.readI64()
	if r.err != nil {
		return nil, r.err
	}
	return &m, nil
}

// Listing é uma oferta de revenda de tokens de um imóvel. TokenAmount
// diminui a cada trade executado; ao chegar a zero o status vira Completed.
type Listing struct {
	IsInitialized bool
	Seller        solana.PublicKey
	Mint          solana.PublicKey
	PricePerToken uint64
	TokenAmount   uint64
	Status        ListingStatus
	CreatedAt     int64
	UpdatedAt     int64
}

// ListingLen é o tamanho fixo do registro Listing em bytes.
const ListingLen = 1 + 32 + 32 + 8 + 8 + 1 + 8 + 8

// Encode serializa a listagem no layout fixo de wire.
func (l *Listing) Encode() []byte {
	w := newFieldWriter(ListingLen)
	w.writeBool(l.IsInitialized)
	w.writePubkey(l.Seller)
	w.writePubkey(l.Mint)
	w.writeU64(l.PricePerToken)
	w.writeU64(l.TokenAmount)
	w.writeU8(uint8(l.Status))
	w.writeI64(l.CreatedAt)
	w.writeI64(l.UpdatedAt)
	return w.bytes()
}

// DecodeListing desserializa a listagem do layout fixo.
func DecodeListing(src []byte) (*Listing, error) {
	r := newFieldReader(src, ListingLen)
	var l Listing
	l.IsInitialized = r.readBool()
	l.Seller = r.readPubkey()
	l.Mint = r.readPubkey()
	l.PricePerToken = r.readU64()
	l.TokenAmount = r.readU64()
	status := r.readU8()
	l.CreatedAt = r.readI64()
	l.UpdatedAt = r.readI64()
	if r.err != nil {
		return nil, r.err
	}
	if status > uint8(ListingCancelled) {
		return nil, ErrInvalidStatus
	}
	l.Status = ListingStatus(status)
	return &l, nil
}
