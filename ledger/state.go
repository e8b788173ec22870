package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// Capacidades dos campos de texto dos registros.
const (
	PropertyNameLen    = 64
	PropertyAddressLen = 128
	VerifierNameLen    = 64
	VerifierURLLen     = 128
	MethodLen          = 32
	NotesLen           = 256
)

// PropertyID é o identificador opaco de 32 bytes de um imóvel.
type PropertyID [32]byte

// Property é o registro principal de um imóvel tokenizado. O estado
// terminal "vendido" é implícito: TokensSold == TokenSupply.
type Property struct {
	IsInitialized         bool
	Owner                 solana.PublicKey
	PropertyID            PropertyID
	Name                  string
	Address               string
	TotalValue            uint64
	TokenSupply           uint64
	TokensSold            uint64
	YieldPercentage       uint8
	LastYieldDistribution uint64
}

// PropertyLen é o tamanho fixo do registro Property em bytes.
const PropertyLen = 1 + 32 + 32 + PropertyNameLen + PropertyAddressLen + 8 + 8 + 8 + 1 + 8

// Available informa se ainda há tokens à venda na oferta primária.
func (p *Property) Available() bool {
	return p.IsInitialized && p.TokensSold < p.TokenSupply
}

// Remaining é a quantidade de tokens ainda não vendidos.
func (p *Property) Remaining() uint64 {
	return p.TokenSupply - p.TokensSold
}

// Encode serializa o registro no layout fixo de wire.
func (p *Property) Encode() []byte {
	w := newFieldWriter(PropertyLen)
	w.writeBool(p.IsInitialized)
	w.writePubkey(p.Owner)
	copy(w.buf[w.off:], p.PropertyID[:])
	w.off += len(p.PropertyID)
	w.writeString(p.Name, PropertyNameLen)
	w.writeString(p.Address, PropertyAddressLen)
	w.writeU64(p.TotalValue)
	w.writeU64(p.TokenSupply)
	w.writeU64(p.TokensSold)
	w.writeU8(p.YieldPercentage)
	w.writeU64(p.LastYieldDistribution)
	return w.bytes()
}

// DecodeProperty desserializa um registro Property do layout fixo.
func DecodeProperty(src []byte) (*Property, error) {
	r := newFieldReader(src, PropertyLen)
	var p Property
	p.IsInitialized = r.readBool()
	p.Owner = r.readPubkey()
	p.PropertyID = readPropertyID(r)
	p.Name = r.readString(PropertyNameLen)
	p.Address = r.readString(PropertyAddressLen)
	p.TotalValue = r.readU64()
	p.TokenSupply = r.readU64()
	p.TokensSold = r.readU64()
	p.YieldPercentage = r.readU8()
	p.LastYieldDistribution = r.readU64()
	if r.err != nil {
		return nil, r.err
	}
	return &p, nil
}

// PropertyToken é a posição de um titular em um imóvel. Existe uma posição
// por par (imóvel, titular); compras subsequentes acumulam na mesma.
type PropertyToken struct {
	IsInitialized  bool
	PropertyID     PropertyID
	Owner          solana.PublicKey
	Amount         uint64
	PurchasePrice  uint64
	PurchaseDate   uint64
	LastYieldClaim uint64
}

// PropertyTokenLen é o tamanho fixo do registro PropertyToken em bytes.
const PropertyTokenLen = 1 + 32 + 32 + 8 + 8 + 8 + 8

// Encode serializa a posição no layout fixo de wire.
func (t *PropertyToken) Encode() []byte {
	w := newFieldWriter(PropertyTokenLen)
	w.writeBool(t.IsInitialized)
	copy(w.buf[w.off:], t.PropertyID[:])
	w.off += len(t.PropertyID)
	w.writePubkey(t.Owner)
	w.writeU64(t.Amount)
	w.writeU64(t.PurchasePrice)
	w.writeU64(t.PurchaseDate)
	w.writeU64(t.LastYieldClaim)
	return w.bytes()
}

// DecodePropertyToken desserializa uma posição do layout fixo.
func DecodePropertyToken(src []byte) (*PropertyToken, error) {
	r := newFieldReader(src, PropertyTokenLen)
	var t PropertyToken
	t.IsInitialized = r.readBool()
	t.PropertyID = readPropertyID(r)
	t.Owner = r.readPubkey()
	t.Amount = r.readU64()
	t.PurchasePrice = r.readU64()
	t.PurchaseDate = r.readU64()
	t.LastYieldClaim = r.readU64()
	if r.err != nil {
		return nil, r.err
	}
	return &t, nil
}

func readPropertyID(r *fieldReader) PropertyID {
	var id PropertyID
	if r.err != nil {
		return id
	}
	copy(id[:], r.buf[r.off:r.off+len(id)])
	r.off += len(id)
	return id
}
