package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// Opcode seleciona um comando do conjunto fechado de instruções.
type Opcode uint8

const (
	OpCreateProperty Opcode = iota
	OpPurchaseTokens
	OpDistributeYield
	OpUpdatePropertyValue
	OpCreateListing
	OpExecuteTrade
	OpCancelListing
	OpUpdateMarketplaceFee
	OpInitializeMarketplace
	OpInitializeRegistry
	OpAddVerifier
	OpRemoveVerifier
	OpRegisterProperty
	OpVerifyProperty
	OpUpdateVerificationStatus
)

// Tamanhos fixos de payload por opcode.
const (
	createPropertyPayloadLen = 32 + PropertyNameLen + PropertyAddressLen + 8 + 8 + 1
	createListingPayloadLen  = 32 + 8 + 8
	initMarketplacePayload   = 32 + 2
	addVerifierPayloadLen    = VerifierNameLen + VerifierURLLen
	registerPropertyPayload  = 32 + 32 + PropertyAddressLen
	verifyPropertyPayloadLen = 1 + VerificationDetailsLen
)

// Command é uma instrução decodificada. Encode produz exatamente os bytes
// que DecodeInstruction aceita de volta.
type Command interface {
	Opcode() Opcode
	Encode() []byte
}

// CreateProperty cria o registro de um imóvel (opcode 0).
type CreateProperty struct {
	PropertyID      PropertyID
	Name            string
	Address         string
	TotalValue      uint64
	TokenSupply     uint64
	YieldPercentage uint8
}

func (c *CreateProperty) Opcode() Opcode { return OpCreateProperty }

func (c *CreateProperty) Encode() []byte {
	w := newFieldWriter(1 + createPropertyPayloadLen)
	w.writeU8(uint8(OpCreateProperty))
	copy(w.buf[w.off:], c.PropertyID[:])
	w.off += len(c.PropertyID)
	w.writeString(c.Name, PropertyNameLen)
	w.writeString(c.Address, PropertyAddressLen)
	w.writeU64(c.TotalValue)
	w.writeU64(c.TokenSupply)
	w.writeU8(c.YieldPercentage)
	return w.bytes()
}

// PurchaseTokens compra tokens da oferta primária (opcode 1).
type PurchaseTokens struct {
	Amount uint64
}

func (c *PurchaseTokens) Opcode() Opcode { return OpPurchaseTokens }
func (c *PurchaseTokens) Encode() []byte { return encodeU64Payload(OpPurchaseTokens, c.Amount) }

// DistributeYield distribui rendimento pro-rata aos titulares (opcode 2).
type DistributeYield struct {
	Amount uint64
}

func (c *DistributeYield) Opcode() Opcode { return OpDistributeYield }
func (c *DistributeYield) Encode() []byte { return encodeU64Payload(OpDistributeYield, c.Amount) }

// UpdatePropertyValue reavalia o valor total do imóvel (opcode 3).
type UpdatePropertyValue struct {
	NewValue uint64
}

func (c *UpdatePropertyValue) Opcode() Opcode { return OpUpdatePropertyValue }
func (c *UpdatePropertyValue) Encode() []byte {
	return encodeU64Payload(OpUpdatePropertyValue, c.NewValue)
}

// CreateListing lista tokens para revenda no mercado (opcode 4).
type CreateListing struct {
	Mint          solana.PublicKey
	PricePerToken uint64
	TokenAmount   uint64
}

func (c *CreateListing) Opcode() Opcode { return OpCreateListing }

func (c *CreateListing) Encode() []byte {
	w := newFieldWriter(1 + createListingPayloadLen)
	w.writeU8(uint8(OpCreateListing))
	w.writePubkey(c.Mint)
	w.writeU64(c.PricePerToken)
	w.writeU64(c.TokenAmount)
	return w.bytes()
}

// ExecuteTrade executa uma compra contra uma listagem ativa (opcode 5).
type ExecuteTrade struct {
	Amount uint64
}

func (c *ExecuteTrade) Opcode() Opcode { return OpExecuteTrade }
func (c *ExecuteTrade) Encode() []byte { return encodeU64Payload(OpExecuteTrade, c.Amount) }

// CancelListing cancela uma listagem ativa do próprio vendedor (opcode 6).
type CancelListing struct{}

func (c *CancelListing) Opcode() Opcode { return OpCancelListing }
func (c *CancelListing) Encode() []byte { return []byte{uint8(OpCancelListing)} }

// UpdateMarketplaceFee ajusta a taxa do mercado (opcode 7).
type UpdateMarketplaceFee struct {
	Fee uint16
}

func (c *UpdateMarketplaceFee) Opcode() Opcode { return OpUpdateMarketplaceFee }

func (c *UpdateMarketplaceFee) Encode() []byte {
	w := newFieldWriter(1 + 2)
	w.writeU8(uint8(OpUpdateMarketplaceFee))
	w.writeU16(c.Fee)
	return w.bytes()
}

// InitializeMarketplace cria o registro de configuração do mercado (opcode 8).
type InitializeMarketplace struct {
	Treasury solana.PublicKey
	Fee      uint16
}

func (c *InitializeMarketplace) Opcode() Opcode { return OpInitializeMarketplace }

func (c *InitializeMarketplace) Encode() []byte {
	w := newFieldWriter(1 + initMarketplacePayload)
	w.writeU8(uint8(OpInitializeMarketplace))
	w.writePubkey(c.Treasury)
	w.writeU16(c.Fee)
	return w.bytes()
}

// InitializeRegistry cria o registro de verificadores (opcode 9).
type InitializeRegistry struct{}

func (c *InitializeRegistry) Opcode() Opcode { return OpInitializeRegistry }
func (c *InitializeRegistry) Encode() []byte { return []byte{uint8(OpInitializeRegistry)} }

// AddVerifier cadastra (ou reativa) um verificador (opcode 10).
type AddVerifier struct {
	Name string
	URL  string
}

func (c *AddVerifier) Opcode() Opcode { return OpAddVerifier }

func (c *AddVerifier) Encode() []byte {
	w := newFieldWriter(1 + addVerifierPayloadLen)
	w.writeU8(uint8(OpAddVerifier))
	w.writeString(c.Name, VerifierNameLen)
	w.writeString(c.URL, VerifierURLLen)
	return w.bytes()
}

// RemoveVerifier desativa um verificador cadastrado (opcode 11).
type RemoveVerifier struct {
	Verifier solana.PublicKey
}

func (c *RemoveVerifier) Opcode() Opcode { return OpRemoveVerifier }

func (c *RemoveVerifier) Encode() []byte {
	w := newFieldWriter(1 + 32)
	w.writeU8(uint8(OpRemoveVerifier))
	w.writePubkey(c.Verifier)
	return w.bytes()
}

// RegisterProperty abre a atestação de um imóvel no registro (opcode 12).
type RegisterProperty struct {
	PropertyID PropertyID
	TokenMint  solana.PublicKey
	Address    string
}

func (c *RegisterProperty) Opcode() Opcode { return OpRegisterProperty }

func (c *RegisterProperty) Encode() []byte {
	w := newFieldWriter(1 + registerPropertyPayload)
	w.writeU8(uint8(OpRegisterProperty))
	copy(w.buf[w.off:], c.PropertyID[:])
	w.off += len(c.PropertyID)
	w.writePubkey(c.TokenMint)
	w.writeString(c.Address, PropertyAddressLen)
	return w.bytes()
}

// VerifyProperty registra o desfecho da verificação de um imóvel (opcode 13).
// Outcome só pode ser Verified ou Rejected.
type VerifyProperty struct {
	Outcome VerificationStatus
	Details VerificationDetails
}

func (c *VerifyProperty) Opcode() Opcode { return OpVerifyProperty }

func (c *VerifyProperty) Encode() []byte {
	w := newFieldWriter(1 + verifyPropertyPayloadLen)
	w.writeU8(uint8(OpVerifyProperty))
	w.writeU8(uint8(c.Outcome))
	c.Details.encodeInto(w)
	return w.bytes()
}

// UpdateVerificationStatus força um status por decisão da autoridade do
// registro (opcode 14).
type UpdateVerificationStatus struct {
	Status VerificationStatus
}

func (c *UpdateVerificationStatus) Opcode() Opcode { return OpUpdateVerificationStatus }

func (c *UpdateVerificationStatus) Encode() []byte {
	return []byte{uint8(OpUpdateVerificationStatus), uint8(c.Status)}
}

func encodeU64Payload(op Opcode, v uint64) []byte {
	w := newFieldWriter(1 + 8)
	w.writeU8(uint8(op))
	w.writeU64(v)
	return w.bytes()
}

// DecodeInstruction interpreta o primeiro byte como opcode e o restante como
// payload de layout fixo. Só faz parsing estrutural — nenhuma regra de
// negócio é aplicada aqui.
func DecodeInstruction(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, ErrMalformedInstruction
	}
	op, rest := Opcode(data[0]), data[1:]

	switch op {
	case OpCreateProperty:
		r := newFieldReader(rest, createPropertyPayloadLen)
		c := &CreateProperty{}
		c.PropertyID = readPropertyID(r)
		c.Name = r.readString(PropertyNameLen)
		c.Address = r.readString(PropertyAddressLen)
		c.TotalValue = r.readU64()
		c.TokenSupply = r.readU64()
		c.YieldPercentage = r.readU8()
		return finishDecode(c, r)

	case OpPurchaseTokens:
		amount, err := decodeU64Payload(rest)
		if err != nil {
			return nil, err
		}
		return &PurchaseTokens{Amount: amount}, nil

	case OpDistributeYield:
		amount, err := decodeU64Payload(rest)
		if err != nil {
			return nil, err
		}
		return &DistributeYield{Amount: amount}, nil

	case OpUpdatePropertyValue:
		value, err := decodeU64Payload(rest)
		if err != nil {
			return nil, err
		}
		return &UpdatePropertyValue{NewValue: value}, nil

	case OpCreateListing:
		r := newFieldReader(rest, createListingPayloadLen)
		c := &CreateListing{}
		c.Mint = r.readPubkey()
		c.PricePerToken = r.readU64()
		c.TokenAmount = r.readU64()
		return finishDecode(c, r)

	case OpExecuteTrade:
		amount, err := decodeU64Payload(rest)
		if err != nil {
			return nil, err
		}
		return &ExecuteTrade{Amount: amount}, nil

	case OpCancelListing:
		return &CancelListing{}, nil

	case OpUpdateMarketplaceFee:
		r := newFieldReader(rest, 2)
		c := &UpdateMarketplaceFee{Fee: r.readU16()}
		return finishDecode(c, r)

	case OpInitializeMarketplace:
		r := newFieldReader(rest, initMarketplacePayload)
		c := &InitializeMarketplace{}
		c.Treasury = r.readPubkey()
		c.Fee = r.readU16()
		return finishDecode(c, r)

	case OpInitializeRegistry:
		return &InitializeRegistry{}, nil

	case OpAddVerifier:
		r := newFieldReader(rest, addVerifierPayloadLen)
		c := &AddVerifier{}
		c.Name = r.readString(VerifierNameLen)
		c.URL = r.readString(VerifierURLLen)
		return finishDecode(c, r)

	case OpRemoveVerifier:
		r := newFieldReader(rest, 32)
		c := &RemoveVerifier{Verifier: r.readPubkey()}
		return finishDecode(c, r)

	case OpRegisterProperty:
		r := newFieldReader(rest, registerPropertyPayload)
		c := &RegisterProperty{}
		c.PropertyID = readPropertyID(r)
		c.TokenMint = r.readPubkey()
		c.Address = r.readString(PropertyAddressLen)
		return finishDecode(c, r)

	case OpVerifyProperty:
		r := newFieldReader(rest, verifyPropertyPayloadLen)
		c := &VerifyProperty{}
		c.Outcome = VerificationStatus(r.readU8())
		c.Details = decodeVerificationDetails(r)
		if r.err != nil {
			return nil, ErrMalformedInstruction
		}
		if c.Outcome != VerificationVerified && c.Outcome != VerificationRejected {
			return nil, ErrMalformedInstruction
		}
		return c, nil

	case OpUpdateVerificationStatus:
		if len(rest) < 1 {
			return nil, ErrMalformedInstruction
		}
		status := rest[0]
		if status > uint8(VerificationExpired) {
			return nil, ErrMalformedInstruction
		}
		return &UpdateVerificationStatus{Status: VerificationStatus(status)}, nil

	default:
		return nil, ErrMalformedInstruction
	}
}

func finishDecode(c Command, r *fieldReader) (Command, error) {
	if r.err != nil {
		return nil, ErrMalformedInstruction
	}
	return c, nil
}

func decodeU64Payload(rest []byte) (uint64, error) {
	r := newFieldReader(rest, 8)
	v := r.readU64()
	if r.err != nil {
		return 0, ErrMalformedInstruction
	}
	return v, nil
}
