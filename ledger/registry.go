package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// VerificationStatus é o estado de atestação de legitimidade de um imóvel.
// Rejected e Expired são terminais.
type VerificationStatus uint8

const (
	VerificationPending VerificationStatus = iota
	VerificationInProgress
	VerificationVerified
	VerificationRejected
	VerificationExpired
)

// String implementa fmt.Stringer para logs e respostas de API.
func (s VerificationStatus) String() string {
	switch s {
	case VerificationPending:
		return "pending"
	case VerificationInProgress:
		return "in_progress"
	case VerificationVerified:
		return "verified"
	case VerificationRejected:
		return "rejected"
	case VerificationExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal informa se nenhuma transição pode sair deste estado.
func (s VerificationStatus) Terminal() bool {
	return s == VerificationRejected || s == VerificationExpired
}

// Registry guarda a autoridade e os contadores do registro de verificadores.
type Registry struct {
	IsInitialized bool
	Authority     solana.PublicKey
	PropertyCount uint64
	VerifierCount uint64
	CreatedAt     int64
	UpdatedAt     int64
}

// RegistryLen é o tamanho fixo do registro Registry em bytes.
const RegistryLen = 1 + 32 + 8 + 8 + 8 + 8

// Encode serializa o registro no layout fixo de wire.
func (g *Registry) Encode() []byte {
	w := newFieldWriter(RegistryLen)
	w.writeBool(g.IsInitialized)
	w.writePubkey(g.Authority)
	w.writeU64(g.PropertyCount)
	w.writeU64(g.VerifierCount)
	w.writeI64(g.CreatedAt)
	w.writeI64(g.UpdatedAt)
	return w.bytes()
}

// DecodeRegistry desserializa o registro do layout fixo.
func DecodeRegistry(src []byte) (*Registry, error) {
	r := newFieldReader(src, RegistryLen)
	var g Registry
	g.IsInitialized = r.readBool()
	g.Authority = r.readPubkey()
	g.PropertyCount = r.readU64()
	g.VerifierCount = r.readU64()
	g.CreatedAt = r.readI64()
	g.UpdatedAt = r.readI64()
	if r.err != nil {
		return nil, r.err
	}
	return &g, nil
}

// Verifier é um verificador cadastrado. Remoção desativa em vez de apagar,
// preservando o histórico de verificações.
type Verifier struct {
	IsInitialized      bool
	Authority          solana.PublicKey
	Name               string
	URL                string
	IsActive           bool
	VerifiedProperties uint64
	CreatedAt          int64
	UpdatedAt          int64
}

// VerifierLen é o tamanho fixo do registro Verifier em bytes.
const VerifierLen = 1 + 32 + VerifierNameLen + VerifierURLLen + 1 + 8 + 8 + 8

// Encode serializa o verificador no layout fixo de wire.
func (v *Verifier) Encode() []byte {
	w := newFieldWriter(VerifierLen)
	w.writeBool(v.IsInitialized)
	w.writePubkey(v.Authority)
	w.writeString(v.Name, VerifierNameLen)
	w.writeString(v.URL, VerifierURLLen)
	w.writeBool(v.IsActive)
	w.writeU64(v.VerifiedProperties)
	w.writeI64(v.CreatedAt)
	w.writeI64(v.UpdatedAt)
	return w.bytes()
}

// DecodeVerifier desserializa o verificador do layout fixo.
func DecodeVerifier(src []byte) (*Verifier, error) {
	r := newFieldReader(src, VerifierLen)
	var v Verifier
	v.IsInitialized = r.readBool()
	v.Authority = r.readPubkey()
	v.Name = r.readString(VerifierNameLen)
	v.URL = r.readString(VerifierURLLen)
	v.IsActive = r.readBool()
	v.VerifiedProperties = r.readU64()
	v.CreatedAt = r.readI64()
	v.UpdatedAt = r.readI64()
	if r.err != nil {
		return nil, r.err
	}
	return &v, nil
}

// VerificationDetails é o laudo registrado quando um verificador conclui a
// atestação de um imóvel.
type VerificationDetails struct {
	VerificationDate           int64
	Method                     string
	Notes                      string
	LegalComplianceVerified    bool
	PropertyConditionVerified  bool
	ValuationConditionVerified bool
	VerificationExpiry         int64
}

// VerificationDetailsLen é o tamanho fixo do bloco VerificationDetails.
const VerificationDetailsLen = 8 + MethodLen + NotesLen + 1 + 1 + 1 + 8

func (d *VerificationDetails) encodeInto(w *fieldWriter) {
	w.writeI64(d.VerificationDate)
	w.writeString(d.Method, MethodLen)
	w.writeString(d.Notes, NotesLen)
	w.writeBool(d.LegalComplianceVerified)
	w.writeBool(d.PropertyConditionVerified)
	w.writeBool(d.ValuationConditionVerified)
	w.writeI64(d.VerificationExpiry)
}

func decodeVerificationDetails(r *fieldReader) VerificationDetails {
	var d VerificationDetails
	d.VerificationDate = r.readI64()
	d.Method = r.readString(MethodLen)
	d.Notes = r.readString(NotesLen)
	d.LegalComplianceVerified = r.readBool()
	d.PropertyConditionVerified = r.readBool()
	d.ValuationConditionVerified = r.readBool()
	d.VerificationExpiry = r.readI64()
	return d
}

// PropertyRecord é a atestação de legitimidade de um imóvel no registro.
// Campos opcionais usam um byte de presença seguido do payload (zerado
// quando ausente).
type PropertyRecord struct {
	IsInitialized bool
	PropertyID    PropertyID
	TokenMint     solana.PublicKey
	Owner         solana.PublicKey
	Address       string
	Status        VerificationStatus
	Details       *VerificationDetails
	Verifier      *solana.PublicKey
	VerifiedAt    *int64
	CreatedAt     int64
	UpdatedAt     int64
}

// PropertyRecordLen é o tamanho fixo da atestação em bytes.
const PropertyRecordLen = 1 + 32 + 32 + 32 + PropertyAddressLen + 1 +
	(1 + VerificationDetailsLen) + (1 + 32) + (1 + 8) + 8 + 8

// Encode serializa a atestação no layout fixo de wire.
func (p *PropertyRecord) Encode() []byte {
	w := newFieldWriter(PropertyRecordLen)
	w.writeBool(p.IsInitialized)
	copy(w.buf[w.off:], p.PropertyID[:])
	w.off += len(p.PropertyID)
	w.writePubkey(p.TokenMint)
	w.writePubkey(p.Owner)
	w.writeString(p.Address, PropertyAddressLen)
	w.writeU8(uint8(p.Status))
	if p.Details != nil {
		w.writeBool(true)
		p.Details.encodeInto(w)
	} else {
		w.writeBool(false)
		w.off += VerificationDetailsLen
	}
	if p.Verifier != nil {
		w.writeBool(true)
		w.writePubkey(*p.Verifier)
	} else {
		w.writeBool(false)
		w.off += 32
	}
	if p.VerifiedAt != nil {
		w.writeBool(true)
		w.writeI64(*p.VerifiedAt)
	} else {
		w.writeBool(false)
		w.off += 8
	}
	w.writeI64(p.CreatedAt)
	w.writeI64(p.UpdatedAt)
	return w.bytes()
}

// DecodePropertyRecord desserializa a atestação do layout fixo.
func DecodePropertyRecord(src []byte) (*PropertyRecord, error) {
	r := newFieldReader(src, PropertyRecordLen)
	var p PropertyRecord
	p.IsInitialized = r.readBool()
	p.PropertyID = readPropertyID(r)
	p.TokenMint = r.readPubkey()
	p.Owner = r.readPubkey()
	p.Address = r.readString(PropertyAddressLen)
	status := r.readU8()
	if r.err == nil && status > uint8(VerificationExpired) {
		return nil, ErrInvalidStatus
	}
	p.Status = VerificationStatus(status)
	if r.readBool() {
		d := decodeVerificationDetails(r)
		p.Details = &d
	} else {
		r.skip(VerificationDetailsLen)
	}
	if r.readBool() {
		pk := r.readPubkey()
		p.Verifier = &pk
	} else {
		r.skip(32)
	}
	if r.readBool() {
		ts := r.readI64()
		p.VerifiedAt = &ts
	} else {
		r.skip(8)
	}
	p.CreatedAt = r.readI64()
	p.UpdatedAt = r.readI64()
	if r.err != nil {
		return nil, r.err
	}
	return &p, nil
}
