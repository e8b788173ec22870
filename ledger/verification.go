package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// Fluxo de atestação de legitimidade:
//
//	Pending → InProgress → {Verified, Rejected}
//	Verified → Expired (somente por decisão da autoridade do registro)
//
// Rejected e Expired são terminais. A expiração é registrada no laudo mas
// nunca aplicada automaticamente — nada varre prazos vencidos; é preciso
// uma chamada explícita da autoridade para virar o status.

// NewRegistry monta o registro de verificadores.
func NewRegistry(authority solana.PublicKey, now int64) *Registry {
	return &Registry{
		IsInitialized: true,
		Authority:     authority,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RegisterVerifier cadastra um verificador, ou reativa um já cadastrado
// para a mesma autoridade. Só a autoridade do registro pode cadastrar.
// VerifierCount conta verificadores ativos: recadastrar um verificador que
// já está ativo atualiza nome e URL sem inflar o contador.
func RegisterVerifier(g *Registry, v *Verifier, signer, verifierAuthority solana.PublicKey, name, url string, now int64) error {
	if !g.Authority.Equals(signer) {
		return ErrUnauthorized
	}
	if err := ValidateVerifierData(name, url); err != nil {
		return err
	}
	count := g.VerifierCount
	if !v.IsInitialized || !v.IsActive {
		var err error
		count, err = checkedAdd(g.VerifierCount, 1)
		if err != nil {
			return err
		}
	}
	if !v.IsInitialized {
		v.IsInitialized = true
		v.Authority = verifierAuthority
		v.CreatedAt = now
	}
	v.Name = name
	v.URL = url
	v.IsActive = true
	v.UpdatedAt = now
	g.VerifierCount = count
	g.UpdatedAt = now
	return nil
}

// DeactivateVerifier marca um verificador como inativo em vez de apagá-lo,
// preservando o histórico. Só a autoridade do registro pode remover.
func DeactivateVerifier(g *Registry, v *Verifier, signer solana.PublicKey, now int64) error {
	if !g.Authority.Equals(signer) {
		return ErrUnauthorized
	}
	if !v.IsInitialized || !v.IsActive {
		return ErrVerifierNotActive
	}
	count, err := checkedSub(g.VerifierCount, 1)
	if err != nil {
		return err
	}
	v.IsActive = false
	v.UpdatedAt = now
	g.VerifierCount = count
	g.UpdatedAt = now
	return nil
}

// OpenAttestation abre a atestação de um imóvel no registro, em Pending.
func OpenAttestation(g *Registry, owner solana.PublicKey, c *RegisterProperty, now int64) (*PropertyRecord, error) {
	if !g.IsInitialized {
		return nil, ErrNotInitialized
	}
	if c.Address == "" || len(c.Address) > PropertyAddressLen {
		return nil, newValidationError("address", "deve ter entre 1 e 128 caracteres")
	}
	count, err := checkedAdd(g.PropertyCount, 1)
	if err != nil {
		return nil, err
	}
	g.PropertyCount = count
	g.UpdatedAt = now
	return &PropertyRecord{
		IsInitialized: true,
		PropertyID:    c.PropertyID,
		TokenMint:     c.TokenMint,
		Owner:         owner,
		Address:       c.Address,
		Status:        VerificationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// SubmitVerification registra o desfecho da verificação. Só o verificador
// nomeado, com a própria autoridade assinando e ainda ativo, pode concluir;
// o laudo, a referência ao verificador e o carimbo de verificação são
// gravados e o contador do verificador é incrementado (verificado).
func SubmitVerification(rec *PropertyRecord, v *Verifier, signer, verifierKey solana.PublicKey, outcome VerificationStatus, details VerificationDetails, now int64) error {
	if !v.IsInitialized || !v.IsActive {
		return ErrVerifierNotActive
	}
	if !v.Authority.Equals(signer) {
		return ErrUnauthorized
	}
	if outcome != VerificationVerified && outcome != VerificationRejected {
		return ErrInvalidTransition
	}
	if rec.Status != VerificationPending && rec.Status != VerificationInProgress {
		return ErrInvalidTransition
	}
	if err := ValidateVerificationDetails(&details); err != nil {
		return err
	}
	verified, err := checkedAdd(v.VerifiedProperties, 1)
	if err != nil {
		return err
	}

	details.VerificationDate = now
	rec.Status = outcome
	rec.Details = &details
	rec.Verifier = &verifierKey
	verifiedAt := now
	rec.VerifiedAt = &verifiedAt
	rec.UpdatedAt = now
	v.VerifiedProperties = verified
	v.UpdatedAt = now
	return nil
}

// OverrideVerificationStatus força um status por decisão da autoridade do
// registro. Estados terminais não podem ser abandonados e Expired só é
// alcançável a partir de Verified.
func OverrideVerificationStatus(g *Registry, rec *PropertyRecord, signer solana.PublicKey, status VerificationStatus, now int64) error {
	if !g.Authority.Equals(signer) {
		return ErrUnauthorized
	}
	if rec.Status.Terminal() {
		return ErrInvalidTransition
	}
	if status == VerificationExpired && rec.Status != VerificationVerified {
		return ErrInvalidTransition
	}
	rec.Status = status
	rec.UpdatedAt = now
	g.UpdatedAt = now
	return nil
}
