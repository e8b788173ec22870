package services

import (
	"encoding/binary"
	"fmt"

	"github.com/ferreirogomes/tijolinho/ledger"

	"github.com/gagliardetto/solana-go"
)

// Deriver calcula os endereços determinísticos dos registros do ledger, com o
// mesmo esquema de sementes dos PDAs do programa on-chain. O endereço é só um
// identificador de armazenamento: não há chave privada correspondente.
type Deriver struct {
	ProgramID solana.PublicKey
}

// NewDeriver cria um derivador de endereços para o programa informado.
func NewDeriver(programID solana.PublicKey) *Deriver {
	return &Deriver{ProgramID: programID}
}

func (d *Deriver) derive(seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("falha ao derivar endereço: %w", err)
	}
	return addr, nil
}

// PropertyKey deriva o endereço do registro de um imóvel.
func (d *Deriver) PropertyKey(id ledger.PropertyID) (solana.PublicKey, error) {
	return d.derive([]byte("property"), id[:])
}

// HoldingKey deriva o endereço da posição de um titular em um imóvel.
func (d *Deriver) HoldingKey(id ledger.PropertyID, owner solana.PublicKey) (solana.PublicKey, error) {
	return d.derive([]byte("holding"), id[:], owner.Bytes())
}

// MintKey deriva o endereço do mint SPL dos tokens fracionários do imóvel.
func (d *Deriver) MintKey(id ledger.PropertyID) (solana.PublicKey, error) {
	return d.derive([]byte("mint"), id[:])
}

// MarketplaceKey deriva o endereço do marketplace, que é único.
func (d *Deriver) MarketplaceKey() (solana.PublicKey, error) {
	return d.derive([]byte("marketplace"))
}

// ListingKey deriva o endereço de um anúncio. O timestamp de criação entra na
// semente para que o mesmo vendedor possa anunciar o mesmo mint mais de uma vez.
func (d *Deriver) ListingKey(seller, mint solana.PublicKey, createdAt int64) (solana.PublicKey, error) {
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(createdAt))
	return d.derive([]byte("listing"), seller.Bytes(), mint.Bytes(), ts[:])
}

// RegistryKey deriva o endereço do registro de verificação, que é único.
func (d *Deriver) RegistryKey() (solana.PublicKey, error) {
	return d.derive([]byte("registry"))
}

// VerifierKey deriva o endereço do cadastro de um verificador.
func (d *Deriver) VerifierKey(authority solana.PublicKey) (solana.PublicKey, error) {
	return d.derive([]byte("verifier"), authority.Bytes())
}

// AttestationKey deriva o endereço da ficha de verificação de um imóvel.
func (d *Deriver) AttestationKey(id ledger.PropertyID) (solana.PublicKey, error) {
	return d.derive([]byte("attestation"), id[:])
}
