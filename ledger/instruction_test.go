package ledger_test

import (
	"encoding/binary"
	"testing"

	"github.com/ferreirogomes/tijolinho/ledger"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeCreateProperty verifica que o payload de criação é decodificado
// de verdade, campo a campo, a partir do layout fixo.
func TestDecodeCreateProperty(t *testing.T) {
	cmd := &ledger.CreateProperty{
		PropertyID:      testPropertyID(),
		Name:            "Galpão Logístico Guarulhos",
		Address:         "Rod. Presidente Dutra, km 225",
		TotalValue:      5_000_000,
		TokenSupply:     10_000,
		YieldPercentage: 8,
	}

	decoded, err := ledger.DecodeInstruction(cmd.Encode())
	require.NoError(t, err)
	assert.Equal(t, cmd, decoded)
}

// TestDecodeU64Payloads cobre os opcodes de payload único de 8 bytes.
func TestDecodeU64Payloads(t *testing.T) {
	commands := []ledger.Command{
		&ledger.PurchaseTokens{Amount: 42},
		&ledger.DistributeYield{Amount: 10_000},
		&ledger.UpdatePropertyValue{NewValue: 2_000_000},
		&ledger.ExecuteTrade{Amount: 5},
	}
	for _, cmd := range commands {
		decoded, err := ledger.DecodeInstruction(cmd.Encode())
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

// TestDecodeMarketplaceCommands cobre os comandos do mercado secundário.
func TestDecodeMarketplaceCommands(t *testing.T) {
	commands := []ledger.Command{
		&ledger.InitializeMarketplace{Treasury: solana.NewWallet().PublicKey(), Fee: 250},
		&ledger.CreateListing{Mint: solana.NewWallet().PublicKey(), PricePerToken: 1000, TokenAmount: 50},
		&ledger.CancelListing{},
		&ledger.UpdateMarketplaceFee{Fee: 500},
	}
	for _, cmd := range commands {
		decoded, err := ledger.DecodeInstruction(cmd.Encode())
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

// TestDecodeRegistryCommands cobre os comandos do fluxo de verificação.
func TestDecodeRegistryCommands(t *testing.T) {
	commands := []ledger.Command{
		&ledger.InitializeRegistry{},
		&ledger.AddVerifier{Name: "Cartório Digital", URL: "https://cartorio.example.com"},
		&ledger.RemoveVerifier{Verifier: solana.NewWallet().PublicKey()},
		&ledger.RegisterProperty{
			PropertyID: testPropertyID(),
			TokenMint:  solana.NewWallet().PublicKey(),
			Address:    "Rua Augusta, 1500",
		},
		&ledger.VerifyProperty{
			Outcome: ledger.VerificationVerified,
			Details: ledger.VerificationDetails{
				Method:                  "vistoria presencial",
				Notes:                   "documentação em ordem",
				LegalComplianceVerified: true,
				VerificationExpiry:      1750000000,
			},
		},
		&ledger.UpdateVerificationStatus{Status: ledger.VerificationExpired},
	}
	for _, cmd := range commands {
		decoded, err := ledger.DecodeInstruction(cmd.Encode())
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

// TestDecodeRejectsUnknownOpcode garante que opcode fora do conjunto fechado
// é instrução malformada.
func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	_, err := ledger.DecodeInstruction([]byte{200, 1, 2, 3})
	assert.ErrorIs(t, err, ledger.ErrMalformedInstruction)
}

// TestDecodeRejectsEmptyInput garante rejeição de entrada vazia.
func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, err := ledger.DecodeInstruction(nil)
	assert.ErrorIs(t, err, ledger.ErrMalformedInstruction)
}

// TestDecodeRejectsShortPayload garante rejeição de payload incompleto.
func TestDecodeRejectsShortPayload(t *testing.T) {
	data := []byte{uint8(ledger.OpPurchaseTokens), 1, 2, 3}
	_, err := ledger.DecodeInstruction(data)
	assert.ErrorIs(t, err, ledger.ErrMalformedInstruction)

	data = (&ledger.CreateProperty{Name: "Casa", Address: "Rua A", TotalValue: 1, TokenSupply: 1}).Encode()
	_, err = ledger.DecodeInstruction(data[:len(data)-1])
	assert.ErrorIs(t, err, ledger.ErrMalformedInstruction)
}

// TestDecodeRejectsInvalidVerifyOutcome garante que o desfecho da verificação
// só pode ser Verified ou Rejected já no parsing.
func TestDecodeRejectsInvalidVerifyOutcome(t *testing.T) {
	cmd := &ledger.VerifyProperty{Outcome: ledger.VerificationVerified}
	data := cmd.Encode()
	data[1] = uint8(ledger.VerificationPending)

	_, err := ledger.DecodeInstruction(data)
	assert.ErrorIs(t, err, ledger.ErrMalformedInstruction)
}

// TestPurchaseWireFormat fixa o formato de wire do opcode 1: um byte de
// opcode seguido de u64 little-endian.
func TestPurchaseWireFormat(t *testing.T) {
	data := (&ledger.PurchaseTokens{Amount: 0x0102030405060708}).Encode()
	require.Len(t, data, 9)
	assert.Equal(t, uint8(1), data[0])
	assert.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(data[1:]))
}
