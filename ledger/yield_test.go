package ledger_test

import (
	"testing"

	"github.com/ferreirogomes/tijolinho/ledger"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yieldProperty(supply uint64) *ledger.Property {
	return &ledger.Property{
		IsInitialized: true,
		Owner:         solana.NewWallet().PublicKey(),
		PropertyID:    testPropertyID(),
		Name:          "Prédio Comercial Paulista",
		Address:       "Av. Paulista, 1000",
		TotalValue:    1_000_000,
		TokenSupply:   supply,
		TokensSold:    supply,
	}
}

func holdingOf(p *ledger.Property, amount uint64) *ledger.PropertyToken {
	return &ledger.PropertyToken{
		IsInitialized: true,
		PropertyID:    p.PropertyID,
		Owner:         solana.NewWallet().PublicKey(),
		Amount:        amount,
	}
}

// TestDistributeYieldExact fixa o exemplo sem sobra: titulares {30, 70} de
// 100, rendimento 1000 → pagamentos {300, 700}.
func TestDistributeYieldExact(t *testing.T) {
	p := yieldProperty(100)
	holdings := []*ledger.PropertyToken{holdingOf(p, 30), holdingOf(p, 70)}

	payouts, err := ledger.DistributeYieldToHolders(p, holdings, 1000, 1717300000)
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, uint64(300), payouts[0].Amount)
	assert.Equal(t, uint64(700), payouts[1].Amount)
	assert.Equal(t, holdings[0].Owner, payouts[0].Holder)

	assert.Equal(t, uint64(1717300000), p.LastYieldDistribution)
	assert.Equal(t, uint64(1717300000), holdings[0].LastYieldClaim)
	assert.Equal(t, uint64(1717300000), holdings[1].LastYieldClaim)
}

// TestDistributeYieldDust fixa o exemplo com sobra: titulares {1, 2} de 3,
// rendimento 10 → pagamentos {3, 6} e 1 unidade de sobra sem dono.
func TestDistributeYieldDust(t *testing.T) {
	p := yieldProperty(3)
	holdings := []*ledger.PropertyToken{holdingOf(p, 1), holdingOf(p, 2)}

	payouts, err := ledger.DistributeYieldToHolders(p, holdings, 10, 1717300000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), payouts[0].Amount)
	assert.Equal(t, uint64(6), payouts[1].Amount)

	var total uint64
	for _, payout := range payouts {
		total += payout.Amount
	}
	// A sobra de arredondamento fica sem dono, por decisão de projeto.
	assert.Equal(t, uint64(9), total)
	assert.LessOrEqual(t, total, uint64(10))
}

// TestDistributeYieldNeverExceedsTotal garante sum(pagamentos) ≤ total para
// uma distribuição parcialmente vendida.
func TestDistributeYieldNeverExceedsTotal(t *testing.T) {
	p := yieldProperty(1000)
	holdings := []*ledger.PropertyToken{
		holdingOf(p, 333), holdingOf(p, 333), holdingOf(p, 1),
	}

	payouts, err := ledger.DistributeYieldToHolders(p, holdings, 12345, 1717300000)
	require.NoError(t, err)

	var total uint64
	for _, payout := range payouts {
		total += payout.Amount
	}
	assert.LessOrEqual(t, total, uint64(12345))
}

// TestDistributeYieldLargeValues garante o intermediário de 128 bits: valores
// que estourariam a multiplicação em 64 bits ainda distribuem certo.
func TestDistributeYieldLargeValues(t *testing.T) {
	p := yieldProperty(1 << 40)
	holdings := []*ledger.PropertyToken{holdingOf(p, 1<<39), holdingOf(p, 1<<39)}

	payouts, err := ledger.DistributeYieldToHolders(p, holdings, 1<<40, 1717300000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<39), payouts[0].Amount)
	assert.Equal(t, uint64(1<<39), payouts[1].Amount)
}

// TestDistributeYieldRejectsForeignHolding garante que posição de outro
// imóvel aborta a distribuição inteira.
func TestDistributeYieldRejectsForeignHolding(t *testing.T) {
	p := yieldProperty(100)
	foreign := holdingOf(p, 10)
	foreign.PropertyID = ledger.PropertyID{0xFF}

	_, err := ledger.DistributeYieldToHolders(p, []*ledger.PropertyToken{foreign}, 1000, 1717300000)
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "holding", vErr.Field)
	// Nada mudou.
	assert.Equal(t, uint64(0), p.LastYieldDistribution)
	assert.Equal(t, uint64(0), foreign.LastYieldClaim)
}

// TestDistributeYieldRejectsZeroAmount garante rejeição de distribuição vazia.
func TestDistributeYieldRejectsZeroAmount(t *testing.T) {
	p := yieldProperty(100)
	_, err := ledger.DistributeYieldToHolders(p, nil, 0, 1717300000)
	var vErr *ledger.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
