package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// YieldPayout é o pagamento de rendimento de um titular.
type YieldPayout struct {
	Holder solana.PublicKey
	Amount uint64
}

// DistributeYieldToHolders calcula a distribuição pro-rata de rendimento:
//
//	pagamento_i = floor(tokens_i * total / token_supply)
//
// A soma dos pagamentos nunca excede o total; a sobra de arredondamento
// fica deliberadamente sem dono — não é varrida para a tesouraria nem
// rola para a próxima distribuição. Atualiza o carimbo de último resgate
// de cada posição e o de última distribuição do imóvel; mover o valor em
// si é papel do colaborador de transferência, um pagamento por titular.
func DistributeYieldToHolders(p *Property, holdings []*PropertyToken, totalYield, now uint64) ([]YieldPayout, error) {
	if !p.IsInitialized {
		return nil, ErrNotInitialized
	}
	if err := ValidateAmount(totalYield); err != nil {
		return nil, err
	}

	payouts := make([]YieldPayout, 0, len(holdings))
	var distributed uint64
	for _, h := range holdings {
		if !h.IsInitialized || h.PropertyID != p.PropertyID {
			return nil, newValidationError("holding", "posição não pertence ao imóvel")
		}
		amount, err := mulDiv(h.Amount, totalYield, p.TokenSupply)
		if err != nil {
			return nil, err
		}
		distributed, err = checkedAdd(distributed, amount)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, YieldPayout{Holder: h.Owner, Amount: amount})
	}
	if distributed > totalYield {
		return nil, ErrArithmeticOverflow
	}

	for _, h := range holdings {
		h.LastYieldClaim = now
	}
	p.LastYieldDistribution = now
	return payouts, nil
}
