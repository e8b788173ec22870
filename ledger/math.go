package ledger

import "math/bits"

// Aritmética u64 verificada: qualquer estouro aborta a transição inteira,
// nunca enrola nem satura.

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticUnderflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// mulDiv calcula floor(a*b/d) com intermediário de 128 bits, para que a
// multiplicação não estoure antes da divisão. Falha se o quociente não
// couber em 64 bits ou se d for zero.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrArithmeticOverflow
	}
	quo, _ := bits.Div64(hi, lo, d)
	return quo, nil
}
