package ledger

import (
	"errors"
	"fmt"
)

// Erros de decodificação (camada de codec de registros).
var (
	// ErrTooShort indica que o buffer é menor que o tamanho fixo do registro.
	ErrTooShort = errors.New("ledger: buffer menor que o tamanho fixo do registro")
	// ErrInvalidFlag indica um byte de flag booleana fora de {0, 1}.
	ErrInvalidFlag = errors.New("ledger: flag booleana inválida")
	// ErrInvalidPadding indica byte não-zero após o terminador de uma string de capacidade fixa.
	ErrInvalidPadding = errors.New("ledger: preenchimento inválido em campo de texto")
	// ErrInvalidStatus indica um byte de status fora do conjunto conhecido.
	ErrInvalidStatus = errors.New("ledger: status desconhecido")
)

// Erros de instrução e de transição de estado.
var (
	// ErrMalformedInstruction indica opcode desconhecido ou payload incompleto.
	ErrMalformedInstruction = errors.New("ledger: instrução malformada")
	// ErrUnauthorized indica que o signatário não tem autoridade para a transição.
	ErrUnauthorized = errors.New("ledger: operação não autorizada")
	// ErrArithmeticOverflow indica estouro em soma ou multiplicação verificada.
	ErrArithmeticOverflow = errors.New("ledger: overflow aritmético")
	// ErrArithmeticUnderflow indica subtração verificada abaixo de zero.
	ErrArithmeticUnderflow = errors.New("ledger: underflow aritmético")
	// ErrDivisionByZero indica divisão verificada com denominador zero.
	ErrDivisionByZero = errors.New("ledger: divisão por zero")
	// ErrInsufficientFunds indica saldo insuficiente para mover valor.
	ErrInsufficientFunds = errors.New("ledger: saldo insuficiente")
	// ErrInsufficientTokens indica quantidade solicitada acima da disponível.
	ErrInsufficientTokens = errors.New("ledger: quantidade de tokens insuficiente")
	// ErrListingNotActive indica listagem fora do status Active.
	ErrListingNotActive = errors.New("ledger: listagem não está ativa")
	// ErrPropertyNotAvailable indica imóvel esgotado ou não inicializado.
	ErrPropertyNotAvailable = errors.New("ledger: imóvel não está disponível")
	// ErrVerifierNotActive indica verificador desativado tentando verificar.
	ErrVerifierNotActive = errors.New("ledger: verificador não está ativo")
	// ErrFeeTooHigh indica taxa acima do teto de 1000 bps.
	ErrFeeTooHigh = errors.New("ledger: taxa acima do limite")
	// ErrInvalidTransition indica transição proibida no fluxo de verificação.
	ErrInvalidTransition = errors.New("ledger: transição de verificação inválida")
	// ErrAlreadyInitialized indica tentativa de recriar um registro existente.
	ErrAlreadyInitialized = errors.New("ledger: registro já inicializado")
	// ErrNotInitialized indica registro esperado mas ainda não criado.
	ErrNotInitialized = errors.New("ledger: registro não inicializado")
)

// ValidationError descreve uma regra de negócio violada antes de qualquer
// mutação, identificando o campo ofensor.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validação falhou em %q: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
