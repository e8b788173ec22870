package models

import "time"

// Status possíveis de uma transação no diário interno.
const (
	TransactionPending   = "pending"
	TransactionConfirmed = "confirmed"
	TransactionFailed    = "failed"
)

// Transaction é a entrada de diário de uma invocação do motor: qual comando
// foi aplicado, por quem, e a assinatura Solana correspondente quando houve
// movimentação de tokens on-chain.
type Transaction struct {
	ID        string    `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Signer    string    `db:"signer" json:"signer"`
	Signature string    `db:"signature" json:"signature,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
