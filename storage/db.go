package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ferreirogomes/tijolinho/models"

	"github.com/gagliardetto/solana-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
)

// Tipos de registro persistidos na tabela records.
const (
	KindProperty    = "property"
	KindHolding     = "holding"
	KindMarketplace = "marketplace"
	KindListing     = "listing"
	KindRegistry    = "registry"
	KindVerifier    = "verifier"
	KindAttestation = "attestation"
)

// ErrInsufficientBalance indica débito acima do saldo da conta de origem.
var ErrInsufficientBalance = errors.New("storage: saldo insuficiente na conta de origem")

// DB representa a conexão com o banco de dados PostgreSQL.
type DB struct {
	*sqlx.DB
}

// NewDB conecta-se ao PostgreSQL e executa as migrações.
func NewDB(dataSourceName string) (*DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("falha ao pingar o banco de dados: %w", err)
	}

	if err := runMigrations(db.DB); err != nil {
		return nil, fmt.Errorf("falha ao executar migrações: %w", err)
	}

	return &DB{db}, nil
}

// runMigrations executa as migrações usando sql-migrate.
func runMigrations(db *sql.DB) error {
	migrations := &migrate.FileMigrationSource{
		Dir: "./storage/migrations",
	}

	if _, err := migrate.Exec(db, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	return nil
}

// Tx é a unidade atômica de uma invocação do motor: ou todas as mutações de
// registros e movimentações de valor da invocação são aplicadas, ou nenhuma.
// O FOR UPDATE nas leituras garante a serialização por registro.
type Tx struct {
	tx *sqlx.Tx
}

// Begin abre a transação que hospeda uma invocação do motor.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir transação: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit confirma a invocação inteira.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback descarta a invocação inteira.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// GetRecord carrega os bytes codificados de um registro pela chave derivada.
func (t *Tx) GetRecord(key solana.PublicKey) ([]byte, bool, error) {
	var data []byte
	err := t.tx.Get(&data, `SELECT data FROM records WHERE address = $1 FOR UPDATE`, key.Bytes())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("falha ao carregar registro: %w", err)
	}
	return data, true, nil
}

// PutRecord grava (ou sobrescreve) os bytes codificados de um registro.
// O escopo agrupa registros relacionados, ex.: as posições de um imóvel.
func (t *Tx) PutRecord(key solana.PublicKey, kind string, scope, data []byte) error {
	_, err := t.tx.Exec(`
		INSERT INTO records (address, kind, scope, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (address) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		key.Bytes(), kind, scope, data)
	if err != nil {
		return fmt.Errorf("falha ao gravar registro: %w", err)
	}
	return nil
}

// ListRecords carrega todos os registros de um tipo dentro de um escopo.
func (t *Tx) ListRecords(kind string, scope []byte) ([][]byte, error) {
	var rows [][]byte
	err := t.tx.Select(&rows, `
		SELECT data FROM records WHERE kind = $1 AND scope = $2
		ORDER BY address FOR UPDATE`, kind, scope)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar registros: %w", err)
	}
	return rows, nil
}

// Balance retorna o saldo da conta; conta inexistente tem saldo zero.
func (t *Tx) Balance(addr solana.PublicKey) (uint64, error) {
	var balance uint64
	err := t.tx.Get(&balance, `SELECT lamports FROM accounts WHERE address = $1 FOR UPDATE`, addr.String())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("falha ao consultar saldo: %w", err)
	}
	return balance, nil
}

// Transfer move valor entre contas com débito verificado: se a origem não
// cobre o valor, nada é movido.
func (t *Tx) Transfer(from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	res, err := t.tx.Exec(`
		UPDATE accounts SET lamports = lamports - $1
		WHERE address = $2 AND lamports >= $1`, amount, from.String())
	if err != nil {
		return fmt.Errorf("falha ao debitar conta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("falha ao debitar conta: %w", err)
	}
	if n == 0 {
		return ErrInsufficientBalance
	}
	_, err = t.tx.Exec(`
		INSERT INTO accounts (address, lamports) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET lamports = accounts.lamports + EXCLUDED.lamports`,
		to.String(), amount)
	if err != nil {
		return fmt.Errorf("falha ao creditar conta: %w", err)
	}
	return nil
}

// SaveTransaction grava a entrada de diário da invocação.
func (t *Tx) SaveTransaction(rec models.Transaction) error {
	_, err := t.tx.Exec(`
		INSERT INTO ledger_transactions (id, kind, signer, signature, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Kind, rec.Signer, rec.Signature, rec.Status, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao gravar transação no diário: %w", err)
	}
	return nil
}

// GetTransaction busca uma entrada do diário pelo ID.
func (d *DB) GetTransaction(ctx context.Context, id string) (models.Transaction, bool, error) {
	var rec models.Transaction
	err := d.GetContext(ctx, &rec, `
		SELECT id, kind, signer, signature, status, created_at
		FROM ledger_transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, false, nil
	}
	if err != nil {
		return models.Transaction{}, false, fmt.Errorf("falha ao buscar transação: %w", err)
	}
	return rec, true, nil
}

// ListPendingTransactions lista entradas aguardando confirmação on-chain,
// para o listener reconciliar.
func (d *DB) ListPendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	var recs []models.Transaction
	err := d.SelectContext(ctx, &recs, `
		SELECT id, kind, signer, signature, status, created_at
		FROM ledger_transactions
		WHERE status = $1 AND signature <> ''
		ORDER BY created_at`, models.TransactionPending)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar transações pendentes: %w", err)
	}
	return recs, nil
}

// UpdateTransactionStatus atualiza o status de uma entrada do diário.
func (d *DB) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	_, err := d.ExecContext(ctx, `UPDATE ledger_transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("falha ao atualizar status da transação: %w", err)
	}
	return nil
}

// GetRecordSnapshot carrega um registro fora de transação, para leituras de
// API que não mutam nada.
func (d *DB) GetRecordSnapshot(ctx context.Context, key solana.PublicKey) ([]byte, bool, error) {
	var data []byte
	err := d.GetContext(ctx, &data, `SELECT data FROM records WHERE address = $1`, key.Bytes())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("falha ao carregar registro: %w", err)
	}
	return data, true, nil
}
