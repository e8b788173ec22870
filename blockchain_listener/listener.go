package blockchain_listener

import (
	"context"
	"time"

	"github.com/ferreirogomes/tijolinho/models"
	"github.com/ferreirogomes/tijolinho/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// BlockchainListener reconcilia o diário interno com a Solana: varre as
// entradas pendentes e consulta o status das assinaturas correspondentes até
// confirmá-las ou marcá-las como falhas.
type BlockchainListener struct {
	RPCClient *rpc.Client
	DB        *storage.DB
	Logger    *zap.Logger
	Interval  time.Duration
}

// NewBlockchainListener cria uma nova instância do listener.
func NewBlockchainListener(rpcEndpoint string, db *storage.DB, logger *zap.Logger, interval time.Duration) *BlockchainListener {
	return &BlockchainListener{
		RPCClient: rpc.New(rpcEndpoint),
		DB:        db,
		Logger:    logger,
		Interval:  interval,
	}
}

// StartListening varre as pendências em intervalos fixos até o contexto ser
// cancelado.
func (l *BlockchainListener) StartListening(ctx context.Context) {
	l.Logger.Info("listener da blockchain iniciado", zap.Duration("interval", l.Interval))

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("listener da blockchain encerrado")
			return
		case <-ticker.C:
			l.reconcilePending(ctx)
		}
	}
}

// reconcilePending consulta o status de cada transação pendente.
func (l *BlockchainListener) reconcilePending(ctx context.Context) {
	pending, err := l.DB.ListPendingTransactions(ctx)
	if err != nil {
		l.Logger.Error("falha ao listar transações pendentes", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	sigs := make([]solana.Signature, 0, len(pending))
	recs := make([]models.Transaction, 0, len(pending))
	for _, rec := range pending {
		sig, err := solana.SignatureFromBase58(rec.Signature)
		if err != nil {
			l.Logger.Warn("assinatura inválida no diário",
				zap.String("transaction_id", rec.ID),
				zap.Error(err),
			)
			continue
		}
		sigs = append(sigs, sig)
		recs = append(recs, rec)
	}
	if len(sigs) == 0 {
		return
	}

	statuses, err := l.RPCClient.GetSignatureStatuses(ctx, true, sigs...)
	if err != nil {
		l.Logger.Error("falha ao consultar status das assinaturas", zap.Error(err))
		return
	}

	for i, status := range statuses.Value {
		if status == nil {
			continue // ainda não observada pela rede
		}
		rec := recs[i]
		switch {
		case status.Err != nil:
			l.markTransaction(ctx, rec, models.TransactionFailed)
		case status.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
			status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed:
			l.markTransaction(ctx, rec, models.TransactionConfirmed)
		}
	}
}

func (l *BlockchainListener) markTransaction(ctx context.Context, rec models.Transaction, status string) {
	if err := l.DB.UpdateTransactionStatus(ctx, rec.ID, status); err != nil {
		l.Logger.Error("falha ao atualizar status da transação",
			zap.String("transaction_id", rec.ID),
			zap.Error(err),
		)
		return
	}
	l.Logger.Info("transação reconciliada",
		zap.String("transaction_id", rec.ID),
		zap.String("signature", rec.Signature),
		zap.String("status", status),
	)
}
