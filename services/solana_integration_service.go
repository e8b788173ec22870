package services

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// SolanaIntegrationService espelha na rede Solana as movimentações de tokens
// decididas pelo motor. O backend atua como custodiante: o FeePayer é o
// delegate das contas de token dos participantes, então assina e paga as
// transações de transferência.
type SolanaIntegrationService struct {
	RPCClient *rpc.Client
	FeePayer  solana.PrivateKey
	Logger    *zap.Logger
}

// NewSolanaIntegrationService cria o serviço de integração com a Solana.
func NewSolanaIntegrationService(rpcEndpoint, feePayerKeyBase58 string, logger *zap.Logger) (*SolanaIntegrationService, error) {
	feePayer, err := solana.PrivateKeyFromBase58(feePayerKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar chave privada do FeePayer: %w", err)
	}

	return &SolanaIntegrationService{
		RPCClient: rpc.New(rpcEndpoint),
		FeePayer:  feePayer,
		Logger:    logger,
	}, nil
}

// TransferUnits transfere tokens SPL entre as contas associadas (ATAs) dos
// participantes, assinando como delegate custodial.
func (s *SolanaIntegrationService) TransferUnits(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) (solana.Signature, error) {
	fromATA, _, err := solana.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao derivar ATA de origem: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao derivar ATA de destino: %w", err)
	}

	recent, err := s.RPCClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao obter blockhash: %w", err)
	}

	transferInstruction := token.NewTransferInstruction(
		amount,
		fromATA,
		toATA,
		s.FeePayer.PublicKey(), // delegate custodial da conta de origem
		nil,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(s.FeePayer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao criar transação de transferência: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.FeePayer.PublicKey()) {
			return &s.FeePayer
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao assinar transação pelo FeePayer: %w", err)
	}

	txID, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao enviar transação de transferência: %w", err)
	}

	s.Logger.Info("transferência de tokens enviada",
		zap.String("signature", txID.String()),
		zap.String("mint", mint.String()),
		zap.Uint64("amount", amount),
	)
	return txID, nil
}
