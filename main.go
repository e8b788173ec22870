package main

import (
	"context"
	"log"
	"net/http"

	"github.com/ferreirogomes/tijolinho/blockchain_listener"
	"github.com/ferreirogomes/tijolinho/config"
	"github.com/ferreirogomes/tijolinho/handlers"
	"github.com/ferreirogomes/tijolinho/services"
	"github.com/ferreirogomes/tijolinho/storage"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("falha ao criar logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("falha ao carregar configuração", zap.Error(err))
	}

	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("falha ao conectar ao banco de dados", zap.Error(err))
	}
	defer db.Close()

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		logger.Fatal("PROGRAM_ID inválido", zap.Error(err))
	}

	bridge, err := services.NewSolanaIntegrationService(cfg.SolanaRPCURL, cfg.FeePayerKey, logger)
	if err != nil {
		logger.Fatal("falha ao criar integração com a Solana", zap.Error(err))
	}

	ledgerService := services.NewLedgerService(
		services.SQLStore{DB: db},
		bridge,
		services.NewDeriver(programID),
		logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.NewPropertyHandler(ledgerService).RegisterRoutes(r)
	handlers.NewMarketplaceHandler(ledgerService).RegisterRoutes(r)
	handlers.NewRegistryHandler(ledgerService).RegisterRoutes(r)
	handlers.NewTransactionHandler(ledgerService).RegisterRoutes(r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := blockchain_listener.NewBlockchainListener(cfg.SolanaRPCURL, db, logger, cfg.ListenerInterval)
	go listener.StartListening(ctx)

	logger.Info("servidor HTTP iniciado", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		logger.Fatal("servidor HTTP encerrou com erro", zap.Error(err))
	}
}
