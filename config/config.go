package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config reúne a configuração do serviço, carregada do ambiente.
type Config struct {
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL      string        `env:"DATABASE_URL,required"`
	SolanaRPCURL     string        `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`
	FeePayerKey      string        `env:"FEE_PAYER_KEY,required"`
	ProgramID        string        `env:"PROGRAM_ID,required"`
	ListenerInterval time.Duration `env:"LISTENER_INTERVAL" envDefault:"15s"`
}

// Load lê a configuração das variáveis de ambiente.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("falha ao carregar configuração: %w", err)
	}
	return cfg, nil
}
