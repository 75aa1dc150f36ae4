package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Engine struct {
	// ChainID enters the order digest's domain separator.
	ChainID int64
	// ExchangeAddress is this engine instance's identity; orders scoped to
	// any other address are rejected.
	ExchangeAddress string
	// FeeRecipient receives the protocol fee on every settlement.
	FeeRecipient string
}

type Node struct {
	ListenAddr string
	DataDir    string
	LogFile    string
}

type Config struct {
	Engine Engine
	Node   Node
}

func Default() Config {
	return Config{
		Engine: Engine{
			ChainID:         1337, // local dev chain
			ExchangeAddress: "0x0000000000000000000000000000000000000e0e",
			FeeRecipient:    "0x0000000000000000000000000000000000000fee",
		},
		Node: Node{
			ListenAddr: ":8080",
			DataDir:    "data/swapd",
			LogFile:    "data/swapd.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			cfg.Engine.ChainID = id
		}
	}
	if addr := os.Getenv("EXCHANGE_ADDRESS"); addr != "" {
		cfg.Engine.ExchangeAddress = addr
	}
	if fee := os.Getenv("FEE_RECIPIENT"); fee != "" {
		cfg.Engine.FeeRecipient = fee
	}
	if listen := os.Getenv("LISTEN"); listen != "" {
		cfg.Node.ListenAddr = listen
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Node.DataDir = dir
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.Node.LogFile = logFile
	}

	return cfg
}
