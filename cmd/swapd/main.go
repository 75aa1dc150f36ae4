package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapmatch/params"
	"github.com/uhyunpark/swapmatch/pkg/api"
	"github.com/uhyunpark/swapmatch/pkg/exchange"
	"github.com/uhyunpark/swapmatch/pkg/storage"
	"github.com/uhyunpark/swapmatch/pkg/util"
)

// devnetRegistry hands every maker a delegate that just logs the call.
// Real deployments plug in the on-chain proxy registry here.
type devnetRegistry struct {
	delegate exchange.Delegate
}

func (r devnetRegistry) DelegateFor(owner common.Address) (exchange.Delegate, error) {
	return r.delegate, nil
}

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := storage.NewPebbleStore(cfg.Node.DataDir)
	if err != nil {
		sugar.Fatalw("store_open_failed", "dir", cfg.Node.DataDir, "err", err)
	}
	defer store.Close()

	funds := exchange.NewMemoryFunds()

	engine := exchange.NewEngine(
		exchange.Config{
			Self:         common.HexToAddress(cfg.Engine.ExchangeAddress),
			ChainID:      cfg.Engine.ChainID,
			FeeRecipient: common.HexToAddress(cfg.Engine.FeeRecipient),
		},
		exchange.Deps{
			Ledger: store,
			Funds:  funds,
			Registry: devnetRegistry{
				delegate: exchange.DelegateFunc(func(target common.Address, calldata []byte) error {
					sugar.Infow("delegate_invoked", "target", target.Hex(), "calldata_len", len(calldata))
					return nil
				}),
			},
			Inspector: exchange.InspectorFunc(func(addr common.Address) bool {
				// devnet: any non-zero address counts as deployed
				return addr != (common.Address{})
			}),
			Statics: exchange.StaticFunc(func(target common.Address, data []byte) error {
				sugar.Infow("static_check", "target", target.Hex(), "data_len", len(data))
				return nil
			}),
			Store: store,
			Clock: util.RealClock{},
			Log:   sugar,
		},
	)

	sugar.Infow("engine_initialized",
		"exchange", cfg.Engine.ExchangeAddress,
		"chain_id", cfg.Engine.ChainID,
		"fee_recipient", cfg.Engine.FeeRecipient,
	)

	server := api.NewServer(engine, store, sugar)
	go func() {
		if err := server.Start(cfg.Node.ListenAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("shutting_down")
}
