// Command sign-order generates a keypair, builds a sample sell order, signs
// its digest, and prints a JSON payload ready for POST /api/v1/match.
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/uhyunpark/swapmatch/params"
	"github.com/uhyunpark/swapmatch/pkg/crypto"
	"github.com/uhyunpark/swapmatch/pkg/exchange"
)

func main() {
	cfg := params.LoadFromEnv("")

	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	salt, err := crypto.RandomSalt()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	order := &exchange.Order{
		Exchange:     common.HexToAddress(cfg.Engine.ExchangeAddress),
		Maker:        signer.Address(),
		Taker:        exchange.AnyTaker,
		Side:         exchange.SideSell,
		SaleKind:     exchange.SaleKindFixedPrice,
		Target:       common.HexToAddress("0x00000000000000000000000000000000000a55e7"),
		PaymentToken: exchange.NativeToken,
		Calldata:     []byte{0xde, 0xad, 0xbe, 0xef},
		BasePrice:    big.NewInt(100),
		EndPrice:     big.NewInt(0),
		ListingTime:  uint64(time.Now().Unix()),
		Salt:         salt,
	}

	hasher := exchange.NewOrderHasher(cfg.Engine.ChainID)
	digest, err := hasher.Hash(order)
	if err != nil {
		fmt.Printf("Error hashing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Order Digest: %s\n", digest.Hex())

	signature, err := signer.Sign(digest.Bytes())
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signature: 0x%x\n\n", signature)

	submission := map[string]any{
		"order":     exchange.FromOrder(order),
		"signature": fmt.Sprintf("0x%x", signature),
	}
	out, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
