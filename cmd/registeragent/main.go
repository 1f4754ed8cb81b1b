// Command registeragent registers (or re-points) this service's ERC-8004
// Identity Registry entry on Base mainnet, mirroring the wallet-signed
// on-chain registration flow used to list the service as a discoverable,
// payable agent.
//
// Usage:
//
//	registeragent                                  register a new agent
//	registeragent -agent-id <id> -update-uri <uri>  point an existing agent at a new URI
package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/rawblock/evm-risk-engine/internal/httpapi"
)

const (
	registryAddress = "0x8004A169FB4a3325136EB29fA0ceB6D2e539a432"
	baseRPC         = "https://mainnet.base.org"
	chainID         = 8453
)

const registryABIJSON = `[
	{"inputs":[{"name":"agentURI","type":"string"}],"name":"register","outputs":[{"name":"agentId","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"agentId","type":"uint256"},{"name":"agentURI","type":"string"}],"name":"setAgentURI","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

type metadata struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Services       []struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
	} `json:"services"`
	X402Support    bool     `json:"x402Support"`
	Active         bool     `json:"active"`
	SupportedTrust []string `json:"supportedTrust"`
}

func buildMetadata(baseURL, network, payTo, price string) metadata {
	card := httpapi.BuildAgentCard(baseURL, network, payTo, price)
	m := metadata{
		Type:           "https://eips.ethereum.org/EIPS/eip-8004#registration-v1",
		Name:           card.Name,
		Description:    card.Description,
		X402Support:    true,
		Active:         true,
		SupportedTrust: []string{"reputation"},
	}
	m.Services = []struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
	}{{Name: "web", Endpoint: baseURL}}
	return m
}

func dataURI(m metadata) (string, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding agent metadata: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(body)
	return "data:application/json;base64," + encoded, nil
}

func loadWallet(keyPath string) (*ecdsa.PrivateKey, common.Address, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("reading wallet key file: %w", err)
	}
	hexKey := strings.TrimSpace(strings.TrimPrefix(string(raw), "0x"))
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parsing private key: %w", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

func sendTx(ctx context.Context, client *ethclient.Client, key *ecdsa.PrivateKey, from common.Address, data []byte) (common.Hash, error) {
	balance, err := client.BalanceAt(ctx, from, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching wallet balance: %w", err)
	}
	if balance.Sign() == 0 {
		return common.Hash{}, fmt.Errorf("wallet %s has no ETH for gas on Base", from.Hex())
	}

	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching nonce: %w", err)
	}
	gasTip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching gas tip: %w", err)
	}
	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetching chain head: %w", err)
	}
	gasFeeCap := new(big.Int).Add(gasTip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	to := common.HexToAddress(registryAddress)
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}
	gasLimit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
	}
	gasLimit = gasLimit * 12 / 10

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: gasTip,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Data:      data,
	})

	signer := types.NewLondonSigner(big.NewInt(chainID))
	signedTx, err := types.SignTx(tx, signer, key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, client, signedTx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("waiting for confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signedTx.Hash(), fmt.Errorf("transaction reverted: %s", signedTx.Hash().Hex())
	}

	return signedTx.Hash(), nil
}

func main() {
	updateURI := flag.String("update-uri", "", "update the agentURI for -agent-id instead of registering a new agent")
	agentID := flag.Int64("agent-id", 0, "existing agent id (required with -update-uri)")
	keyPath := flag.String("wallet", os.Getenv("HOME")+"/.automaton/wallet.key", "path to a hex-encoded private key file")
	baseURL := flag.String("base-url", "https://risk-engine.example.com", "public base URL of this deployment")
	network := flag.String("network", "eip155:8453", "x402 network identifier advertised in the agent card")
	payTo := flag.String("pay-to", "", "payout address advertised in the agent card")
	price := flag.String("price", "$0.10", "price advertised in the agent card")
	flag.Parse()

	key, from, err := loadWallet(*keyPath)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	fmt.Printf("Wallet: %s\n", from.Hex())

	client, err := ethclient.Dial(baseRPC)
	if err != nil {
		log.Fatalf("ERROR: cannot connect to Base RPC: %v", err)
	}
	defer client.Close()

	registryABI, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		log.Fatalf("ERROR: parsing registry ABI: %v", err)
	}

	ctx := context.Background()

	if *updateURI != "" {
		if *agentID == 0 {
			log.Fatalf("ERROR: -agent-id is required with -update-uri")
		}
		data, err := registryABI.Pack("setAgentURI", big.NewInt(*agentID), *updateURI)
		if err != nil {
			log.Fatalf("ERROR: encoding setAgentURI call: %v", err)
		}
		hash, err := sendTx(ctx, client, key, from, data)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		fmt.Printf("Agent #%d URI updated. tx: https://basescan.org/tx/%s\n", *agentID, hash.Hex())
		return
	}

	m := buildMetadata(*baseURL, *network, *payTo, *price)
	uri, err := dataURI(m)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	fmt.Printf("Agent URI length: %d chars\n", len(uri))

	data, err := registryABI.Pack("register", uri)
	if err != nil {
		log.Fatalf("ERROR: encoding register call: %v", err)
	}
	hash, err := sendTx(ctx, client, key, from, data)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	fmt.Printf("Registered. tx: https://basescan.org/tx/%s\n", hash.Hex())
	fmt.Println("Check 8004scan.io for your new agentId, then set it via -agent-id for future -update-uri calls.")
}
