// Package reputation scores a contract's deployer wallet via a Basescan-
// style block-explorer REST API: a young or low-activity deployer wallet
// is a common signal for disposable scam deployments.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rawblock/evm-risk-engine/pkg/riskmodel"
)

const explorerAPI = "https://api.basescan.org/api"

const (
	youngWalletDays = 7
	lowTxCount      = 5
	cacheSize       = 256
)

type creatorInfo struct {
	deployer string
	txHash   string
}

// Detector wraps the three independently cached explorer lookups
// (creator, first-tx timestamp, tx count) behind one graceful,
// never-failing entry point.
type Detector struct {
	http         *http.Client
	baseURL      string
	creatorCache *lru.Cache[cacheKey, *creatorInfo]
	firstTxCache *lru.Cache[cacheKey, *int64]
	txCountCache *lru.Cache[cacheKey, *int]
	now          func() time.Time
}

type cacheKey struct {
	address string
	apiKey  string
}

// New builds a Detector with 256-entry LRU caches for each of the three
// cached explorer calls.
func New() *Detector {
	creatorCache, _ := lru.New[cacheKey, *creatorInfo](cacheSize)
	firstTxCache, _ := lru.New[cacheKey, *int64](cacheSize)
	txCountCache, _ := lru.New[cacheKey, *int](cacheSize)
	return &Detector{
		http:         &http.Client{Timeout: 10 * time.Second},
		baseURL:      explorerAPI,
		creatorCache: creatorCache,
		firstTxCache: firstTxCache,
		txCountCache: txCountCache,
		now:          time.Now,
	}
}

// ClearCaches drops every cached lookup. Exposed for test isolation.
func (d *Detector) ClearCaches() {
	d.creatorCache.Purge()
	d.firstTxCache.Purge()
	d.txCountCache.Purge()
}

// Detect checks deployer wallet age and transaction count for the given
// contract address and returns the resulting findings. Never returns an
// error: with an empty apiKey it returns no findings; a failed creator
// lookup is treated like "creator not found" and yields that single
// finding; a failed age or tx-count lookup just omits the matching
// finding — deployer reputation is an enrichment signal, not a hard
// dependency of the analysis.
func (d *Detector) Detect(ctx context.Context, address, apiKey string) []riskmodel.Finding {
	if apiKey == "" {
		return nil
	}

	creator := d.getContractCreator(ctx, address, apiKey)
	if creator == nil {
		return []riskmodel.Finding{{
			Detector: "deployer_reputation",
			Severity: riskmodel.SeverityInfo,
			Title:    "Contract creator not found on Basescan",
			Description: "Could not determine the deployer of this contract. " +
				"It may be very new or deployed via an unusual method.",
			Points: 3,
		}}
	}

	var findings []riskmodel.Finding

	if firstTS := d.getFirstTxTimestamp(ctx, creator.deployer, apiKey); firstTS != nil {
		ageDays := float64(d.now().Unix()-*firstTS) / 86400
		if ageDays < youngWalletDays {
			findings = append(findings, riskmodel.Finding{
				Detector: "deployer_reputation",
				Severity: riskmodel.SeverityInfo,
				Title:    "Deployer wallet is very new",
				Description: fmt.Sprintf(
					"Deployer %s... is only %d days old. Fresh wallets deploying "+
						"contracts can be a scam signal.", shortAddr(creator.deployer), int(ageDays)),
				Points: 5,
			})
		}
	}

	if txCount := d.getTxCount(ctx, creator.deployer, apiKey); txCount != nil && *txCount < lowTxCount {
		findings = append(findings, riskmodel.Finding{
			Detector: "deployer_reputation",
			Severity: riskmodel.SeverityInfo,
			Title:    "Deployer wallet has very few transactions",
			Description: fmt.Sprintf(
				"Deployer %s... has only %d transactions. Low-activity wallets "+
					"deploying contracts can indicate disposable scam wallets.",
				shortAddr(creator.deployer), *txCount),
			Points: 5,
		})
	}

	return findings
}

func shortAddr(addr string) string {
	if len(addr) > 10 {
		return addr[:10]
	}
	return addr
}

func (d *Detector) getContractCreator(ctx context.Context, address, apiKey string) *creatorInfo {
	key := cacheKey{address: address, apiKey: apiKey}
	if v, ok := d.creatorCache.Get(key); ok {
		return v
	}

	params := url.Values{
		"module":            {"contract"},
		"action":            {"getcontractcreation"},
		"contractaddresses": {address},
		"apikey":            {apiKey},
	}
	var data struct {
		Status string `json:"status"`
		Result []struct {
			ContractCreator string `json:"contractCreator"`
			TxHash          string `json:"txHash"`
		} `json:"result"`
	}
	if !d.get(ctx, params, &data) || data.Status != "1" || len(data.Result) == 0 {
		d.creatorCache.Add(key, nil)
		return nil
	}

	info := &creatorInfo{deployer: data.Result[0].ContractCreator, txHash: data.Result[0].TxHash}
	d.creatorCache.Add(key, info)
	return info
}

func (d *Detector) getFirstTxTimestamp(ctx context.Context, deployer, apiKey string) *int64 {
	key := cacheKey{address: deployer, apiKey: apiKey}
	if v, ok := d.firstTxCache.Get(key); ok {
		return v
	}

	params := url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {deployer},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {"1"},
		"offset":     {"1"},
		"sort":       {"asc"},
		"apikey":     {apiKey},
	}
	var data struct {
		Status string `json:"status"`
		Result []struct {
			TimeStamp string `json:"timeStamp"`
		} `json:"result"`
	}
	if !d.get(ctx, params, &data) || data.Status != "1" || len(data.Result) == 0 {
		d.firstTxCache.Add(key, nil)
		return nil
	}

	ts, err := strconv.ParseInt(data.Result[0].TimeStamp, 10, 64)
	if err != nil {
		d.firstTxCache.Add(key, nil)
		return nil
	}
	d.firstTxCache.Add(key, &ts)
	return &ts
}

func (d *Detector) getTxCount(ctx context.Context, deployer, apiKey string) *int {
	key := cacheKey{address: deployer, apiKey: apiKey}
	if v, ok := d.txCountCache.Get(key); ok {
		return v
	}

	params := url.Values{
		"module":  {"proxy"},
		"action":  {"eth_getTransactionCount"},
		"address": {deployer},
		"tag":     {"latest"},
		"apikey":  {apiKey},
	}
	var data struct {
		Result string `json:"result"`
	}
	if !d.get(ctx, params, &data) || data.Result == "" {
		d.txCountCache.Add(key, nil)
		return nil
	}

	hexStr := data.Result
	if len(hexStr) > 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}
	n, err := strconv.ParseInt(hexStr, 16, 64)
	if err != nil {
		d.txCountCache.Add(key, nil)
		return nil
	}
	count := int(n)
	d.txCountCache.Add(key, &count)
	return &count
}

func (d *Detector) get(ctx context.Context, params url.Values, out interface{}) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(resp.Body).Decode(out) == nil
}
