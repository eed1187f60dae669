package entity

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ClientState is the lifecycle state of the token client.
type ClientState string

// Client states.
const (
	StateUninitialized ClientState = "uninitialized"
	StateConnecting    ClientState = "connecting"
	StateBound         ClientState = "bound"
	StateDegraded      ClientState = "degraded"
	StateFailed        ClientState = "failed"
)

// ConnectionBinding is the live association between a verified endpoint and a verified contract.
type ConnectionBinding struct {
	Endpoint        string    `json:"endpoint"`
	BlockAtBind     uint64    `json:"blockAtBind"`
	ContractAddress Address   `json:"contractAddress"`
	BoundAt         time.Time `json:"boundAt"`
}

// TokenMetadata is recomputed on every call and never persisted.
type TokenMetadata struct {
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Decimals          uint8   `json:"decimals"`
	TotalSupply       string  `json:"totalSupply"`
	CirculatingSupply string  `json:"circulatingSupply"`
	ContractAddress   Address `json:"contractAddress"`
	Network           string  `json:"network"`
	Verified          bool    `json:"verified"`
}

// Balance is the token balance of one address.
type Balance struct {
	Address          Address  `json:"address"`
	RawBalance       *big.Int `json:"rawBalance"`
	FormattedBalance string   `json:"formattedBalance"`
	Decimals         uint8    `json:"decimals"`
}

// Transfer is one decoded Transfer event.
type Transfer struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	RawValue       *big.Int `json:"rawValue"`
	FormattedValue string   `json:"formattedValue"`
	BlockNumber    uint64   `json:"blockNumber"`
	LogIndex       uint     `json:"logIndex"`
	TxHash         string   `json:"txHash"`
}

// ErrorRecord is the last failure observed by the client.
type ErrorRecord struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Endpoint string `json:"endpoint,omitempty"`
}

// ServiceStatus is a snapshot of the client's internal state. Building it never touches the network.
type ServiceStatus struct {
	State           ClientState  `json:"state"`
	Initialized     bool         `json:"initialized"`
	HasConnection   bool         `json:"hasProvider"`
	HasBinding      bool         `json:"hasContract"`
	Endpoint        string       `json:"endpoint,omitempty"`
	BlockAtBind     uint64       `json:"blockAtBind,omitempty"`
	LastError       *ErrorRecord `json:"lastError"`
	ContractAddress string       `json:"contractAddress"`
	Network         string       `json:"network"`
	Timestamp       time.Time    `json:"timestamp"`
}

// ValidationReport accumulates every failing check of a validation run.
type ValidationReport struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// FormatUnits renders raw as a base-10 decimal string shifted by decimals places.
// No floating point is involved, so large supplies keep full precision.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
