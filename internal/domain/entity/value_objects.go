package entity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RPCURL represents a typed URL for an RPC endpoint.
type RPCURL string

// placeholderMarkers flag template values that were never filled in, e.g.
// "https://eth-mainnet.g.alchemy.com/v2/YOUR_API_KEY" or "${MAINNET_RPC}".
var placeholderMarkers = []string{"${", "{{", "<", ">", "your_", "your-", "replace", "api_key", "placeholder"}

// IsPlaceholder reports whether raw is blank or still an unconfigured template value.
func IsPlaceholder(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// NewRPCURL creates a new RPCURL instance.
func NewRPCURL(rawURL string) (RPCURL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("rpc url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url format '%s': %w", rawURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "http", "https", "ws", "wss":
	default:
		return "", fmt.Errorf("rpc url '%s' has unsupported scheme: '%s'", rawURL, scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("rpc url '%s' has no host", rawURL)
	}

	return RPCURL(rawURL), nil
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}

// Protocol returns the transport protocol implied by the URL scheme.
func (r RPCURL) Protocol() Protocol {
	scheme, _, _ := strings.Cut(string(r), "://")
	switch strings.ToLower(scheme) {
	case "http":
		return ProtocolHTTP
	case "https":
		return ProtocolHTTPS
	case "ws":
		return ProtocolWS
	case "wss":
		return ProtocolWSS
	default:
		return ProtocolUnknown
	}
}

// Redacted returns the URL with path and query stripped, so API keys embedded
// in provider URLs never reach logs or responses.
func (r RPCURL) Redacted() string {
	u, err := url.Parse(string(r))
	if err != nil || u.Host == "" {
		return "<invalid>"
	}
	if u.Path == "" || u.Path == "/" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/..."
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Address is a validated, 0x-prefixed, 20-byte hex account or contract address.
type Address string

// NewAddress validates raw against the strict address rule: 0x prefix, 40 hex
// characters, and a valid EIP-55 checksum when mixed case is used.
func NewAddress(raw string) (Address, error) {
	if !addressPattern.MatchString(raw) {
		return "", fmt.Errorf("address %q must be 0x-prefixed with 40 hex characters", raw)
	}
	body := raw[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if common.HexToAddress(raw).Hex() != raw {
			return "", fmt.Errorf("address %q has an invalid checksum", raw)
		}
	}
	return Address(raw), nil
}

// String returns the address as given.
func (a Address) String() string {
	return string(a)
}

// Common converts the address to the go-ethereum representation.
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a.Common() == (common.Address{})
}
