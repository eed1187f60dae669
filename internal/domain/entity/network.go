package entity

// NetworkDescriptor is the static description of the ledger network the client talks to.
// It is provided at construction and never mutated afterwards.
type NetworkDescriptor struct {
	ChainID       int64    `json:"chainId" yaml:"chainId"`
	Name          string   `json:"name" yaml:"name"`
	RPCCandidates []string `json:"-" yaml:"rpcCandidates"`
	ExplorerURL   string   `json:"explorerUrl" yaml:"explorerUrl"`
	// RPCEnvVar names the environment variable whose value takes the priority-1 slot.
	RPCEnvVar string `json:"-" yaml:"rpcEnvVar"`
}

// SkippedCandidate records why a configured candidate was never dialed.
type SkippedCandidate struct {
	Position int
	Reason   string
}

// WithEnvOverride returns a copy of the descriptor whose first candidate is the value of
// RPCEnvVar, when that variable is set. The receiver is left untouched.
func (n NetworkDescriptor) WithEnvOverride(lookup func(string) (string, bool)) NetworkDescriptor {
	out := n
	out.RPCCandidates = append([]string(nil), n.RPCCandidates...)
	if n.RPCEnvVar == "" || lookup == nil {
		return out
	}
	value, ok := lookup(n.RPCEnvVar)
	if !ok || value == "" {
		return out
	}
	out.RPCCandidates = append([]string{value}, out.RPCCandidates...)
	return out
}

// WithExtraCandidates returns a copy with extra candidates appended after the configured ones,
// skipping exact duplicates.
func (n NetworkDescriptor) WithExtraCandidates(extra []string) NetworkDescriptor {
	out := n
	seen := make(map[string]struct{}, len(n.RPCCandidates)+len(extra))
	out.RPCCandidates = make([]string, 0, len(n.RPCCandidates)+len(extra))
	for _, c := range append(append([]string(nil), n.RPCCandidates...), extra...) {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out.RPCCandidates = append(out.RPCCandidates, c)
	}
	return out
}

// UsableCandidates returns the candidates that may be dialed, in priority order.
// Placeholders and malformed URLs are returned separately and do not count as attempted.
func (n NetworkDescriptor) UsableCandidates() ([]RPCURL, []SkippedCandidate) {
	usable := make([]RPCURL, 0, len(n.RPCCandidates))
	var skipped []SkippedCandidate
	for i, raw := range n.RPCCandidates {
		if IsPlaceholder(raw) {
			skipped = append(skipped, SkippedCandidate{Position: i, Reason: "placeholder"})
			continue
		}
		u, err := NewRPCURL(raw)
		if err != nil {
			skipped = append(skipped, SkippedCandidate{Position: i, Reason: "invalid url"})
			continue
		}
		usable = append(usable, u)
	}
	return usable, skipped
}
