package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"token-data-service/internal/domain/entity"
)

//go:embed networks.yaml
var presetsYAML []byte

type presetFile struct {
	Networks map[string]entity.NetworkDescriptor `yaml:"networks"`
}

// Presets decodes the built-in network presets keyed by short name.
func Presets() (map[string]entity.NetworkDescriptor, error) {
	return decodePresets(presetsYAML)
}

func decodePresets(data []byte) (map[string]entity.NetworkDescriptor, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode network presets: %w", err)
	}
	return file.Networks, nil
}

// Descriptor resolves the descriptor selected by the client section: the named preset
// with rpc_candidates, explorer_url and rpc_env_var applied on top when set.
func (c ClientConfig) Descriptor() (entity.NetworkDescriptor, error) {
	presets, err := Presets()
	if err != nil {
		return entity.NetworkDescriptor{}, err
	}
	name := strings.ToLower(strings.TrimSpace(c.Network))
	network, ok := presets[name]
	if !ok {
		known := make([]string, 0, len(presets))
		for k := range presets {
			known = append(known, k)
		}
		sort.Strings(known)
		return entity.NetworkDescriptor{}, fmt.Errorf("unknown network %q (known: %s)", c.Network, strings.Join(known, ", "))
	}

	if len(c.RPCCandidates) > 0 {
		network.RPCCandidates = append([]string(nil), c.RPCCandidates...)
	}
	if c.ExplorerURL != "" {
		network.ExplorerURL = c.ExplorerURL
	}
	if c.RPCEnvVar != "" {
		network.RPCEnvVar = c.RPCEnvVar
	}
	return network, nil
}
