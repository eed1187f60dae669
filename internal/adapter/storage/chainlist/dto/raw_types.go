package chainlist_dto

// ChainRaw represents the subset of a Chainlist entry the service consumes.
type ChainRaw struct {
	Name      string        `json:"name"`
	Chain     string        `json:"chain"`
	RPC       []RPCRaw      `json:"rpc"`
	ChainID   int64         `json:"chainId"`
	Explorers []ExplorerRaw `json:"explorers,omitempty"`
}

// RPCRaw is one RPC entry. Chainlist serves either a bare URL string or an object with metadata.
type RPCRaw struct {
	URL      string `json:"url"`
	Tracking string `json:"tracking,omitempty"`
}

// ExplorerRaw defines details about a block explorer for a chain from raw data.
type ExplorerRaw struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Standard string `json:"standard"`
}
