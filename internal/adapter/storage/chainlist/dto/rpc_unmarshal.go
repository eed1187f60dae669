package chainlist_dto

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON accepts both the string and the object form of an RPC entry.
func (r *RPCRaw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.URL)
	}
	type plain RPCRaw
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RPCRaw(p)
	return nil
}
