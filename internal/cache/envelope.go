package cache

import (
	"fmt"

	"github.com/goccy/go-json"
)

// IDListVersion is the envelope version written by this build. Entries with
// any other version are treated as misses.
const IDListVersion = 1

// IDList is the serialized form of a cached ordered id list.
type IDList struct {
	Version int      `json:"v"`
	IDs     []string `json:"ids"`
}

// EncodeIDList encodes ids in the current envelope version.
func EncodeIDList(ids []string) ([]byte, error) {
	return json.Marshal(IDList{Version: IDListVersion, IDs: ids})
}

// DecodeIDList decodes an envelope and checks its version.
func DecodeIDList(data []byte) ([]string, error) {
	var env IDList
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	if env.Version != IDListVersion {
		return nil, fmt.Errorf("decode id list: unsupported version %d", env.Version)
	}
	return env.IDs, nil
}
