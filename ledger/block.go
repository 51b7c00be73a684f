package ledger

import "encoding/json"

// Block records one accepted table transition.
type Block struct {
	Index     int      `json:"index"`
	Height    uint64   `json:"height"`
	Timestamp int64    `json:"timestamp"`
	PrevHash  string   `json:"prev_hash"`
	Hash      string   `json:"hash"`
	GameID    uint64   `json:"game_id"`
	Phase     string   `json:"phase"`
	Entry     Entry    `json:"entry"`
	Metadata  Metadata `json:"metadata"`
}

// Entry is the input that caused the transition. From, Seq and Signature are
// empty for inputs the table generates itself.
type Entry struct {
	Kind      string          `json:"kind"`
	From      string          `json:"from,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Signature []byte          `json:"signature,omitempty"`
}

type Metadata struct {
	Pot      uint64            `json:"pot"`
	Outbound int               `json:"outbound"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Snapshot is the serialized table state after a block.
type Snapshot struct {
	BlockIndex int             `json:"block_index"`
	GameID     uint64          `json:"game_id"`
	Height     uint64          `json:"height"`
	Phase      string          `json:"phase"`
	State      json.RawMessage `json:"state"`
}
