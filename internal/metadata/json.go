package metadata

import (
	"encoding/json"
	"fmt"
)

// snapshot is the JSON form of a store. Tags are a list so that key order
// and explicitly empty keys survive a round trip.
type snapshot struct {
	Tags    []snapshotTag `json:"tags"`
	Deleted []string      `json:"deleted,omitempty"`
	Length  *int          `json:"length,omitempty"`
}

type snapshotTag struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// MarshalJSON implements json.Marshaler.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	s := snapshot{
		Tags:    make([]snapshotTag, 0, len(m.keys)),
		Deleted: m.DeletedTags(),
	}
	for _, item := range m.RawItems() {
		s.Tags = append(s.Tags, snapshotTag{Key: item.Key, Values: item.Values})
	}
	if ms, ok := m.Length(); ok {
		s.Length = &ms
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler. It replaces the whole content
// of m.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}

	*m = *New()
	for _, t := range s.Tags {
		m.Set(t.Key, t.Values)
	}
	for _, k := range s.Deleted {
		m.Delete(k)
	}
	if s.Length != nil {
		m.SetLength(*s.Length)
	}
	return nil
}
