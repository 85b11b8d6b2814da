package domain

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"maps"
	"slices"
)

// FolderIDMap translates source folder identifiers to server-assigned ones.
// Within one import run it only grows: Merge adds entries and never removes
// or rewrites an existing one.
type FolderIDMap map[SourceID]string

// UnmarshalJSON decodes the map from a JSON object. Older servers return the
// map as an array of single-entry objects, which is accepted too.
func (m *FolderIDMap) UnmarshalJSON(data []byte) error {
	switch jsontext.Value(data).Kind() {
	case 'n':
		*m = nil
		return nil
	case '{':
		var obj map[SourceID]string
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*m = obj
		return nil
	case '[':
		var entries []map[SourceID]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		out := make(FolderIDMap)
		for _, e := range entries {
			maps.Copy(out, e)
		}
		*m = out
		return nil
	default:
		return fmt.Errorf("folder map must be an object or array, got %s", data)
	}
}

// MarshalJSON always encodes an object, never null.
func (m FolderIDMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[SourceID]string(m), json.Deterministic(true))
}

// Resolve returns the server id for a source id.
func (m FolderIDMap) Resolve(src SourceID) (string, bool) {
	id, ok := m[src]
	return id, ok
}

// Clone returns an independent copy.
func (m FolderIDMap) Clone() FolderIDMap {
	out := make(FolderIDMap, len(m))
	maps.Copy(out, m)
	return out
}

// Merge returns a copy of m extended with the entries of other. Entries
// already present in m keep their value; their keys are returned as
// conflicts when other disagrees.
func (m FolderIDMap) Merge(other FolderIDMap) (FolderIDMap, []SourceID) {
	out := m.Clone()
	var conflicts []SourceID
	for src, dst := range other {
		if cur, ok := out[src]; ok {
			if cur != dst {
				conflicts = append(conflicts, src)
			}
			continue
		}
		out[src] = dst
	}
	slices.Sort(conflicts)
	return out, conflicts
}

// Keys returns the source ids in sorted order.
func (m FolderIDMap) Keys() []SourceID {
	return slices.Sorted(maps.Keys(m))
}
