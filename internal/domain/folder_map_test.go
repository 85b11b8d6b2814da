package domain

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderIDMap_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FolderIDMap
	}{
		{"object", `{"a":"fld-1","b":"fld-2"}`, FolderIDMap{"a": "fld-1", "b": "fld-2"}},
		{"legacy array", `[{"a":"fld-1"},{"b":"fld-2"}]`, FolderIDMap{"a": "fld-1", "b": "fld-2"}},
		{"empty array", `[]`, FolderIDMap{}},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m FolderIDMap
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, tt.want, m)
		})
	}

	var m FolderIDMap
	assert.Error(t, json.Unmarshal([]byte(`"a"`), &m))
}

func TestFolderIDMap_MarshalNilAsObject(t *testing.T) {
	body := struct {
		FolderMap FolderIDMap `json:"folderMap"`
	}{}

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"folderMap":{}}`, string(out))
}

func TestFolderIDMap_MergeIsAppendOnly(t *testing.T) {
	base := FolderIDMap{"a": "fld-1"}

	merged, conflicts := base.Merge(FolderIDMap{"a": "fld-9", "b": "fld-2"})

	assert.Equal(t, FolderIDMap{"a": "fld-1", "b": "fld-2"}, merged)
	assert.Equal(t, []SourceID{"a"}, conflicts)
	assert.Equal(t, FolderIDMap{"a": "fld-1"}, base, "receiver must not be mutated")

	shrunk, conflicts := merged.Merge(FolderIDMap{})
	assert.Len(t, shrunk, 2, "merging an empty map never shrinks")
	assert.Empty(t, conflicts)
}

func TestRunState_Fold(t *testing.T) {
	var s RunState

	s, _ = s.Fold("col-1", FolderIDMap{"a": "fld-1"})
	assert.Equal(t, "col-1", s.CollectionID)

	s, _ = s.Fold("col-other", FolderIDMap{"b": "fld-2"})
	assert.Equal(t, "col-1", s.CollectionID, "collection id is fixed by the first batch")
	assert.Equal(t, []SourceID{"a", "b"}, s.FolderMap.Keys())
}

func TestImportState_Terminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateImportingFolders.Terminal())
	assert.False(t, StateIdle.Terminal())
}
