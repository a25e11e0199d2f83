package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryState_MissingFieldReadsEmpty(t *testing.T) {
	s := NewMemoryState(nil)

	val, err := s.Get("pos_data")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.Equal(t, "", Text(val))
	assert.Empty(t, List(val))
}

func TestMemoryState_SetOverwritesScalar(t *testing.T) {
	s := NewMemoryState(map[string]any{"TOPIC": "Cold War"})

	require.NoError(t, s.Set("TOPIC", "Roman Empire"))

	val, err := s.Get("TOPIC")
	require.NoError(t, err)
	assert.Equal(t, "Roman Empire", val)
}

func TestMemoryState_SequentialAppendsPreserveOrder(t *testing.T) {
	s := NewMemoryState(nil)

	for _, item := range []string{"v1", "v2", "v3"} {
		require.NoError(t, s.Append("pos_data", item))
	}

	val, err := s.Get("pos_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3"}, val)
}

func TestMemoryState_ConcurrentAppendsLoseNothing(t *testing.T) {
	s := NewMemoryState(nil)

	const writers, perWriter = 16, 50
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				assert.NoError(t, s.Append("evidence", fmt.Sprintf("w%d-%d", w, i)))
			}
		}()
	}
	wg.Wait()

	val, err := s.Get("evidence")
	require.NoError(t, err)
	assert.Len(t, val, writers*perWriter)
}

func TestMemoryState_AppendToScalarKeepsIt(t *testing.T) {
	s := NewMemoryState(map[string]any{"notes": "first"})

	require.NoError(t, s.Append("notes", "second"))

	val, _ := s.Get("notes")
	assert.Equal(t, []string{"first", "second"}, val)
}

func TestMemoryState_AppendToNonStringFails(t *testing.T) {
	s := NewMemoryState(map[string]any{"count": 3})

	err := s.Append("count", "x")
	assert.Error(t, err)
}

func TestMemoryState_GetReturnsCopy(t *testing.T) {
	s := NewMemoryState(nil)
	require.NoError(t, s.Append("a", "one"))

	val, _ := s.Get("a")
	val.([]string)[0] = "mutated"

	again, _ := s.Get("a")
	assert.Equal(t, []string{"one"}, again)
}

func TestMemoryState_AllIsSorted(t *testing.T) {
	s := NewMemoryState(map[string]any{"b": "2", "a": "1"})
	require.NoError(t, s.Delete("missing"))

	var keys []string
	for k := range s.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"scalar", "Cold War", "Cold War"},
		{"list", []string{"a", "b"}, "- a\n- b"},
		{"any list", []any{"a", 2}, "- a\n- 2"},
		{"number", 4, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}
