package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeMarkersRemoved, RemovedPayload{IDs: []string{"a", "b"}})
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"markers_removed","payload":{"ids":["a","b"]}}`, string(data))
}

func TestNewEnvelope_MarshalError(t *testing.T) {
	_, err := NewEnvelope(TypeSnapshot, make(chan int))
	assert.Error(t, err)
}

func TestMarkerPayload_OmitsEmptyTimestamp(t *testing.T) {
	data, err := json.Marshal(MarkerPayload{ID: "a", Latitude: 1, Longitude: 2, X: 3, Y: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","latitude":1,"longitude":2,"x":3,"y":4}`, string(data))
}
