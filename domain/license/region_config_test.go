package license

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionConfig_PreservesInsertionOrder(t *testing.T) {
	rc := NewRegionConfig()
	require.NoError(t, rc.Set("county", "King"))
	require.NoError(t, rc.Set("premise_type", "retail"))
	require.NoError(t, rc.Set("county", "Pierce"))

	assert.Equal(t, []string{"county", "premise_type"}, rc.Keys(), "re-setting a key keeps its position")

	v, ok := rc.Get("county")
	require.True(t, ok)
	assert.Equal(t, "Pierce", v)
}

func TestRegionConfig_SetDefault(t *testing.T) {
	rc := NewRegionConfig()
	require.NoError(t, rc.Set("verification_status", "verified"))
	require.NoError(t, rc.SetDefault("verification_status", "unverified_lead"))
	require.NoError(t, rc.SetDefault("country_note", "import"))

	v, _ := rc.Get("verification_status")
	assert.Equal(t, "verified", v, "default must not overwrite an existing value")
	v, _ = rc.Get("country_note")
	assert.Equal(t, "import", v)
}

func TestRegionConfig_RejectsNonJSONValues(t *testing.T) {
	rc := NewRegionConfig()
	err := rc.Set("bad", struct{}{})
	assert.Error(t, err)
	assert.Zero(t, rc.Len())
}

func TestRegionConfig_JSONRoundTrip(t *testing.T) {
	rc := NewRegionConfig()
	require.NoError(t, rc.Set("county", "King"))
	require.NoError(t, rc.Set("capacity", 500))
	require.NoError(t, rc.Set("medical", true))

	data, err := json.Marshal(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"county":"King","capacity":500,"medical":true}`, string(data))

	var back RegionConfig
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"county", "capacity", "medical"}, back.Keys())

	capacity, ok := back.Get("capacity")
	require.True(t, ok)
	assert.Equal(t, int64(500), capacity)
}

func TestRegionConfig_UnmarshalRejectsNonObject(t *testing.T) {
	var rc RegionConfig
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &rc))
}

func TestRegionConfig_CloneIsIndependent(t *testing.T) {
	rc := NewRegionConfig()
	require.NoError(t, rc.Set("county", "King"))

	clone := rc.Clone()
	require.NoError(t, clone.Set("county", "Pierce"))
	require.NoError(t, clone.Set("extra", "x"))

	v, _ := rc.Get("county")
	assert.Equal(t, "King", v)
	_, ok := rc.Get("extra")
	assert.False(t, ok)
}
