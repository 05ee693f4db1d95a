package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{"known flag on", New(map[string]bool{FlagToolCache: true}), FlagToolCache, true},
		{"known flag off", New(map[string]bool{FlagToolCache: false}), FlagToolCache, false},
		{"known flag unset", New(map[string]bool{FlagToolCache: true}), FlagSerialFetch, false},
		{"unknown flag set on", New(map[string]bool{"warp-speed": true}), "warp-speed", false},
		{"nil map", New(nil), FlagSummaryCache, false},
		{"nil registry", nil, FlagSummaryCache, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_IsolatedFromInput(t *testing.T) {
	in := map[string]bool{FlagSerialFetch: true}
	r := New(in)
	in[FlagSerialFetch] = false
	require.True(t, r.Enabled(FlagSerialFetch))

	all := r.All()
	all[FlagSerialFetch] = false
	require.True(t, r.Enabled(FlagSerialFetch))
}

func TestRegistry_Unknown(t *testing.T) {
	r := New(map[string]bool{"zeta": true, FlagToolCache: true, "alpha": false})
	require.Equal(t, []string{"alpha", "zeta"}, r.Unknown())

	var nilRegistry *Registry
	require.Nil(t, nilRegistry.Unknown())
	require.Empty(t, nilRegistry.All())
}

func TestNamesAndDescribe(t *testing.T) {
	require.Equal(t, []string{FlagSerialFetch, FlagSummaryCache, FlagToolCache}, Names())
	for _, name := range Names() {
		d, ok := Describe(name)
		require.True(t, ok)
		require.NotEmpty(t, d)
	}
	_, ok := Describe("nope")
	require.False(t, ok)
}
