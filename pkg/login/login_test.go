package login

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordFormat(t *testing.T) {
	h := HashPassword("secret")
	require.True(t, len(h) > len("$1$"))
	require.Equal(t, "$1$", h[:3])
}

func TestParseVector3(t *testing.T) {
	v, err := parseVector3("[r0.171732,r0.9851437,r0]")
	require.NoError(t, err)
	require.InDelta(t, 0.171732, v.X, 1e-5)
	require.InDelta(t, 0.9851437, v.Y, 1e-5)
	require.InDelta(t, 0, v.Z, 1e-5)

	_, err = parseVector3("not a vector")
	require.Error(t, err)
}

func TestExtractResponse(t *testing.T) {
	reply := map[string]interface{}{
		"agent_id":        "11111111-2222-3333-4444-555555555555",
		"session_id":      "66666666-7777-8888-9999-aaaaaaaaaaaa",
		"circuit_code":    int32(12345),
		"sim_ip":          "127.0.0.1",
		"sim_port":        int32(9000),
		"seed_capability": "https://sim.example/cap/seed",
		"look_at":         "[r1,r0,r0]",
	}
	resp, err := extract(reply)
	require.NoError(t, err)
	require.Equal(t, uint32(12345), resp.CircuitCode)
	require.Equal(t, "127.0.0.1", resp.SimIP)
	require.Equal(t, uint16(9000), resp.SimPort)
	require.Equal(t, "https://sim.example/cap/seed", resp.SeedCapability)
	require.InDelta(t, 1.0, resp.LookAt.X, 1e-6)
}

func TestExtractLoginFailure(t *testing.T) {
	reply := map[string]interface{}{"login": "false"}
	_, err := extract(reply)
	require.ErrorIs(t, err, ErrLoginFailed)
}
