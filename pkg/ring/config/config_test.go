package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeConfigValidate(t *testing.T) {
	cfg := NewNodeConfig(Master, "127.0.0.1:7000", "127.0.0.1:7001", big.NewInt(3), big.NewInt(4))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Master, cfg.Role())
	assert.Equal(t, int64(3), cfg.Add().Int64())
	assert.Equal(t, int64(4), cfg.Mul().Int64())

	// terms are copied in and out
	add := big.NewInt(5)
	cfg = NewNodeConfig(Relay, "127.0.0.1:7001", "127.0.0.1:7000", add, big.NewInt(2))
	add.SetInt64(99)
	cfg.Add().SetInt64(100)
	assert.Equal(t, int64(5), cfg.Add().Int64())

	assert.ErrorIs(t, NewNodeConfig(Relay, "", "127.0.0.1:1", big.NewInt(1), big.NewInt(1)).Validate(), ErrNoListenAddr)
	assert.ErrorIs(t, NewNodeConfig(Relay, "127.0.0.1:1", "", big.NewInt(1), big.NewInt(1)).Validate(), ErrNoSuccessorAddr)
	assert.ErrorIs(t, NewNodeConfig(Relay, "127.0.0.1:1", "127.0.0.1:2", nil, big.NewInt(1)).Validate(), ErrNoTerms)
	assert.Error(t, NewNodeConfig(Relay, "nohostport", "127.0.0.1:2", big.NewInt(1), big.NewInt(1)).Validate())
	assert.Error(t, NewNodeConfig(Master, "127.0.0.1:1", "127.0.0.1:2", big.NewInt(1), big.NewInt(1)).WithKeyBits(-1).Validate())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Master")
	require.NoError(t, err)
	assert.Equal(t, Master, r)
	assert.Equal(t, "master", r.String())

	r, err = ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, Relay, r)

	_, err = ParseRole("leader")
	assert.Error(t, err)
}

const testManifest = `
key_bits: 512
dial:
  attempts: 5
  backoff: 100ms
nodes:
  - name: master
    role: master
    listen: 127.0.0.1:7000
    add: 2
    mul: 3
  - name: relay1
    listen: 127.0.0.1:7001
    add: "4"
    mul: 1
  - name: relay2
    listen: 127.0.0.1:7002
    add: 0
    mul: 123456789012345678901234567890
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	cfgs, err := m.NodeConfigs()
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	assert.Equal(t, Master, cfgs[0].Role())
	assert.Equal(t, "127.0.0.1:7001", cfgs[0].Successor())
	assert.Equal(t, "127.0.0.1:7002", cfgs[1].Successor())
	assert.Equal(t, "127.0.0.1:7000", cfgs[2].Successor())
	assert.Equal(t, 512, cfgs[0].KeyBits())
	assert.Equal(t, 5, cfgs[1].DialPolicy().Attempts)
	assert.Equal(t, 100*time.Millisecond, cfgs[1].DialPolicy().Backoff)
	assert.Equal(t, int64(4), cfgs[1].Add().Int64())
	assert.Equal(t, "123456789012345678901234567890", cfgs[2].Mul().String())
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 3)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte(`nodes: [{role: master, listen: "127.0.0.1:1", add: 1, mul: 1}]`))
	assert.ErrorIs(t, err, ErrRingTooSmall)

	_, err = ParseManifest([]byte(`
nodes:
  - {role: relay, listen: "127.0.0.1:1", add: 1, mul: 1}
  - {role: relay, listen: "127.0.0.1:2", add: 1, mul: 1}
`))
	assert.ErrorIs(t, err, ErrMasterCount)

	_, err = ParseManifest([]byte(`
nodes:
  - {role: master, listen: "127.0.0.1:1", add: x, mul: 1}
  - {role: relay, listen: "127.0.0.1:2", add: 1, mul: 1}
`))
	assert.Error(t, err)

	m, err := ParseManifest([]byte(`
nodes:
  - {role: master, listen: "127.0.0.1:1", add: 1, mul: 1}
  - {role: relay, listen: "127.0.0.1:2", mul: 1}
`))
	require.NoError(t, err)
	_, err = m.NodeConfigs()
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestRingOrderFollowsSuccessors(t *testing.T) {
	m, err := ParseManifest([]byte(`
nodes:
  - {name: bob, role: relay, listen: "127.0.0.1:7001", next: "127.0.0.1:7000", add: 4, mul: 1}
  - {name: alice, role: master, listen: "127.0.0.1:7000", next: "127.0.0.1:7002", add: 2, mul: 3}
  - {name: carol, role: relay, listen: "127.0.0.1:7002", next: "127.0.0.1:7001", add: 0, mul: 5}
`))
	require.NoError(t, err)
	cfgs, err := m.NodeConfigs()
	require.NoError(t, err)

	order, err := RingOrder(cfgs)
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "127.0.0.1:7000", order[0].Listen())
	assert.Equal(t, "127.0.0.1:7002", order[1].Listen())
	assert.Equal(t, "127.0.0.1:7001", order[2].Listen())
}

func TestRingOrderRejectsBrokenLinks(t *testing.T) {
	master := NewNodeConfig(Master, "127.0.0.1:7000", "127.0.0.1:7001", big.NewInt(1), big.NewInt(1))
	relay1 := NewNodeConfig(Relay, "127.0.0.1:7001", "127.0.0.1:7000", big.NewInt(1), big.NewInt(1))
	relay2 := NewNodeConfig(Relay, "127.0.0.1:7002", "127.0.0.1:7000", big.NewInt(1), big.NewInt(1))
	outside := NewNodeConfig(Relay, "127.0.0.1:7001", "127.0.0.1:9999", big.NewInt(1), big.NewInt(1))

	// relay2 is never reached
	_, err := RingOrder([]*NodeConfig{master, relay1, relay2})
	assert.ErrorIs(t, err, ErrBrokenRing)

	// a successor outside the ring
	_, err = RingOrder([]*NodeConfig{master, outside})
	assert.ErrorIs(t, err, ErrBrokenRing)

	// duplicate listen address
	_, err = RingOrder([]*NodeConfig{master, relay1, relay1})
	assert.ErrorIs(t, err, ErrBrokenRing)

	_, err = RingOrder([]*NodeConfig{relay1, relay2})
	assert.ErrorIs(t, err, ErrMasterCount)

	order, err := RingOrder([]*NodeConfig{relay1, master})
	require.NoError(t, err)
	assert.Equal(t, []*NodeConfig{master, relay1}, order)
}
