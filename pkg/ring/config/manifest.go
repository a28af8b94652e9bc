package config

import (
	"math/big"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mr-shifu/mpc-ring/pkg/transport"
)

var (
	ErrRingTooSmall = errors.New("config: a ring needs at least two nodes")
	ErrMasterCount  = errors.New("config: a ring needs exactly one master")
	ErrBrokenRing   = errors.New("config: successor links do not form a single ring")
)

// Manifest describes a whole ring. Nodes are listed in ring order: each node's
// successor is the next entry unless Next is set, and the last entry wraps to the first.
type Manifest struct {
	KeyBits int          `yaml:"key_bits"`
	Dial    DialManifest `yaml:"dial"`
	Nodes   []NodeEntry  `yaml:"nodes"`
}

type DialManifest struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
	Timeout    time.Duration `yaml:"timeout"`
}

type NodeEntry struct {
	Name   string `yaml:"name"`
	Role   string `yaml:"role"`
	Listen string `yaml:"listen"`
	Next   string `yaml:"next"`
	Add    BigInt `yaml:"add"`
	Mul    BigInt `yaml:"mul"`
}

// BigInt is an arbitrary-precision integer written in YAML as a decimal
// scalar, quoted or not.
type BigInt struct {
	*big.Int
}

func (b *BigInt) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("config: line %d: expected an integer", value.Line)
	}
	x, ok := new(big.Int).SetString(value.Value, 10)
	if !ok {
		return errors.Errorf("config: line %d: invalid integer %q", value.Line, value.Value)
	}
	b.Int = x
	return nil
}

func (b BigInt) MarshalYAML() (interface{}, error) {
	if b.Int == nil {
		return nil, nil
	}
	return b.Int.String(), nil
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "config: failed to read manifest")
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	m := new(Manifest)
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.WithMessage(err, "config: failed to parse manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the ring shape. Per-node checks happen in NodeConfigs.
func (m *Manifest) Validate() error {
	if len(m.Nodes) < 2 {
		return ErrRingTooSmall
	}
	masters := 0
	for _, n := range m.Nodes {
		role, err := ParseRole(n.Role)
		if err != nil {
			return err
		}
		if role == Master {
			masters++
		}
	}
	if masters != 1 {
		return errors.WithMessagef(ErrMasterCount, "found %d", masters)
	}
	return nil
}

// NodeConfigs returns one validated config per node, in manifest order.
func (m *Manifest) NodeConfigs() ([]*NodeConfig, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	policy := transport.DialPolicy{
		Attempts:   m.Dial.Attempts,
		Backoff:    m.Dial.Backoff,
		MaxBackoff: m.Dial.MaxBackoff,
		Timeout:    m.Dial.Timeout,
	}

	cfgs := make([]*NodeConfig, len(m.Nodes))
	for i, n := range m.Nodes {
		role, _ := ParseRole(n.Role)
		next := n.Next
		if next == "" {
			next = m.Nodes[(i+1)%len(m.Nodes)].Listen
		}
		cfg := NewNodeConfig(role, n.Listen, next, n.Add.Int, n.Mul.Int).
			WithKeyBits(m.KeyBits).
			WithDialPolicy(policy)
		if err := cfg.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "node %d (%s)", i, n.Name)
		}
		cfgs[i] = cfg
	}
	return cfgs, nil
}

// RingOrder returns cfgs in the order the accumulator visits them: the master
// first, then each node's successor in turn. Every node must be visited exactly
// once before the links lead back to the master.
func RingOrder(cfgs []*NodeConfig) ([]*NodeConfig, error) {
	byListen := make(map[string]*NodeConfig, len(cfgs))
	var master *NodeConfig
	for _, cfg := range cfgs {
		if _, ok := byListen[cfg.Listen()]; ok {
			return nil, errors.WithMessagef(ErrBrokenRing, "%s is listed twice", cfg.Listen())
		}
		byListen[cfg.Listen()] = cfg
		if cfg.Role() == Master {
			if master != nil {
				return nil, ErrMasterCount
			}
			master = cfg
		}
	}
	if master == nil {
		return nil, ErrMasterCount
	}

	order := make([]*NodeConfig, 0, len(cfgs))
	visited := make(map[string]bool, len(cfgs))
	for cur := master; !visited[cur.Listen()]; {
		visited[cur.Listen()] = true
		order = append(order, cur)
		next, ok := byListen[cur.Successor()]
		if !ok {
			return nil, errors.WithMessagef(ErrBrokenRing, "%s sends to %s, which is not in the ring", cur.Listen(), cur.Successor())
		}
		cur = next
	}
	if len(order) != len(cfgs) || order[len(order)-1].Successor() != master.Listen() {
		return nil, errors.WithMessagef(ErrBrokenRing, "%d of %d nodes reachable from the master", len(order), len(cfgs))
	}
	return order, nil
}
