package config

import (
	"math/big"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/pkg/transport"
)

// Role is the part a node plays in the ring.
type Role int

const (
	Relay Role = iota
	Master
)

func (r Role) String() string {
	switch r {
	case Master:
		return "master"
	case Relay:
		return "relay"
	default:
		return "unknown"
	}
}

// ParseRole accepts "master" or "relay".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master":
		return Master, nil
	case "relay", "":
		return Relay, nil
	default:
		return Relay, errors.Errorf("config: unknown role %q", s)
	}
}

var (
	ErrNoListenAddr    = errors.New("config: listen address is required")
	ErrNoSuccessorAddr = errors.New("config: successor address is required")
	ErrNoTerms         = errors.New("config: additive and multiplicative terms are required")
)

// NodeConfig is the immutable configuration of one node for one run.
type NodeConfig struct {
	role      Role
	listen    string
	successor string
	add       *big.Int
	mul       *big.Int

	keyBits    int
	dialPolicy transport.DialPolicy
}

// NewNodeConfig returns a config for a node. The numeric terms are copied.
func NewNodeConfig(
	role Role,
	listen string,
	successor string,
	add *big.Int,
	mul *big.Int,
) *NodeConfig {
	return &NodeConfig{
		role:      role,
		listen:    listen,
		successor: successor,
		add:       copyInt(add),
		mul:       copyInt(mul),
	}
}

// WithKeyBits sets the modulus size the master generates. Zero keeps the scheme default.
func (c *NodeConfig) WithKeyBits(bits int) *NodeConfig {
	c.keyBits = bits
	return c
}

// WithDialPolicy sets how the node connects to its successor.
func (c *NodeConfig) WithDialPolicy(policy transport.DialPolicy) *NodeConfig {
	c.dialPolicy = policy
	return c
}

func (c *NodeConfig) Role() Role {
	return c.role
}

func (c *NodeConfig) Listen() string {
	return c.listen
}

func (c *NodeConfig) Successor() string {
	return c.successor
}

// Add returns a copy of the local additive term.
func (c *NodeConfig) Add() *big.Int {
	return copyInt(c.add)
}

// Mul returns a copy of the local multiplicative term.
func (c *NodeConfig) Mul() *big.Int {
	return copyInt(c.mul)
}

func copyInt(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func (c *NodeConfig) KeyBits() int {
	return c.keyBits
}

func (c *NodeConfig) DialPolicy() transport.DialPolicy {
	return c.dialPolicy
}

// Validate checks that the config is complete and the addresses are host:port pairs.
func (c *NodeConfig) Validate() error {
	if c.listen == "" {
		return ErrNoListenAddr
	}
	if c.successor == "" {
		return ErrNoSuccessorAddr
	}
	if c.add == nil || c.mul == nil {
		return ErrNoTerms
	}
	if _, _, err := net.SplitHostPort(c.listen); err != nil {
		return errors.WithMessage(err, "config: invalid listen address")
	}
	if _, _, err := net.SplitHostPort(c.successor); err != nil {
		return errors.WithMessage(err, "config: invalid successor address")
	}
	if c.keyBits < 0 {
		return errors.Errorf("config: negative key size %d", c.keyBits)
	}
	return nil
}
