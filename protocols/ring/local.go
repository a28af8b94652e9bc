package ring

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
)

var ErrNoMaster = errors.New("ring: exactly one master is required")

// RunLocal runs a whole ring in this process and returns the master's result.
//
// Every listener is bound before any node starts, so no predecessor can dial
// an address that is not ready yet. The first failing node cancels the others.
func RunLocal(ctx context.Context, cfgs []*config.NodeConfig, opts ...Option) (*Result, error) {
	if len(cfgs) < 2 {
		return nil, config.ErrRingTooSmall
	}

	nodes := make([]Node, len(cfgs))
	master := -1
	for i, cfg := range cfgs {
		n, err := New(cfg, opts...)
		if err != nil {
			return nil, errors.WithMessagef(err, "ring.RunLocal: node %d", i)
		}
		nodes[i] = n
		if n.Role() == config.Master {
			if master >= 0 {
				return nil, ErrNoMaster
			}
			master = i
		}
	}
	if master < 0 {
		return nil, ErrNoMaster
	}
	defer func() {
		for _, n := range nodes {
			n.Close()
		}
	}()

	for i, n := range nodes {
		if _, err := n.Bind(ctx); err != nil {
			return nil, errors.WithMessagef(err, "ring.RunLocal: node %d", i)
		}
	}

	errGroup, gctx := errgroup.WithContext(ctx)
	results := make([]*Result, len(nodes))
	for i, n := range nodes {
		i, n := i, n
		errGroup.Go(func() error {
			res, err := n.Run(gctx)
			if err != nil {
				return errors.WithMessagef(err, "node %d (%s)", i, n.Role())
			}
			results[i] = res
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return nil, err
	}
	return results[master], nil
}
