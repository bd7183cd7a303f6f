package ofctrl

import (
	"context"
	"path/filepath"
)

// maxIterationsPerTick bounds the inner state-machine loop so a single
// busy tick cannot starve the outer poll on the transport.
const maxIterationsPerTick = 50

// Run is the top-level driver entry point: it resolves the management
// socket, reconnects if needed, detects a transport reconnect, and then
// runs the bounded state-machine loop. It returns
// wakeNow == true when the iteration bound expired while progress was
// still being made, asking the caller to invoke Run again immediately
// rather than waiting for the next poll interval.
func (c *Controller) Run(ctx context.Context, rundir, bridge string) (wakeNow bool, err error) {
	target := filepath.Join(rundir, bridge+".mgmt")
	if target != c.currentTarget {
		if err := c.Transport.Connect(ctx, target); err != nil {
			return false, err
		}
		c.currentTarget = target
	}

	if seq := c.Transport.ConnectionSeqno(); seq != c.lastSeenSeqno {
		c.lastSeenSeqno = seq
		c.Reset()
		c.Zones.DemoteSent()
	}

	boundExpired := true
	progressedAny := false

	for i := 0; i < maxIterationsPerTick; i++ {
		progressed, err := c.Tick(ctx)
		if err != nil {
			return false, err
		}

		consumed := false
		env, ok, err := c.Transport.Recv()
		if err != nil {
			return false, err
		}
		if ok {
			if _, err := c.Dispatch(ctx, env); err != nil {
				return false, err
			}
			consumed = true
		}

		if !progressed && !consumed {
			boundExpired = false
			break
		}
		progressedAny = true
	}

	return boundExpired && progressedAny, nil
}
