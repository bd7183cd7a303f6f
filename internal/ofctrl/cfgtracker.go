package ofctrl

// inFlight is one outstanding (xid, nb_cfg) pair: a barrier transaction
// id tagged with the upstream configuration number it will resolve once
// acknowledged.
type inFlight struct {
	xid   uint32
	nbCfg uint64
}

// cfgTracker is the FIFO of in-flight barrier transactions plus the
// highest configuration number fully acknowledged so far. nb_cfg is
// monotone non-decreasing along the queue by construction.
type cfgTracker struct {
	queue  []inFlight
	curCfg uint64
}

// dropAll discards every in-flight entry without advancing curCfg, used
// when the connection resets: a disconnect acts as a hard cancellation
// of every transaction still in flight.
func (t *cfgTracker) dropAll() {
	t.queue = nil
}

// onBarrierReply pops the queue head if xid matches it and advances
// curCfg to the popped entry's nb_cfg. Barriers are totally ordered on
// the wire, so a match can only ever occur at the head.
func (t *cfgTracker) onBarrierReply(xid uint32) bool {
	if len(t.queue) == 0 || t.queue[0].xid != xid {
		return false
	}
	popped := t.queue[0]
	t.queue = t.queue[1:]
	if popped.nbCfg > t.curCfg {
		t.curCfg = popped.nbCfg
	}
	return true
}

// recordPut implements Put's configuration-tracking step. produced
// reports whether the pass emitted any messages; when it did,
// barrierXID is the xid of the barrier that was appended.
func (t *cfgTracker) recordPut(log ratelimitLogger, produced bool, barrierXID uint32, incomingNbCfg uint64) {
	if !produced {
		if len(t.queue) == 0 {
			if incomingNbCfg > t.curCfg {
				t.curCfg = incomingNbCfg
			}
			return
		}
		t.queue[len(t.queue)-1].nbCfg = incomingNbCfg
		return
	}

	// Regressed tail entries are dropped in favor of the new entry; an
	// unchanged or advanced generation gets its own queue entry rather
	// than overwriting the outstanding one, so two barriers issued back
	// to back for the same generation resolve independently in FIFO
	// order as their replies arrive (see DESIGN.md for why this departs
	// from collapsing same-generation entries into one).
	for len(t.queue) > 0 && t.queue[len(t.queue)-1].nbCfg > incomingNbCfg {
		log.RateLimited("nb_cfg_regress", "nb_cfg regressed: dropping in-flight entry for generation %d in favor of %d", t.queue[len(t.queue)-1].nbCfg, incomingNbCfg)
		t.queue = t.queue[:len(t.queue)-1]
	}

	t.queue = append(t.queue, inFlight{xid: barrierXID, nbCfg: incomingNbCfg})
}

// ratelimitLogger is the slice of logging.Logger that recordPut needs;
// kept narrow so cfgtracker.go does not have to import the logging
// package just for one method.
type ratelimitLogger interface {
	RateLimited(key, format string, args ...interface{})
}
