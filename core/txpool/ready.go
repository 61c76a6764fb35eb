package txpool

// readyLayer holds contiguous, executable transactions that did not make it
// into the prioritized layer. Per sender, its nonces continue right after the
// sender's prioritized ones.
type readyLayer struct {
	*txLayer
	maxBytes uint64
}

func newReadyLayer(maxBytes uint64) *readyLayer {
	return &readyLayer{
		txLayer:  newTxLayer(LayerReady),
		maxBytes: maxBytes,
	}
}

// fits reports whether ptx can move in without pushing anything out.
func (l *readyLayer) fits(ptx *PendingTx) bool {
	return l.bytes+ptx.Size() <= l.maxBytes
}

func (l *readyLayer) overflow() bool {
	return l.bytes > l.maxBytes
}
