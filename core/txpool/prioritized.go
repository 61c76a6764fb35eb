package txpool

// prioritizedLayer holds the lowest contiguous nonces of the best paying
// senders. It is bounded by transaction count and is the only layer block
// selection reads from.
type prioritizedLayer struct {
	*txLayer
	maxTxs int
}

func newPrioritizedLayer(maxTxs int) *prioritizedLayer {
	return &prioritizedLayer{
		txLayer: newTxLayer(LayerPrioritized),
		maxTxs:  maxTxs,
	}
}

func (l *prioritizedLayer) hasRoom() bool {
	return l.count < l.maxTxs
}

func (l *prioritizedLayer) overflow() bool {
	return l.count > l.maxTxs
}
