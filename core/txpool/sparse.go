package txpool

import "github.com/dominant-strategies/go-layerpool/common"

// sparseLayer holds transactions that cannot execute yet because of a nonce
// gap, and overflow demoted from the ready layer. It is bounded both in bytes
// and in transactions per sender.
type sparseLayer struct {
	*txLayer
	maxBytes     uint64
	maxPerSender int
}

func newSparseLayer(maxBytes uint64, maxPerSender int) *sparseLayer {
	return &sparseLayer{
		txLayer:      newTxLayer(LayerSparse),
		maxBytes:     maxBytes,
		maxPerSender: maxPerSender,
	}
}

func (l *sparseLayer) overflow() bool {
	return l.bytes > l.maxBytes
}

func (l *sparseLayer) senderOverflow(addr common.Address) bool {
	return l.senderLen(addr) > l.maxPerSender
}
