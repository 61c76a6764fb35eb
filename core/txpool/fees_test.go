package txpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseFeeTrackerCopies(t *testing.T) {
	tracker := NewBaseFeeTracker(uint256Of(7))

	fee := tracker.BaseFee()
	fee.SetUint64(100)
	assert.Equal(t, uint64(7), tracker.BaseFee().Uint64())

	tracker.SetBaseFee(nil)
	assert.Nil(t, tracker.BaseFee())
}

func TestStaticBaseFee(t *testing.T) {
	assert.Nil(t, StaticBaseFee{}.BaseFee())
	assert.Equal(t, uint64(3), StaticBaseFee{Fee: uint256Of(3)}.BaseFee().Uint64())
}
