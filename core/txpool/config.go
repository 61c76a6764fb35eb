package txpool

import (
	"time"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/log"
)

// Config are the configuration parameters of the transaction pool.
type Config struct {
	Locals   []common.Address // Addresses that should be treated by default as local
	NoLocals bool             // Whether local transaction handling should be disabled

	MaxPrioritized        int    // Maximum number of transactions in the prioritized layer
	MaxFutureBySender     uint64 // How far ahead of the on-chain nonce a sender may queue
	MaxSparsePerSender    int    // Maximum number of sparse transactions of one sender
	LayerMaxCapacityBytes uint64 // Byte capacity of the ready layer and of the sparse layer

	PriceBump uint64 // Minimum price bump percentage to replace an already existing transaction (nonce)

	EvictedRetention int           // Number of evicted transactions remembered
	EvictedLifetime  time.Duration // How long an evicted transaction is remembered
}

// DefaultConfig contains the default configurations for the transaction
// pool.
var DefaultConfig = Config{
	MaxPrioritized:        2000,
	MaxFutureBySender:     200,
	MaxSparsePerSender:    200,
	LayerMaxCapacityBytes: 12_500_000,

	PriceBump: 10,

	EvictedRetention: 4096,
	EvictedLifetime:  time.Hour,
}

// sanitize checks the provided user configurations and changes anything that's
// unreasonable or unworkable.
func (config *Config) sanitize(logger *log.Logger) Config {
	conf := *config
	if conf.MaxPrioritized < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.MaxPrioritized,
			"updated":  DefaultConfig.MaxPrioritized,
		}).Warn("Sanitizing invalid txpool prioritized capacity")
		conf.MaxPrioritized = DefaultConfig.MaxPrioritized
	}
	if conf.MaxFutureBySender < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.MaxFutureBySender,
			"updated":  DefaultConfig.MaxFutureBySender,
		}).Warn("Sanitizing invalid txpool future nonce window")
		conf.MaxFutureBySender = DefaultConfig.MaxFutureBySender
	}
	if conf.MaxSparsePerSender < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.MaxSparsePerSender,
			"updated":  DefaultConfig.MaxSparsePerSender,
		}).Warn("Sanitizing invalid txpool sparse slots per sender")
		conf.MaxSparsePerSender = DefaultConfig.MaxSparsePerSender
	}
	if conf.LayerMaxCapacityBytes < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.LayerMaxCapacityBytes,
			"updated":  DefaultConfig.LayerMaxCapacityBytes,
		}).Warn("Sanitizing invalid txpool layer capacity")
		conf.LayerMaxCapacityBytes = DefaultConfig.LayerMaxCapacityBytes
	}
	if conf.PriceBump < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.PriceBump,
			"updated":  DefaultConfig.PriceBump,
		}).Warn("Sanitizing invalid txpool price bump")
		conf.PriceBump = DefaultConfig.PriceBump
	}
	if conf.EvictedRetention < 1 {
		logger.WithFields(log.Fields{
			"provided": conf.EvictedRetention,
			"updated":  DefaultConfig.EvictedRetention,
		}).Warn("Sanitizing invalid txpool evicted retention")
		conf.EvictedRetention = DefaultConfig.EvictedRetention
	}
	if conf.EvictedLifetime < 0 {
		logger.WithFields(log.Fields{
			"provided": conf.EvictedLifetime,
			"updated":  DefaultConfig.EvictedLifetime,
		}).Warn("Sanitizing invalid txpool evicted lifetime")
		conf.EvictedLifetime = DefaultConfig.EvictedLifetime
	}
	return conf
}
