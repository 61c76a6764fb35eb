package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-layerpool/common/constants"
	"github.com/dominant-strategies/go-layerpool/core/txpool"
	"github.com/dominant-strategies/go-layerpool/log"
)

var GlobalFlags = []Flag{
	ConfigDirFlag,
	LogLevelFlag,
	LogFileFlag,
	SaveConfigFlag,
}

var PoolFlags = []Flag{
	MaxPrioritizedFlag,
	MaxFutureFlag,
	SparsePerSenderFlag,
	LayerBytesFlag,
	PriceBumpFlag,
	NoLocalsFlag,
	LocalsFlag,
	EvictedRetentionFlag,
	EvictedLifetimeFlag,
}

var SimFlags = []Flag{
	WorkloadFileFlag,
	DurationFlag,
	BlockTimeFlag,
	BlockSizeFlag,
	BaseFeeFlag,
	SeedFlag,
	MetricsAddrFlag,
}

// Flags groups every flag of the run and config commands.
var Flags = [][]Flag{
	PoolFlags,
	SimFlags,
}

var (
	// ****************************************
	// **                                    **
	// **         GLOBAL FLAGS               **
	// **                                    **
	// ****************************************
	ConfigDirFlag = Flag{
		Name:         "config-dir",
		Abbreviation: "c",
		Value:        xdg.ConfigHome + "/" + constants.APP_NAME + "/",
		Usage:        "config directory" + generateEnvDoc("config-dir"),
	}

	LogLevelFlag = Flag{
		Name:         "log-level",
		Abbreviation: "l",
		Value:        "info",
		Usage:        "log level (trace, debug, info, warn, error, fatal, panic)" + generateEnvDoc("log-level"),
	}

	LogFileFlag = Flag{
		Name:  "log-file",
		Value: "",
		Usage: "file the global log is rotated into (empty for the default)" + generateEnvDoc("log-file"),
	}

	SaveConfigFlag = Flag{
		Name:         "save-config",
		Abbreviation: "S",
		Value:        false,
		Usage:        "save/update config file with current config parameters" + generateEnvDoc("save-config"),
	}

	// ****************************************
	// **                                    **
	// **         POOL FLAGS                 **
	// **                                    **
	// ****************************************
	MaxPrioritizedFlag = Flag{
		Name:  "txpool.max-prioritized",
		Value: txpool.DefaultConfig.MaxPrioritized,
		Usage: "maximum number of transactions kept in the prioritized layer" + generateEnvDoc("txpool.max-prioritized"),
	}

	MaxFutureFlag = Flag{
		Name:  "txpool.max-future",
		Value: txpool.DefaultConfig.MaxFutureBySender,
		Usage: "how far ahead of its on-chain nonce a sender may queue transactions" + generateEnvDoc("txpool.max-future"),
	}

	SparsePerSenderFlag = Flag{
		Name:  "txpool.sparse-per-sender",
		Value: txpool.DefaultConfig.MaxSparsePerSender,
		Usage: "maximum number of sparse transactions held for a single sender" + generateEnvDoc("txpool.sparse-per-sender"),
	}

	LayerBytesFlag = Flag{
		Name:  "txpool.layer-bytes",
		Value: txpool.DefaultConfig.LayerMaxCapacityBytes,
		Usage: "byte capacity of the ready layer and of the sparse layer" + generateEnvDoc("txpool.layer-bytes"),
	}

	PriceBumpFlag = Flag{
		Name:  "txpool.price-bump",
		Value: txpool.DefaultConfig.PriceBump,
		Usage: "minimum price bump percentage to replace a pending transaction" + generateEnvDoc("txpool.price-bump"),
	}

	NoLocalsFlag = Flag{
		Name:  "txpool.no-locals",
		Value: false,
		Usage: "disable special treatment of locally submitted transactions" + generateEnvDoc("txpool.no-locals"),
	}

	LocalsFlag = Flag{
		Name:  "txpool.locals",
		Value: []string{},
		Usage: "comma separated accounts to treat as locals" + generateEnvDoc("txpool.locals"),
	}

	EvictedRetentionFlag = Flag{
		Name:  "txpool.evicted-retention",
		Value: txpool.DefaultConfig.EvictedRetention,
		Usage: "number of evicted transactions remembered by the pool" + generateEnvDoc("txpool.evicted-retention"),
	}

	EvictedLifetimeFlag = Flag{
		Name:  "txpool.evicted-lifetime",
		Value: txpool.DefaultConfig.EvictedLifetime,
		Usage: "how long an evicted transaction is remembered" + generateEnvDoc("txpool.evicted-lifetime"),
	}

	// ****************************************
	// **                                    **
	// **         SIMULATION FLAGS           **
	// **                                    **
	// ****************************************
	WorkloadFileFlag = Flag{
		Name:         "workload",
		Abbreviation: "w",
		Value:        "",
		Usage:        "yaml workload file (defaults to " + constants.WORKLOAD_FILE_NAME + " in the config directory when present)" + generateEnvDoc("workload"),
	}

	DurationFlag = Flag{
		Name:         "duration",
		Abbreviation: "d",
		Value:        time.Minute,
		Usage:        "upper bound on the simulation run time" + generateEnvDoc("duration"),
	}

	BlockTimeFlag = Flag{
		Name:  "block-time",
		Value: 500 * time.Millisecond,
		Usage: "interval between simulated blocks" + generateEnvDoc("block-time"),
	}

	BlockSizeFlag = Flag{
		Name:  "block-size",
		Value: 200,
		Usage: "maximum number of transactions included per simulated block" + generateEnvDoc("block-size"),
	}

	BaseFeeFlag = Flag{
		Name:  "base-fee",
		Value: uint64(10),
		Usage: "base fee of the first simulated block" + generateEnvDoc("base-fee"),
	}

	SeedFlag = Flag{
		Name:  "seed",
		Value: int64(1),
		Usage: "seed of the workload generator" + generateEnvDoc("seed"),
	}

	MetricsAddrFlag = Flag{
		Name:  "metrics-addr",
		Value: "",
		Usage: "address to serve prometheus metrics on (disabled when empty)" + generateEnvDoc("metrics-addr"),
	}
)

/*
CreateAndBindFlag creates a flag and binds it to the viper instance.
If the flag abbreviation is empty, the flag will not have an abbreviation.
*/
func CreateAndBindFlag(flag Flag, cmd *cobra.Command) {
	switch val := flag.GetValue().(type) {
	case string:
		cmd.PersistentFlags().StringP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case bool:
		cmd.PersistentFlags().BoolP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case []string:
		cmd.PersistentFlags().StringSliceP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case time.Duration:
		cmd.PersistentFlags().DurationP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int:
		cmd.PersistentFlags().IntP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int64:
		cmd.PersistentFlags().Int64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case uint64:
		cmd.PersistentFlags().Uint64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	default:
		log.Error("Flag type not supported: " + flag.GetName() + ", " + fmt.Sprintf("%T", val))
	}
	viper.BindPFlag(flag.GetName(), cmd.PersistentFlags().Lookup(flag.GetName()))
}

// helper function that given a cobra flag name, returns the corresponding
// help legend for the equivalent environment variable
func generateEnvDoc(flag string) string {
	envVar := constants.ENV_PREFIX + "_" + strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(flag))
	return fmt.Sprintf(" [%s]", envVar)
}
