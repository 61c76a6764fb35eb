package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-layerpool/cmd/utils"
	"github.com/dominant-strategies/go-layerpool/common/constants"
	"github.com/dominant-strategies/go-layerpool/core/txpool"
	"github.com/dominant-strategies/go-layerpool/log"
	"github.com/dominant-strategies/go-layerpool/metrics_config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "runs a pool simulation",
	Long: `runs a pool simulation. Synthetic senders submit local and remote transactions
concurrently while a block builder selects from the pool every block time and confirms
what it included. The run ends when every transaction was mined or got stuck, when the
duration elapses or on SIGINT/SIGTERM, and prints a report.`,
	RunE:                       runSimulation,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Args:                       cobra.NoArgs,
	Example:                    `txpool-sim run --duration=30s --block-size=100 --workload=./workload.yaml`,
}

func init() {
	rootCmd.AddCommand(runCmd)

	for _, flagGroup := range utils.Flags {
		for _, flag := range flagGroup {
			utils.CreateAndBindFlag(flag, runCmd)
		}
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	workload, err := LoadWorkload(workloadPath(cmd))
	if err != nil {
		return err
	}
	config, err := utils.PoolConfig()
	if err != nil {
		return errors.Wrap(err, "loading pool config")
	}

	reg := prometheus.NewRegistry()
	if addr := viper.GetString(utils.MetricsAddrFlag.Name); addr != "" {
		metrics_config.EnableMetrics()
		go func() {
			if err := metrics_config.StartProcessMetrics(reg, addr); err != nil {
				log.Global.WithField("err", err).Error("Metrics server stopped")
			}
		}()
	}

	var (
		fees = txpool.NewBaseFeeTracker(uint256.NewInt(viper.GetUint64(utils.BaseFeeFlag.Name)))
		pool = txpool.NewTxPool(config, fees, txpool.PriceBump(config.PriceBump), log.Global, reg)
	)
	defer pool.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration(utils.DurationFlag.Name))
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Global.WithFields(log.Fields{
		"senders":   workload.Senders,
		"locals":    workload.LocalSenders,
		"perSender": workload.TxsPerSender,
		"blockSize": viper.GetInt(utils.BlockSizeFlag.Name),
		"blockTime": viper.GetDuration(utils.BlockTimeFlag.Name),
	}).Info("Starting simulation")

	sim := newSimulation(pool, fees, workload, viper.GetInt(utils.BlockSizeFlag.Name), viper.GetDuration(utils.BlockTimeFlag.Name), log.Global)
	if err := sim.run(ctx, viper.GetInt64(utils.SeedFlag.Name)); err != nil {
		return errors.Wrap(err, "simulation failed")
	}
	if ctx.Err() != nil {
		log.Global.WithField("reason", ctx.Err()).Warn("Simulation interrupted")
	}
	sim.report.render(cmd.OutOrStdout(), pool)
	return nil
}

// workloadPath returns the workload flag, falling back to the workload file of
// the config directory when it exists.
func workloadPath(cmd *cobra.Command) string {
	if path := viper.GetString(utils.WorkloadFileFlag.Name); path != "" {
		return path
	}
	path := filepath.Join(cmd.Flag(utils.ConfigDirFlag.Name).Value.String(), constants.WORKLOAD_FILE_NAME)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
