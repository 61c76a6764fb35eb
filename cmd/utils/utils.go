package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-layerpool/common"
	"github.com/dominant-strategies/go-layerpool/common/constants"
	"github.com/dominant-strategies/go-layerpool/core/txpool"
	"github.com/dominant-strategies/go-layerpool/log"
)

// InitConfig initializes the viper config instance ensuring that environment variables
// take precedence over config file parameters.
// Environment variables should be prefixed with the application name (e.g. LAYERPOOL_LOG_LEVEL).
// It panics if an error occurs while reading the config file.
func InitConfig() {
	// read in config file and merge with defaults
	log.Global.Infof("Loading config from file: %s", viper.ConfigFileUsed())
	err := viper.ReadInConfig()
	if err != nil {
		// if error is type ConfigFileNotFoundError or fs.PathError, ignore error
		if _, ok := err.(*fs.PathError); ok || errors.Is(err, viper.ConfigFileNotFoundError{}) {
			log.Global.Warnf("Config file not found: %s", viper.ConfigFileUsed())
		} else {
			log.Global.Errorf("Error reading config file: %s", err)
			// config file was found but another error was produced. Cannot continue
			panic(err)
		}
	}

	log.Global.Infof("Loading config from environment variables with prefix: '%s_'", constants.ENV_PREFIX)
	viper.SetEnvPrefix(constants.ENV_PREFIX)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// SaveConfig saves the config file with the current config parameters.
//
// If the config file does not exist, it creates it.
//
// If the config file exists, it creates a backup copy ending with .bak
// and overwrites the existing config file.
func SaveConfig() error {
	configFile := viper.ConfigFileUsed()
	log.Global.Debugf("saving/updating config file: %s", configFile)
	if _, err := os.Stat(configFile); err == nil {
		// config file exists, create backup copy
		if err := os.Rename(configFile, configFile+".bak"); err != nil {
			return pkgerrors.Wrap(err, "backing up config file")
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return pkgerrors.Wrap(err, "creating config directory")
		}
	} else {
		return err
	}
	return pkgerrors.Wrap(viper.WriteConfigAs(configFile), "writing config file")
}

// WriteDefaultConfigFile writes every bound flag with its current value into
// configDir/configFileName. Existing files are left untouched.
func WriteDefaultConfigFile(configDir string, configFileName string, configType string) error {
	if configDir == "" {
		return errors.New("config directory is empty")
	}
	path := filepath.Join(configDir, configFileName)
	if _, err := os.Stat(path); err == nil {
		return pkgerrors.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return pkgerrors.Wrap(err, "creating config directory")
	}
	viper.SetConfigType(configType)
	return pkgerrors.Wrapf(viper.SafeWriteConfigAs(path), "writing %s", path)
}

// PoolConfig assembles the transaction pool configuration from the viper
// instance. Locals must be valid hex addresses.
func PoolConfig() (txpool.Config, error) {
	config := txpool.Config{
		NoLocals:              viper.GetBool(NoLocalsFlag.Name),
		MaxPrioritized:        viper.GetInt(MaxPrioritizedFlag.Name),
		MaxFutureBySender:     viper.GetUint64(MaxFutureFlag.Name),
		MaxSparsePerSender:    viper.GetInt(SparsePerSenderFlag.Name),
		LayerMaxCapacityBytes: viper.GetUint64(LayerBytesFlag.Name),
		PriceBump:             viper.GetUint64(PriceBumpFlag.Name),
		EvictedRetention:      viper.GetInt(EvictedRetentionFlag.Name),
		EvictedLifetime:       viper.GetDuration(EvictedLifetimeFlag.Name),
	}
	for _, account := range viper.GetStringSlice(LocalsFlag.Name) {
		account = strings.TrimSpace(account)
		if account == "" {
			continue
		}
		if !common.IsHexAddress(account) {
			return txpool.Config{}, pkgerrors.Errorf("invalid local account %q", account)
		}
		config.Locals = append(config.Locals, common.HexToAddress(account))
	}
	return config, nil
}
