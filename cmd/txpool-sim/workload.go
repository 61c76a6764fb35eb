package main

import (
	"math"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Workload shapes the synthetic traffic pushed into the pool.
type Workload struct {
	Senders      int `yaml:"senders" toml:"senders"`
	LocalSenders int `yaml:"local_senders" toml:"local_senders"`
	TxsPerSender int `yaml:"txs_per_sender" toml:"txs_per_sender"`

	// Probability that two consecutive nonces of a sender arrive swapped.
	GapProbability float64 `yaml:"gap_probability" toml:"gap_probability"`
	// Probability that a transaction is resubmitted with a bumped fee.
	ReplaceProbability float64 `yaml:"replace_probability" toml:"replace_probability"`
	// Probability that the block builder rejects a selected transaction.
	InvalidProbability float64 `yaml:"invalid_probability" toml:"invalid_probability"`
	// Share of transactions using the dynamic fee format.
	DynamicFeeShare float64 `yaml:"dynamic_fee_share" toml:"dynamic_fee_share"`

	MinTip     uint64 `yaml:"min_tip" toml:"min_tip"`
	MaxTip     uint64 `yaml:"max_tip" toml:"max_tip"`
	MinPayload int    `yaml:"min_payload" toml:"min_payload"`
	MaxPayload int    `yaml:"max_payload" toml:"max_payload"`
}

// DefaultWorkload is used when no workload file is given.
var DefaultWorkload = Workload{
	Senders:            64,
	LocalSenders:       4,
	TxsPerSender:       32,
	GapProbability:     0.1,
	ReplaceProbability: 0.05,
	InvalidProbability: 0.01,
	DynamicFeeShare:    0.5,
	MinTip:             1,
	MaxTip:             100,
	MinPayload:         0,
	MaxPayload:         256,
}

// LoadWorkload reads a .yaml/.yml or .toml workload. Fields missing from the
// file keep their DefaultWorkload value.
func LoadWorkload(path string) (Workload, error) {
	workload := DefaultWorkload
	if path == "" {
		return workload, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, errors.Wrap(err, "reading workload")
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &workload)
	case ".toml":
		err = toml.Unmarshal(data, &workload)
	default:
		return Workload{}, errors.Errorf("workload %s: only .yaml and .toml files are accepted", path)
	}
	if err != nil {
		return Workload{}, errors.Wrapf(err, "parsing workload %s", path)
	}
	if err := workload.validate(); err != nil {
		return Workload{}, errors.Wrapf(err, "invalid workload %s", path)
	}
	return workload, nil
}

func (w Workload) validate() error {
	switch {
	case w.Senders < 1:
		return errors.New("senders must be positive")
	case w.LocalSenders < 0 || w.LocalSenders > w.Senders:
		return errors.Errorf("local_senders must be within [0, %d]", w.Senders)
	case w.TxsPerSender < 1:
		return errors.New("txs_per_sender must be positive")
	case w.MinTip > w.MaxTip:
		return errors.Errorf("min_tip %d above max_tip %d", w.MinTip, w.MaxTip)
	case w.MaxTip-w.MinTip >= math.MaxInt64:
		return errors.Errorf("tip range [%d, %d] is too wide", w.MinTip, w.MaxTip)
	case w.MinPayload < 0 || w.MinPayload > w.MaxPayload:
		return errors.Errorf("payload range [%d, %d] is invalid", w.MinPayload, w.MaxPayload)
	}
	for name, p := range map[string]float64{
		"gap_probability":     w.GapProbability,
		"replace_probability": w.ReplaceProbability,
		"invalid_probability": w.InvalidProbability,
		"dynamic_fee_share":   w.DynamicFeeShare,
	} {
		if p < 0 || p > 1 {
			return errors.Errorf("%s must be within [0, 1], have %v", name, p)
		}
	}
	return nil
}
