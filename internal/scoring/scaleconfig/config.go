package scaleconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Config is the award scale applied to per-criterion ranks. The bucket
// boundaries are configuration, not a constant: rank n gets Buckets[n-1]
// and every rank past the last bucket gets Default.
type Config struct {
	Scale struct {
		Buckets []float64 `yaml:"buckets" json:"buckets"`
		Default float64   `yaml:"default" json:"default"`
	} `yaml:"scale" json:"scale"`

	// AttainmentCap bounds the attainment ratio so a fully expurgated
	// (or near-zero) realized value cannot blow up the stored ratio.
	AttainmentCap float64 `yaml:"attainment_cap" json:"attainment_cap"`
}

// Default returns the production scale: 1.0 / 1.5 / 2.0 / 2.5-and-worse
func Default() *Config {
	cfg := &Config{AttainmentCap: 10.0}
	cfg.Scale.Buckets = []float64{1.0, 1.5, 2.0}
	cfg.Scale.Default = 2.5
	return cfg
}

// ScoreForRank maps a per-criterion rank (1-based) to its score
func (c *Config) ScoreForRank(rank int) float64 {
	if rank >= 1 && rank <= len(c.Scale.Buckets) {
		return c.Scale.Buckets[rank-1]
	}
	return c.Scale.Default
}

// Validate checks the scale for internal consistency
func Validate(c *Config) error {
	if len(c.Scale.Buckets) == 0 {
		return fmt.Errorf("scale must define at least one bucket")
	}
	for i := 1; i < len(c.Scale.Buckets); i++ {
		if c.Scale.Buckets[i] < c.Scale.Buckets[i-1] {
			return fmt.Errorf("scale buckets must not decrease (bucket %d)", i+1)
		}
	}
	if c.Scale.Default < c.Scale.Buckets[len(c.Scale.Buckets)-1] {
		return fmt.Errorf("default score must not be better than the last bucket")
	}
	if c.AttainmentCap <= 0 {
		return fmt.Errorf("attainment_cap must be positive")
	}
	return nil
}

// Hash generates a deterministic SHA-256 hash of the config. Stored on
// every computed score row so a result can be traced to the scale that
// produced it.
func Hash(c *Config) (string, error) {
	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal scale config: %w", err)
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
