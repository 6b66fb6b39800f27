package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/liquidity-lens/internal/config"
)

// Store holds the loaded bundles keyed by version.
type Store struct {
	datasets map[string]*Dataset
}

// NewStore builds a store from already parsed datasets.
func NewStore(datasets ...*Dataset) *Store {
	s := &Store{datasets: make(map[string]*Dataset, len(datasets))}
	for _, ds := range datasets {
		s.datasets[ds.Version] = ds
	}
	return s
}

// LoadFile reads and parses one bundle from disk.
func LoadFile(version, path string, maxLag int) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s bundle: %w", version, err)
	}
	return Parse(version, raw, maxLag)
}

// Load reads both bundles named in cfg. A missing file is skipped with a
// warning so a deployment can serve a single version; a malformed file fails.
func Load(cfg config.DatasetConfig, analyticsCfg config.AnalyticsConfig, logger *logrus.Logger) (*Store, error) {
	files := []struct {
		version string
		name    string
		maxLag  int
	}{
		{VersionV1, cfg.V1File, analyticsCfg.MaxLagV1},
		{VersionV2, cfg.V2File, analyticsCfg.MaxLagV2},
	}

	store := NewStore()
	for _, f := range files {
		if f.name == "" {
			continue
		}
		path := filepath.Join(cfg.Dir, f.name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.WithFields(logrus.Fields{"version": f.version, "path": path}).Warn("Dataset bundle not found, skipping")
			continue
		}

		ds, err := LoadFile(f.version, path, f.maxLag)
		if err != nil {
			return nil, err
		}
		store.datasets[ds.Version] = ds

		logger.WithFields(logrus.Fields{
			"version":     ds.Version,
			"records":     len(ds.Records),
			"first":       ds.FirstDate(),
			"last":        ds.LastDate(),
			"fingerprint": ds.Fingerprint,
		}).Info("Dataset loaded")
	}

	if len(store.datasets) == 0 {
		return nil, fmt.Errorf("no dataset bundles found in %s", cfg.Dir)
	}
	return store, nil
}

// Get returns the dataset for version or ErrUnknownVersion.
func (s *Store) Get(version string) (*Dataset, error) {
	ds, ok := s.datasets[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return ds, nil
}

// Versions returns the loaded versions in sorted order.
func (s *Store) Versions() []string {
	versions := make([]string, 0, len(s.datasets))
	for v := range s.datasets {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// Len reports how many bundles are loaded.
func (s *Store) Len() int {
	return len(s.datasets)
}
