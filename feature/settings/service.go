package settings

import (
	"context"
	"sort"
	"strings"

	"rom-manager/core/catalog"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"

	"go.uber.org/zap"
)

// validators normalizes the value of every known setting.
var validators = map[string]func(string) (string, error){
	catalog.SettingHashAlgorithm: func(v string) (string, error) {
		algo, err := hashing.ParseAlgorithm(v)
		if err != nil {
			return "", err
		}
		return algo.String(), nil
	},
}

// Keys lists the known setting names.
func Keys() []string {
	keys := make([]string, 0, len(validators))
	for k := range validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Service reads and writes settings.
type Service struct {
	catalog     catalog.Catalog
	defaultHash string
	logger      *zap.Logger
}

// NewService creates a settings service. defaultHash applies when the
// catalog holds no HASH_ALGORITHM.
func NewService(cat catalog.Catalog, defaultHash string, logger *zap.Logger) *Service {
	return &Service{catalog: cat, defaultHash: defaultHash, logger: logger}
}

// Algorithm picks the hash algorithm: override when set, then the stored
// setting, then the configured default.
func (s *Service) Algorithm(ctx context.Context, override string) (hashing.Algorithm, error) {
	if strings.TrimSpace(override) != "" {
		return hashing.ParseAlgorithm(override)
	}

	stored, ok, err := s.catalog.GetSetting(ctx, catalog.SettingHashAlgorithm)
	if err != nil {
		return "", err
	}
	if ok && stored != "" {
		return hashing.ParseAlgorithm(stored)
	}
	return hashing.ParseAlgorithm(s.defaultHash)
}

// Get returns the stored value of key, or its effective default.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	key = strings.ToUpper(key)
	if _, ok := validators[key]; !ok {
		return "", errors.NewNotFoundError("setting", key)
	}

	value, ok, err := s.catalog.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return value, nil
	}
	if key == catalog.SettingHashAlgorithm {
		algo, err := hashing.ParseAlgorithm(s.defaultHash)
		if err != nil {
			return "", err
		}
		return algo.String(), nil
	}
	return "", nil
}

// Set validates and stores value under key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	key = strings.ToUpper(key)
	validate, ok := validators[key]
	if !ok {
		return errors.NewNotFoundError("setting", key)
	}

	normalized, err := validate(value)
	if err != nil {
		return err
	}
	if err := s.catalog.SetSetting(ctx, key, normalized); err != nil {
		return err
	}

	s.logger.Info("Setting updated", zap.String("key", key), zap.String("value", normalized))
	return nil
}
