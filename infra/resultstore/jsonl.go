package resultstore

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/voltmesh/bessopt/core/model"
)

// Config holds the on-disk result store settings.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = "results/optimizations.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
}

// Query filters stored results.
type Query struct {
	Start  time.Time
	End    time.Time
	Status model.SolveStatus
}

// RotatingJSONLStore appends results to a JSONL file with size rotation.
type RotatingJSONLStore struct {
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes
// and days.
func NewRotatingJSONLStore(cfg Config) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   false,
	}
	return &RotatingJSONLStore{logger: lj, path: cfg.Path}, nil
}

// Append writes the result as one JSON line, triggering rotation if needed.
func (s *RotatingJSONLStore) Append(result *model.OptimizationResult) error {
	enc := json.NewEncoder(s.logger)
	return enc.Encode(result)
}

// Query reads all result files including rotated ones.
func (s *RotatingJSONLStore) Query(q Query) ([]model.OptimizationResult, error) {
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	var res []model.OptimizationResult
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var r model.OptimizationResult
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				continue
			}
			if !q.Start.IsZero() && r.CreatedAt.Before(q.Start) {
				continue
			}
			if !q.End.IsZero() && r.CreatedAt.After(q.End) {
				continue
			}
			if q.Status != "" && r.Status != q.Status {
				continue
			}
			res = append(res, r)
		}
		_ = file.Close()
	}
	return res, nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
