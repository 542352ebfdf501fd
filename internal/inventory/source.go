package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kneutral-org/inventory-dashboard/internal/metrics"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// Source fetches the complete inventory in one call.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Inventory, error)
}

// Loader returns a topology loader that fetches from src and converts the
// result. Fetch duration and failures are recorded per source.
func (c *Converter) Loader(src Source) topology.Loader {
	return func(ctx context.Context) (*topology.Topology, error) {
		start := time.Now()
		inv, err := src.Fetch(ctx)
		metrics.RecordInventoryFetch(src.Name(), err, time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("fetch inventory from %s: %w", src.Name(), err)
		}
		c.logger.Debug().
			Str("source", src.Name()).
			Int("devices", len(inv.Devices)).
			Int("cables", len(inv.Cables)).
			Msg("inventory fetched")
		return c.Build(inv)
	}
}

// FileSource reads the inventory from a YAML or JSON file on every fetch.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource. Files ending in .json are decoded as
// JSON, anything else as YAML.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (*Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}
	return Decode(data, filepath.Ext(s.path))
}

// Decode parses an inventory document. format is a file extension; ".json"
// selects JSON, everything else YAML.
func Decode(data []byte, format string) (*Inventory, error) {
	var inv Inventory
	if strings.EqualFold(format, ".json") {
		if err := json.Unmarshal(data, &inv); err != nil {
			return nil, fmt.Errorf("decode inventory json: %w", err)
		}
		return &inv, nil
	}
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory yaml: %w", err)
	}
	return &inv, nil
}
