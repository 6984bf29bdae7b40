package sqlload

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Catalog holds the loaded set of table mappings. The snapshot behind the
// atomic pointer is immutable; Reload builds a new snapshot and swaps it, so
// concurrent Resolve calls never observe a half-updated catalog.
type Catalog struct {
	dir      string
	logger   zerolog.Logger
	snapshot atomic.Pointer[catalogSnapshot]
}

type catalogSnapshot struct {
	tables map[string]*TableMapping
}

// NewCatalog loads all mapping definitions from dir, one JSON file per table.
// A missing directory is not an error: the catalog starts empty and every
// build falls back to reflective column resolution. A malformed individual
// file is skipped with a warning and does not abort the rest of the load.
func NewCatalog(dir string, logger zerolog.Logger) (*Catalog, error) {
	c := &Catalog{
		dir:    dir,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the mapping directory and atomically replaces the snapshot.
func (c *Catalog) Reload() error {
	snap := &catalogSnapshot{tables: make(map[string]*TableMapping)}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) || c.dir == "" {
			c.logger.Warn().Str("dir", c.dir).Msg("mapping directory absent, starting with empty catalog")
			c.snapshot.Store(snap)
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		mapping, err := readMappingFile(path)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable mapping definition")
			continue
		}
		if err := mapping.Validate(); err != nil {
			c.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid mapping definition")
			continue
		}
		if _, dup := snap.tables[mapping.TableName]; dup {
			c.logger.Warn().Str("table", mapping.TableName).Str("file", entry.Name()).Msg("duplicate table definition, keeping the first")
			continue
		}
		snap.tables[mapping.TableName] = mapping
	}

	c.snapshot.Store(snap)
	c.logger.Info().Int("tables", len(snap.tables)).Str("dir", c.dir).Msg("mapping catalog loaded")
	return nil
}

func readMappingFile(path string) (*TableMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mapping TableMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Resolve returns the mapping for table, or false when none is configured.
// A false return is not an error: builders fall back to the record's own
// field set.
func (c *Catalog) Resolve(table string) (*TableMapping, bool) {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	m, ok := snap.tables[table]
	return m, ok
}

// Tables returns the names of all configured tables, sorted.
func (c *Catalog) Tables() []string {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil
	}
	out := make([]string, 0, len(snap.tables))
	for name := range snap.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
