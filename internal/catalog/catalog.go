// internal/catalog/catalog.go

// Package catalog resolves rule sets by name from three sources: the
// embedded TR-181 dictionary, an optional directory of *_rules.yaml
// files, and optional user-saved rule sets in the database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/solatis/cpereport/internal/rules"
	"github.com/solatis/cpereport/internal/types"
)

/*
 * Rule-set catalog.
 *
 * Precedence by name: database over directory over built-in, so a saved
 * rule set shadows a file with the same name and both shadow the embedded
 * dictionary. Listing is tolerant: a directory file or database row whose
 * document fails to parse is listed with a load error note instead of
 * breaking the listing. Loading a specific name is strict; the caller
 * asked for that document and gets its parse error.
 *
 * The Store seam keeps the package testable without a database; nil
 * disables the database source.
 */

// Origins of a catalog entry.
const (
	OriginBuiltin   = "builtin"
	OriginDirectory = "dir"
	OriginDatabase  = "db"
)

// Entry describes one listable rule set.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Origin      string `json:"origin"`
	LoadError   string `json:"load_error,omitempty"`
}

// Loaded is a resolved rule set with its provenance.
type Loaded struct {
	RuleSet  *types.RuleSet
	Origin   string
	Source   []byte
	Warnings []string
}

// Store runs named queries against the database. *db.Queries satisfies
// it; nil disables the database source.
type Store interface {
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Select(ctx context.Context, name string, dest interface{}, args ...interface{}) error
}

// Catalog resolves rule sets from the built-in dictionary, an optional
// directory, and an optional database store.
type Catalog struct {
	dir   string
	store Store
}

// New creates a catalog. dir and store are both optional; with neither,
// only the built-in dictionary is available.
func New(dir string, store Store) *Catalog {
	return &Catalog{dir: dir, store: store}
}

type storedRuleSetRow struct {
	Name        string `db:"name"`
	Description string `db:"description"`
	Version     string `db:"version"`
	Source      string `db:"source"`
}

// List returns every known rule set, lower-precedence origins shadowed by
// name. Entries whose documents fail to parse carry a load error note.
// The list is sorted by name.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	byName := make(map[string]Entry)

	add := func(e Entry) { byName[e.Name] = e }

	add(c.builtinEntry())

	if c.dir != "" {
		files, err := filepath.Glob(filepath.Join(c.dir, "*_rules.yaml"))
		if err != nil {
			return nil, fmt.Errorf("scanning rule-set directory: %w", err)
		}
		for _, file := range files {
			add(c.dirEntry(file))
		}
	}

	if c.store != nil {
		var saved []storedRuleSetRow
		if err := c.store.Select(ctx, "list-rulesets", &saved); err != nil {
			return nil, fmt.Errorf("listing saved rule sets: %w", err)
		}
		for _, row := range saved {
			entry := Entry{
				Name:        row.Name,
				Description: row.Description,
				Version:     row.Version,
				Origin:      OriginDatabase,
			}
			if _, _, err := rules.ParseRuleSet([]byte(row.Source)); err != nil {
				entry.LoadError = err.Error()
			}
			add(entry)
		}
	}

	entries := make([]Entry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Load resolves name against the sources in precedence order. Returns
// types.ErrRuleSetNotFound when no source knows the name.
func (c *Catalog) Load(ctx context.Context, name string) (*Loaded, error) {
	if c.store != nil {
		var row storedRuleSetRow
		err := c.store.Get(ctx, "get-ruleset-by-name", &row, name)
		switch {
		case err == nil:
			return parseLoaded([]byte(row.Source), OriginDatabase)
		case errors.Is(err, sql.ErrNoRows):
			// fall through to directory and built-in
		default:
			return nil, fmt.Errorf("loading saved rule set %q: %w", name, err)
		}
	}

	if c.dir != "" {
		files, err := filepath.Glob(filepath.Join(c.dir, "*_rules.yaml"))
		if err != nil {
			return nil, fmt.Errorf("scanning rule-set directory: %w", err)
		}
		for _, file := range files {
			src, err := os.ReadFile(file)
			if err != nil {
				continue
			}
			rs, _, err := rules.ParseRuleSet(src)
			if err != nil || rs.Name != name {
				continue
			}
			return parseLoaded(src, OriginDirectory)
		}
	}

	if name == BuiltinName {
		return parseLoaded(builtinSource, OriginBuiltin)
	}
	return nil, fmt.Errorf("rule set %q: %w", name, types.ErrRuleSetNotFound)
}

// LoadDefault resolves the built-in dictionary through the normal
// precedence chain, so a saved override with the same name wins.
func (c *Catalog) LoadDefault(ctx context.Context) (*Loaded, error) {
	return c.Load(ctx, BuiltinName)
}

func parseLoaded(src []byte, origin string) (*Loaded, error) {
	rs, warnings, err := rules.ParseRuleSet(src)
	if err != nil {
		return nil, err
	}
	return &Loaded{RuleSet: rs, Origin: origin, Source: src, Warnings: warnings}, nil
}

func (c *Catalog) builtinEntry() Entry {
	rs, _, err := rules.ParseRuleSet(builtinSource)
	if err != nil {
		return Entry{Name: BuiltinName, Origin: OriginBuiltin, LoadError: err.Error()}
	}
	return Entry{
		Name:        rs.Name,
		Description: rs.Description,
		Version:     rs.Version,
		Origin:      OriginBuiltin,
	}
}

func (c *Catalog) dirEntry(file string) Entry {
	stem := filepath.Base(file)
	src, err := os.ReadFile(file)
	if err != nil {
		return Entry{Name: stem, Origin: OriginDirectory, LoadError: err.Error()}
	}
	rs, _, err := rules.ParseRuleSet(src)
	if err != nil {
		return Entry{Name: stem, Origin: OriginDirectory, LoadError: err.Error()}
	}
	return Entry{
		Name:        rs.Name,
		Description: rs.Description,
		Version:     rs.Version,
		Origin:      OriginDirectory,
	}
}
