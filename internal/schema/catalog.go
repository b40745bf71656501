package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

var (
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrDuplicateSchema = errors.New("schema already registered")
)

// Catalog holds the known schema definitions. It is read-mostly process-wide
// configuration with a single mutating operation, Register.
type Catalog struct {
	mu   sync.RWMutex
	defs map[string]models.SchemaDefinition
}

func NewCatalog(defs ...models.SchemaDefinition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]models.SchemaDefinition, len(defs))}
	for _, def := range defs {
		if err := c.add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewCatalogFromFile loads schema definitions from a JSON file, replacing the
// built-in set.
func NewCatalogFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema config %s: %w", path, err)
	}
	var defs []models.SchemaDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse schema config %s: %w", path, err)
	}
	return NewCatalog(defs...)
}

func (c *Catalog) add(def models.SchemaDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("schema definition with empty name")
	}
	if len(def.ExpectedColumns) == 0 {
		return fmt.Errorf("schema %q has no expected columns", def.Name)
	}
	if _, exists := c.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, def.Name)
	}
	c.defs[def.Name] = def
	return nil
}

func (c *Catalog) Lookup(name string) (models.SchemaDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.defs[name]
	if !ok {
		return models.SchemaDefinition{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return def, nil
}

// All returns every known definition. Order is not significant; callers that
// need determinism sort by name.
func (c *Catalog) All() []models.SchemaDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.SchemaDefinition, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def)
	}
	return out
}

// Register publishes a new schema definition at runtime. Existing definitions
// are never replaced.
func (c *Catalog) Register(name string, expectedColumns []string, isAugmented bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.add(models.SchemaDefinition{
		Name:            name,
		ExpectedColumns: expectedColumns,
		IsAugmented:     isAugmented,
	})
}
