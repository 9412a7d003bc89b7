package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the clinic's reference data, loaded from a YAML file at startup
// and upserted into the specialty and location tables.
type CatalogEntry struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type Catalog struct {
	Specialties []CatalogEntry `yaml:"specialties" json:"specialties"`
	Locations   []CatalogEntry `yaml:"locations" json:"locations"`
}

func LoadCatalog(path string) (Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalog(content)
}

func ParseCatalog(content []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	for i, entry := range catalog.Specialties {
		if entry.Name == "" {
			return Catalog{}, fmt.Errorf("specialty %d has no name", i)
		}
	}
	for i, entry := range catalog.Locations {
		if entry.Name == "" {
			return Catalog{}, fmt.Errorf("location %d has no name", i)
		}
	}
	return catalog, nil
}

// SeedCatalog upserts the catalog entries. Existing rows keep their IDs so
// doctor and appointment references stay valid across restarts.
func (s *Service) SeedCatalog(ctx context.Context, catalog Catalog) error {
	for _, entry := range catalog.Specialties {
		if err := s.repo.UpsertSpecialty(ctx, entry.Name, entry.Description); err != nil {
			return fmt.Errorf("seed specialty %q: %w", entry.Name, err)
		}
	}
	for _, entry := range catalog.Locations {
		if err := s.repo.UpsertLocation(ctx, entry.Name, entry.Description); err != nil {
			return fmt.Errorf("seed location %q: %w", entry.Name, err)
		}
	}
	return nil
}
