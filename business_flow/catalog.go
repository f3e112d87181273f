package businessflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/recommender"
	"github.com/amirphl/planeit/repository"
)

// Catalog is an immutable snapshot of the destination catalog, ordered by id.
// Likes are deliberately absent: they change at runtime and are read from the database.
type Catalog struct {
	entries []CatalogEntry
	byCode  map[string]int
	vectors []recommender.CatalogVector
}

// CatalogEntry is the read-only part of a destination
type CatalogEntry struct {
	ID          uint
	AirportCode string
	City        string
	Country     string
	Description string
}

// NewCatalog builds a snapshot from destinations
func NewCatalog(destinations []models.Destination) *Catalog {
	sorted := make([]models.Destination, len(destinations))
	copy(sorted, destinations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := &Catalog{
		entries: make([]CatalogEntry, 0, len(sorted)),
		byCode:  make(map[string]int, len(sorted)),
	}
	for _, d := range sorted {
		if _, dup := c.byCode[d.AirportCode]; dup {
			continue
		}
		c.byCode[d.AirportCode] = len(c.entries)
		c.entries = append(c.entries, CatalogEntry{
			ID:          d.ID,
			AirportCode: d.AirportCode,
			City:        d.City,
			Country:     d.Country,
			Description: d.Description,
		})
		if d.HasEmbedding() {
			emb := make([]float64, len(d.Embedding))
			copy(emb, d.Embedding)
			c.vectors = append(c.vectors, recommender.CatalogVector{AirportCode: d.AirportCode, Embedding: emb})
		}
	}
	return c
}

// LoadCatalog reads the whole catalog from the database
func LoadCatalog(ctx context.Context, repo repository.DestinationRepository) (*Catalog, error) {
	rows, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load destination catalog: %w", err)
	}
	destinations := make([]models.Destination, 0, len(rows))
	for _, r := range rows {
		destinations = append(destinations, *r)
	}
	return NewCatalog(destinations), nil
}

// ByCode looks up a destination by airport code
func (c *Catalog) ByCode(code string) (CatalogEntry, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Vectors returns the rankable destinations in catalog order.
// The slice is shared; callers must not modify it.
func (c *Catalog) Vectors() []recommender.CatalogVector {
	return c.vectors
}

// Len returns the number of destinations
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Ready reports whether at least one destination can be ranked
func (c *Catalog) Ready() bool {
	return len(c.vectors) > 0
}
