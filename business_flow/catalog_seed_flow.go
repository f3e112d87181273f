package businessflow

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
	"github.com/goccy/go-json"
)

//go:embed data/destinations.json
var defaultDestinations []byte

type seedDestination struct {
	AirportCode string `json:"airport_code"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Description string `json:"description"`
}

// CatalogSeeder fills an empty catalog and backfills missing embeddings
type CatalogSeeder interface {
	Seed(ctx context.Context) (int, error)
	BackfillEmbeddings(ctx context.Context) (int, error)
}

type CatalogSeederImpl struct {
	destinationRepo repository.DestinationRepository
	embedder        services.EmbeddingProvider
	seedFile        string
}

// NewCatalogSeeder creates a seeder. An empty seedFile uses the built-in data set.
func NewCatalogSeeder(destinationRepo repository.DestinationRepository, embedder services.EmbeddingProvider, seedFile string) CatalogSeeder {
	return &CatalogSeederImpl{
		destinationRepo: destinationRepo,
		embedder:        embedder,
		seedFile:        seedFile,
	}
}

// Seed inserts the data set when the catalog is empty and returns the number of rows inserted
func (s *CatalogSeederImpl) Seed(ctx context.Context) (int, error) {
	count, err := s.destinationRepo.Count(ctx, models.DestinationFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to count destinations: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	raw := defaultDestinations
	if s.seedFile != "" {
		raw, err = os.ReadFile(s.seedFile)
		if err != nil {
			return 0, fmt.Errorf("failed to read seed file %s: %w", s.seedFile, err)
		}
	}

	rows, err := parseSeedDestinations(raw)
	if err != nil {
		return 0, err
	}
	if err := s.destinationRepo.SaveBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to seed destinations: %w", err)
	}

	logging.Ctx(ctx).Info().Int("count", len(rows)).Msg("Seeded destination catalog")
	return len(rows), nil
}

func parseSeedDestinations(raw []byte) ([]*models.Destination, error) {
	var seeds []seedDestination
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse destination seed data: %w", err)
	}

	seen := make(map[string]struct{}, len(seeds))
	rows := make([]*models.Destination, 0, len(seeds))
	for _, sd := range seeds {
		code := utils.NormalizeAirportCode(sd.AirportCode)
		if len(code) != 3 || sd.City == "" || sd.Country == "" {
			return nil, fmt.Errorf("invalid seed destination %q", sd.AirportCode)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("duplicate seed destination %q", code)
		}
		seen[code] = struct{}{}
		rows = append(rows, &models.Destination{
			AirportCode: code,
			City:        sd.City,
			Country:     sd.Country,
			Description: sd.Description,
		})
	}
	return rows, nil
}

// BackfillEmbeddings embeds every destination that has none yet.
// Destinations without a description are described by the provider first.
// Individual failures are logged and skipped; the count of filled rows is returned.
func (s *CatalogSeederImpl) BackfillEmbeddings(ctx context.Context) (int, error) {
	missing := false
	rows, err := s.destinationRepo.ByFilter(ctx, models.DestinationFilter{HasEmbedding: &missing}, "id ASC", 0, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list destinations without embeddings: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	log := logging.Ctx(ctx)
	filled := 0
	for _, d := range rows {
		if err := ctx.Err(); err != nil {
			return filled, err
		}

		description := d.Description
		if description == "" {
			description, err = s.embedder.DescribeDestination(ctx, d.City, d.Country)
			if err != nil {
				if errors.Is(err, services.ErrProviderNotConfigured) {
					log.Warn().Msg("Embedding provider not configured; skipping catalog backfill")
					return filled, nil
				}
				log.Error().Err(err).Str("airport_code", d.AirportCode).Msg("Failed to describe destination")
				continue
			}
		}

		embedding, err := s.embedder.Embed(ctx, description)
		if err != nil {
			if errors.Is(err, services.ErrProviderNotConfigured) {
				log.Warn().Msg("Embedding provider not configured; skipping catalog backfill")
				return filled, nil
			}
			log.Error().Err(err).Str("airport_code", d.AirportCode).Msg("Failed to embed destination")
			continue
		}

		if err := s.destinationRepo.UpdateEmbedding(ctx, d.ID, description, embedding); err != nil {
			return filled, fmt.Errorf("failed to store embedding for %s: %w", d.AirportCode, err)
		}
		filled++
	}

	log.Info().Int("filled", filled).Int("pending", len(rows)).Msg("Catalog embedding backfill finished")
	return filled, nil
}
