package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/recommender"
	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// OutcomeKind tells a materialization result apart
type OutcomeKind int

const (
	// NoConsensusYet means members share no destination; nothing was written
	NoConsensusYet OutcomeKind = iota
	// SuggestionsReady means Outcome.Suggestions holds the frozen list
	SuggestionsReady
)

// Outcome is the result of Materialize
type Outcome struct {
	Kind        OutcomeKind
	Suggestions []models.SuggestedDestination
}

func noConsensus() Outcome {
	return Outcome{Kind: NoConsensusYet}
}

func outcomeReady(rows []models.SuggestedDestination) Outcome {
	return Outcome{Kind: SuggestionsReady, Suggestions: rows}
}

// errMaterializationLost reports that a concurrent request froze the list first
var errMaterializationLost = errors.New("suggestions already materialized")

// SuggestionMaterializer freezes a plan's consensus list the first time it is read
type SuggestionMaterializer interface {
	Materialize(ctx context.Context, plan *models.Plan) (Outcome, error)
}

// SuggestionMaterializerImpl persists the consensus behind a conditional plan update
type SuggestionMaterializerImpl struct {
	planRepo       repository.PlanRepository
	memberRepo     repository.PlanMemberRepository
	suggestionRepo repository.SuggestedDestinationRepository
	tx             repository.Transactor
	catalog        *Catalog
	photos         services.PhotoProvider
	locker         suggestionLocker
	recCfg         *config.RecommendationConfig
}

// NewSuggestionMaterializer creates a materializer. rc may be nil, in which case
// first readers are serialized within this process only.
func NewSuggestionMaterializer(
	planRepo repository.PlanRepository,
	memberRepo repository.PlanMemberRepository,
	suggestionRepo repository.SuggestedDestinationRepository,
	tx repository.Transactor,
	catalog *Catalog,
	photos services.PhotoProvider,
	rc *redis.Client,
	cacheCfg *config.CacheConfig,
	recCfg *config.RecommendationConfig,
) SuggestionMaterializer {
	return &SuggestionMaterializerImpl{
		planRepo:       planRepo,
		memberRepo:     memberRepo,
		suggestionRepo: suggestionRepo,
		tx:             tx,
		catalog:        catalog,
		photos:         photos,
		locker:         newSuggestionLocker(rc, cacheCfg),
		recCfg:         recCfg,
	}
}

// Materialize returns the plan's frozen list, computing and persisting it if this is the first time
func (m *SuggestionMaterializerImpl) Materialize(ctx context.Context, plan *models.Plan) (Outcome, error) {
	if plan.IsMaterialized() {
		materializationsTotal.WithLabelValues("existing").Inc()
		return m.persisted(ctx, plan.ID)
	}

	release := m.locker.lock(ctx, plan.Code)
	defer release()

	// The previous lock holder may have finished while we waited
	current, err := m.planRepo.ByID(ctx, plan.ID)
	if err != nil {
		return Outcome{}, err
	}
	if current == nil {
		return Outcome{}, ErrPlanNotFound
	}
	if current.IsMaterialized() {
		*plan = *current
		materializationsTotal.WithLabelValues("existing").Inc()
		return m.persisted(ctx, plan.ID)
	}

	codes, err := m.consensus(ctx, plan.ID)
	if err != nil {
		return Outcome{}, err
	}
	rows := m.buildRows(ctx, plan, codes)
	if len(rows) == 0 {
		materializationsTotal.WithLabelValues("no_consensus").Inc()
		return noConsensus(), nil
	}

	now := utils.UTCNow()
	err = m.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		won, err := m.planRepo.MarkSuggestionsMaterialized(txCtx, plan.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return errMaterializationLost
		}
		return m.suggestionRepo.SaveBatch(txCtx, rows)
	})
	if errors.Is(err, errMaterializationLost) {
		materializationsTotal.WithLabelValues("lost_race").Inc()
		logging.Ctx(ctx).Info().Str("plan_code", plan.Code).Msg("Suggestions materialized concurrently")
		return m.persisted(ctx, plan.ID)
	}
	if err != nil {
		return Outcome{}, err
	}

	plan.SuggestionsMaterializedAt = &now
	materializationsTotal.WithLabelValues("created").Inc()
	logging.Ctx(ctx).Info().Str("plan_code", plan.Code).Int("suggestions", len(rows)).Msg("Suggestions materialized")
	return outcomeReady(derefSuggestions(rows)), nil
}

func (m *SuggestionMaterializerImpl) persisted(ctx context.Context, planID uint) (Outcome, error) {
	rows, err := m.suggestionRepo.ListByPlan(ctx, planID)
	if err != nil {
		return Outcome{}, err
	}
	return outcomeReady(derefSuggestions(rows)), nil
}

// consensus intersects the rankings of quiz-completed members in join order
func (m *SuggestionMaterializerImpl) consensus(ctx context.Context, planID uint) ([]string, error) {
	members, err := m.memberRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	lists := make([][]string, 0, len(members))
	for _, member := range members {
		if member.HasCompletedQuiz {
			lists = append(lists, []string(member.TopDestinationCodes))
		}
	}
	return recommender.Intersect(lists, m.consensusLimit()), nil
}

// buildRows resolves codes against the catalog and fetches one photo per destination
func (m *SuggestionMaterializerImpl) buildRows(ctx context.Context, plan *models.Plan, codes []string) []*models.SuggestedDestination {
	rows := make([]*models.SuggestedDestination, 0, len(codes))
	for _, code := range codes {
		entry, ok := m.catalog.ByCode(code)
		if !ok {
			logging.Ctx(ctx).Warn().Str("plan_code", plan.Code).Str("airport_code", code).Msg("Consensus code missing from catalog")
			continue
		}
		rows = append(rows, &models.SuggestedDestination{
			PlanID:      plan.ID,
			Position:    len(rows) + 1,
			AirportCode: entry.AirportCode,
			City:        entry.City,
			Country:     entry.Country,
			Description: entry.Description,
		})
	}

	var g errgroup.Group
	g.SetLimit(m.enrichmentConcurrency())
	for _, row := range rows {
		g.Go(func() error {
			row.PhotoURL = lookupPhoto(ctx, m.photos, m.providerTimeout(), row.City, row.Country)
			return nil
		})
	}
	_ = g.Wait()

	return rows
}

func (m *SuggestionMaterializerImpl) consensusLimit() int {
	if m.recCfg == nil || m.recCfg.ConsensusLimit <= 0 {
		return utils.ConsensusLimit
	}
	return m.recCfg.ConsensusLimit
}

func (m *SuggestionMaterializerImpl) enrichmentConcurrency() int {
	if m.recCfg == nil || m.recCfg.EnrichmentConcurrency <= 0 {
		return defaultEnrichmentConcurrency
	}
	return m.recCfg.EnrichmentConcurrency
}

func (m *SuggestionMaterializerImpl) providerTimeout() time.Duration {
	if m.recCfg == nil || m.recCfg.ProviderCallTimeout <= 0 {
		return defaultProviderCallTimeout
	}
	return m.recCfg.ProviderCallTimeout
}
