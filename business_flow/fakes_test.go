package businessflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/repository"
)

// memStore backs the in-memory repositories used by flow tests
type memStore struct {
	mu           sync.Mutex
	nextID       uint
	plans        []*models.Plan
	members      []*models.PlanMember
	suggestions  []*models.SuggestedDestination
	destinations []*models.Destination
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return fn(ctx)
}

func (t *fakeTx) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// fakePlanRepo implements repository.PlanRepository
type fakePlanRepo struct {
	s *memStore
	// beforeMark runs inside MarkSuggestionsMaterialized before the conditional check
	beforeMark func()
	errByCode  error
}

var _ repository.PlanRepository = (*fakePlanRepo)(nil)

func (r *fakePlanRepo) ByID(ctx context.Context, id uint) (*models.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.plans {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) ByFilter(ctx context.Context, filter models.PlanFilter, orderBy string, limit, offset int) ([]*models.Plan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Plan
	for _, p := range r.s.plans {
		if filter.ID != nil && p.ID != *filter.ID {
			continue
		}
		if filter.Code != nil && p.Code != *filter.Code {
			continue
		}
		if filter.CreatorEmail != nil && p.CreatorEmail != *filter.CreatorEmail {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePlanRepo) Save(ctx context.Context, plan *models.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.plans {
		if p.Code == plan.Code {
			return errors.New("duplicate plan code")
		}
	}
	plan.ID = r.s.id()
	plan.CreatedAt = time.Now().UTC()
	cp := *plan
	r.s.plans = append(r.s.plans, &cp)
	return nil
}

func (r *fakePlanRepo) SaveBatch(ctx context.Context, plans []*models.Plan) error {
	for _, p := range plans {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakePlanRepo) Count(ctx context.Context, filter models.PlanFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakePlanRepo) Exists(ctx context.Context, filter models.PlanFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakePlanRepo) ByCode(ctx context.Context, code string) (*models.Plan, error) {
	if r.errByCode != nil {
		return nil, r.errByCode
	}
	rows, _ := r.ByFilter(ctx, models.PlanFilter{Code: &code}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakePlanRepo) ListByMemberEmail(ctx context.Context, email string) ([]*models.Plan, error) {
	r.s.mu.Lock()
	ids := map[uint]bool{}
	for _, m := range r.s.members {
		if m.Email == email {
			ids[m.PlanID] = true
		}
	}
	r.s.mu.Unlock()

	all, _ := r.ByFilter(ctx, models.PlanFilter{}, "", 0, 0)
	var out []*models.Plan
	for _, p := range all {
		if ids[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) MarkSuggestionsMaterialized(ctx context.Context, planID uint, at time.Time) (bool, error) {
	if r.beforeMark != nil {
		r.beforeMark()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.plans {
		if p.ID == planID {
			if p.SuggestionsMaterializedAt != nil {
				return false, nil
			}
			t := at
			p.SuggestionsMaterializedAt = &t
			return true, nil
		}
	}
	return false, nil
}

// fakeMemberRepo implements repository.PlanMemberRepository
type fakeMemberRepo struct {
	s *memStore
}

var _ repository.PlanMemberRepository = (*fakeMemberRepo)(nil)

func (r *fakeMemberRepo) ByID(ctx context.Context, id uint) (*models.PlanMember, error) {
	rows, _ := r.ByFilter(ctx, models.PlanMemberFilter{ID: &id}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeMemberRepo) ByFilter(ctx context.Context, filter models.PlanMemberFilter, orderBy string, limit, offset int) ([]*models.PlanMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PlanMember
	for _, m := range r.s.members {
		if filter.ID != nil && m.ID != *filter.ID {
			continue
		}
		if filter.PlanID != nil && m.PlanID != *filter.PlanID {
			continue
		}
		if filter.Email != nil && m.Email != *filter.Email {
			continue
		}
		if filter.HasCompletedQuiz != nil && m.HasCompletedQuiz != *filter.HasCompletedQuiz {
			continue
		}
		if filter.HasVoted != nil && m.HasVoted != *filter.HasVoted {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMemberRepo) Save(ctx context.Context, member *models.PlanMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if m.PlanID == member.PlanID && m.Email == member.Email {
			return errors.New("duplicate plan member")
		}
	}
	member.ID = r.s.id()
	cp := *member
	r.s.members = append(r.s.members, &cp)
	return nil
}

func (r *fakeMemberRepo) SaveBatch(ctx context.Context, members []*models.PlanMember) error {
	for _, m := range members {
		if err := r.Save(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMemberRepo) Count(ctx context.Context, filter models.PlanMemberFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeMemberRepo) Exists(ctx context.Context, filter models.PlanMemberFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeMemberRepo) ByPlanAndEmail(ctx context.Context, planID uint, email string) (*models.PlanMember, error) {
	rows, _ := r.ByFilter(ctx, models.PlanMemberFilter{PlanID: &planID, Email: &email}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeMemberRepo) ListByPlan(ctx context.Context, planID uint) ([]*models.PlanMember, error) {
	return r.ByFilter(ctx, models.PlanMemberFilter{PlanID: &planID}, "", 0, 0)
}

func (r *fakeMemberRepo) CountByPlan(ctx context.Context, planID uint) (int64, error) {
	return r.Count(ctx, models.PlanMemberFilter{PlanID: &planID})
}

func (r *fakeMemberRepo) UpdatePreferences(ctx context.Context, memberID uint, update repository.PreferenceUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if m.ID == memberID {
			summary := update.Summary
			m.PreferenceSummary = &summary
			m.TasteVector = update.TasteVector
			m.TopDestinationCodes = update.TopDestinationCodes
			m.HasCompletedQuiz = true
			if update.HomeAirportCode != nil {
				home := *update.HomeAirportCode
				m.HomeAirportCode = &home
			}
			return nil
		}
	}
	return nil
}

func (r *fakeMemberRepo) MarkVoted(ctx context.Context, planID uint, email string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.members {
		if m.PlanID == planID && m.Email == email {
			m.HasVoted = true
			n++
		}
	}
	return n, nil
}

// fakeSuggestionRepo implements repository.SuggestedDestinationRepository
type fakeSuggestionRepo struct {
	s *memStore
	// saveBatchCalls counts SaveBatch invocations
	saveBatchCalls int
}

var _ repository.SuggestedDestinationRepository = (*fakeSuggestionRepo)(nil)

func (r *fakeSuggestionRepo) ByID(ctx context.Context, id uint) (*models.SuggestedDestination, error) {
	rows, _ := r.ByFilter(ctx, models.SuggestedDestinationFilter{ID: &id}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeSuggestionRepo) ByFilter(ctx context.Context, filter models.SuggestedDestinationFilter, orderBy string, limit, offset int) ([]*models.SuggestedDestination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.SuggestedDestination
	for _, s := range r.s.suggestions {
		if filter.ID != nil && s.ID != *filter.ID {
			continue
		}
		if filter.PlanID != nil && s.PlanID != *filter.PlanID {
			continue
		}
		if filter.AirportCode != nil && s.AirportCode != *filter.AirportCode {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeSuggestionRepo) Save(ctx context.Context, s *models.SuggestedDestination) error {
	return r.SaveBatch(ctx, []*models.SuggestedDestination{s})
}

func (r *fakeSuggestionRepo) SaveBatch(ctx context.Context, rows []*models.SuggestedDestination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.saveBatchCalls++
	for _, row := range rows {
		for _, existing := range r.s.suggestions {
			if existing.PlanID == row.PlanID && existing.AirportCode == row.AirportCode {
				return errors.New("duplicate plan suggestion")
			}
		}
	}
	for _, row := range rows {
		row.ID = r.s.id()
		cp := *row
		r.s.suggestions = append(r.s.suggestions, &cp)
	}
	return nil
}

func (r *fakeSuggestionRepo) Count(ctx context.Context, filter models.SuggestedDestinationFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeSuggestionRepo) Exists(ctx context.Context, filter models.SuggestedDestinationFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeSuggestionRepo) ListByPlan(ctx context.Context, planID uint) ([]*models.SuggestedDestination, error) {
	return r.ByFilter(ctx, models.SuggestedDestinationFilter{PlanID: &planID}, "", 0, 0)
}

func (r *fakeSuggestionRepo) IncrementLikes(ctx context.Context, planID uint, airportCode string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, s := range r.s.suggestions {
		if s.PlanID == planID && s.AirportCode == airportCode {
			s.Likes++
			n++
		}
	}
	return n, nil
}

// fakeDestinationRepo implements repository.DestinationRepository
type fakeDestinationRepo struct {
	s *memStore
}

var _ repository.DestinationRepository = (*fakeDestinationRepo)(nil)

func (r *fakeDestinationRepo) ByID(ctx context.Context, id uint) (*models.Destination, error) {
	rows, _ := r.ByFilter(ctx, models.DestinationFilter{ID: &id}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeDestinationRepo) ByFilter(ctx context.Context, filter models.DestinationFilter, orderBy string, limit, offset int) ([]*models.Destination, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Destination
	for _, d := range r.s.destinations {
		if filter.ID != nil && d.ID != *filter.ID {
			continue
		}
		if filter.AirportCode != nil && d.AirportCode != *filter.AirportCode {
			continue
		}
		if filter.Country != nil && !strings.EqualFold(d.Country, *filter.Country) {
			continue
		}
		if filter.HasEmbedding != nil && d.HasEmbedding() != *filter.HasEmbedding {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDestinationRepo) Save(ctx context.Context, d *models.Destination) error {
	return r.SaveBatch(ctx, []*models.Destination{d})
}

func (r *fakeDestinationRepo) SaveBatch(ctx context.Context, rows []*models.Destination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range rows {
		row.ID = r.s.id()
		cp := *row
		r.s.destinations = append(r.s.destinations, &cp)
	}
	return nil
}

func (r *fakeDestinationRepo) Count(ctx context.Context, filter models.DestinationFilter) (int64, error) {
	rows, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), nil
}

func (r *fakeDestinationRepo) Exists(ctx context.Context, filter models.DestinationFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeDestinationRepo) ByAirportCode(ctx context.Context, code string) (*models.Destination, error) {
	rows, _ := r.ByFilter(ctx, models.DestinationFilter{AirportCode: &code}, "", 0, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeDestinationRepo) ListAll(ctx context.Context) ([]*models.Destination, error) {
	return r.ByFilter(ctx, models.DestinationFilter{}, "", 0, 0)
}

func (r *fakeDestinationRepo) UpdateEmbedding(ctx context.Context, id uint, description string, embedding []float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.destinations {
		if d.ID == id {
			d.Description = description
			d.Embedding = embedding
		}
	}
	return nil
}

func (r *fakeDestinationRepo) IncrementLikes(ctx context.Context, code string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, d := range r.s.destinations {
		if d.AirportCode == code {
			d.Likes++
			n++
		}
	}
	return n, nil
}

// fixture wires every fake around one store
type fixture struct {
	store        *memStore
	tx           *fakeTx
	plans        *fakePlanRepo
	members      *fakeMemberRepo
	suggestions  *fakeSuggestionRepo
	destinations *fakeDestinationRepo
}

func newFixture() *fixture {
	s := newMemStore()
	return &fixture{
		store:        s,
		tx:           &fakeTx{},
		plans:        &fakePlanRepo{s: s},
		members:      &fakeMemberRepo{s: s},
		suggestions:  &fakeSuggestionRepo{s: s},
		destinations: &fakeDestinationRepo{s: s},
	}
}

// addPlan stores a plan for a trip in June
func (f *fixture) addPlan(code string) *models.Plan {
	p := &models.Plan{
		Code:         code,
		Name:         "Trip " + code,
		CreatorEmail: "alice@example.com",
		StartDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
	}
	_ = f.plans.Save(context.Background(), p)
	return p
}

// addMember stores a member; a non-nil ranking marks the quiz completed
func (f *fixture) addMember(planID uint, email string, joinedAt time.Time, ranking []string) *models.PlanMember {
	m := &models.PlanMember{
		PlanID:              planID,
		Email:               email,
		Name:                strings.Split(email, "@")[0],
		JoinedAt:            joinedAt,
		HasCompletedQuiz:    ranking != nil,
		TopDestinationCodes: ranking,
	}
	_ = f.members.Save(context.Background(), m)
	return m
}

func (f *fixture) addDestination(code, city, country string, embedding []float64) *models.Destination {
	d := &models.Destination{AirportCode: code, City: city, Country: country, Description: city + " in " + country, Embedding: embedding}
	_ = f.destinations.Save(context.Background(), d)
	return d
}

func (f *fixture) catalog() *Catalog {
	c, _ := LoadCatalog(context.Background(), f.destinations)
	return c
}

func (f *fixture) destinationLikes(code string) int64 {
	d, _ := f.destinations.ByAirportCode(context.Background(), code)
	if d == nil {
		return -1
	}
	return d.Likes
}

func repositoryUpdate(codes []string) repository.PreferenceUpdate {
	return repository.PreferenceUpdate{Summary: "updated", TasteVector: []float64{1}, TopDestinationCodes: codes}
}

func (f *fixture) member(planCode, email string) *models.PlanMember {
	ctx := context.Background()
	plan, _ := f.plans.ByCode(ctx, planCode)
	if plan == nil {
		return nil
	}
	m, _ := f.members.ByPlanAndEmail(ctx, plan.ID, email)
	return m
}
