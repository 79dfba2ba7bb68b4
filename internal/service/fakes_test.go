package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// ============================================================================
// In-memory repositories
// ============================================================================

type memProgressRepo struct {
	mu        sync.Mutex
	rows      map[string]*model.UserProgress
	conflicts int // forced compare-and-set failures before updates succeed
	updates   int
	getErr    error
	updateErr error
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{rows: make(map[string]*model.UserProgress)}
}

func (m *memProgressRepo) put(p *model.UserProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.UserID] = p.Clone()
}

func (m *memProgressRepo) stored(userID string) *model.UserProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[userID].Clone()
}

func (m *memProgressRepo) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.rows[userID].Clone(), nil
}

func (m *memProgressRepo) Create(ctx context.Context, p *model.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.UserID]; ok {
		return database.ErrDuplicate
	}
	m.rows[p.UserID] = p.Clone()
	return nil
}

func (m *memProgressRepo) Update(ctx context.Context, p *model.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return database.ErrConflict
	}
	cur, ok := m.rows[p.UserID]
	if !ok {
		return database.ErrNotFound
	}
	if cur.Version != p.Version {
		return database.ErrConflict
	}
	p.Version++
	m.rows[p.UserID] = p.Clone()
	m.updates++
	return nil
}

func (m *memProgressRepo) GetMany(ctx context.Context, userIDs []string) (map[string]*model.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]*model.UserProgress, len(userIDs))
	for _, id := range userIDs {
		if p, ok := m.rows[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (m *memProgressRepo) ResetWindow(ctx context.Context, window model.XPWindow) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		switch window {
		case model.XPWindowDaily:
			p.DailyXP = 0
		case model.XPWindowWeekly:
			p.WeeklyXP = 0
		case model.XPWindowMonthly:
			p.MonthlyXP = 0
		case model.XPWindowYearly:
			p.YearlyXP = 0
		}
	}
	return len(m.rows), nil
}

type memActivityRepo struct {
	mu           sync.Mutex
	events       []*model.ActivityEvent
	achievements []*model.EarnedAchievement
	signals      map[string]*model.ActivitySignals
	windows      []model.TimeWindow
	err          error
}

func (m *memActivityRepo) CreateEvent(ctx context.Context, event *model.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memActivityRepo) CreateAchievement(ctx context.Context, a *model.EarnedAchievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.achievements = append(m.achievements, a)
	return nil
}

func (m *memActivityRepo) LoadSignals(ctx context.Context, userIDs []string, window model.TimeWindow) (map[string]*model.ActivitySignals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.windows = append(m.windows, window)
	out := make(map[string]*model.ActivitySignals)
	for _, id := range userIDs {
		if s, ok := m.signals[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type memLeaderboardRepo struct {
	mu         sync.Mutex
	boards     map[string]*model.Leaderboard
	entries    map[string][]*model.LeaderboardEntry
	replaceErr error
	replaced   int
}

func newMemLeaderboardRepo(boards ...*model.Leaderboard) *memLeaderboardRepo {
	m := &memLeaderboardRepo{
		boards:  make(map[string]*model.Leaderboard),
		entries: make(map[string][]*model.LeaderboardEntry),
	}
	for _, lb := range boards {
		m.boards[lb.ID] = lb
	}
	return m
}

func (m *memLeaderboardRepo) board(id string) model.Leaderboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.boards[id]
}

func (m *memLeaderboardRepo) GetByID(ctx context.Context, id string) (*model.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb, ok := m.boards[id]
	if !ok {
		return nil, nil
	}
	c := *lb
	return &c, nil
}

func (m *memLeaderboardRepo) ListActive(ctx context.Context) ([]*model.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Leaderboard
	for _, lb := range m.boards {
		if lb.IsActive {
			c := *lb
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLeaderboardRepo) GetEntries(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.entries[leaderboardID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]*model.LeaderboardEntry(nil), entries...), nil
}

func (m *memLeaderboardRepo) GetEntry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries[leaderboardID] {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memLeaderboardRepo) CountEntries(ctx context.Context, leaderboardID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[leaderboardID]), nil
}

func (m *memLeaderboardRepo) ReplaceSnapshot(ctx context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced++
	m.entries[snap.LeaderboardID] = snap.Entries
	if lb, ok := m.boards[snap.LeaderboardID]; ok {
		at := snap.ComputedOn
		lb.LastReset = &at
		if snap.NextReset != nil {
			lb.NextReset = snap.NextReset
		}
	}
	return nil
}

type memDirectory struct {
	users []model.EligibleUser
	err   error
}

func (m *memDirectory) ListEligible(ctx context.Context, lb *model.Leaderboard) ([]model.EligibleUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.EligibleUser
	for _, u := range m.users {
		switch lb.Type {
		case model.LeaderboardWorkspace:
			if !containsString(u.WorkspaceIDs, lb.ScopeID) {
				continue
			}
		case model.LeaderboardRegional:
			if u.Region != lb.ScopeID {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ============================================================================
// Collaborators
// ============================================================================

type grant struct {
	UserID string
	Kind   string
	Value  string
}

type fakeLedger struct {
	mu     sync.Mutex
	grants []grant
	failOn map[string]error // reward kind -> error
}

func (l *fakeLedger) record(userID, kind, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failOn[kind]; err != nil {
		return err
	}
	l.grants = append(l.grants, grant{UserID: userID, Kind: kind, Value: value})
	return nil
}

func (l *fakeLedger) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.grants))
	for i, g := range l.grants {
		out[i] = g.Kind + ":" + g.Value
	}
	return out
}

func (l *fakeLedger) GrantCredits(ctx context.Context, userID string, amount int64, reason string) error {
	return l.record(userID, "credits", reason)
}

func (l *fakeLedger) GrantBadge(ctx context.Context, userID, badgeID string) error {
	return l.record(userID, "badge", badgeID)
}

func (l *fakeLedger) ExtendPremium(ctx context.Context, userID string, days int) error {
	return l.record(userID, "premium_time", strconv.Itoa(days))
}

func (l *fakeLedger) RecordSpecializationUnlock(ctx context.Context, userID, track string) error {
	return l.record(userID, "specialization_unlock", track)
}

type fakeCache struct {
	mu         sync.Mutex
	published  map[string][]*model.LeaderboardEntry
	publishErr    error
	readErr       error
	invalidated   []string
	invalidateErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{published: make(map[string][]*model.LeaderboardEntry)}
}

func (c *fakeCache) Publish(ctx context.Context, leaderboardID string, entries []*model.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published[leaderboardID] = entries
	return nil
}

func (c *fakeCache) Top(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	entries, ok := c.published[leaderboardID]
	if !ok {
		return nil, false, nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, true, nil
}

func (c *fakeCache) Entry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	entries, ok := c.published[leaderboardID]
	if !ok {
		return nil, false, nil
	}
	for _, e := range entries {
		if e.UserID == userID {
			return e, true, nil
		}
	}
	return nil, true, nil
}

func (c *fakeCache) Count(ctx context.Context, leaderboardID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return 0, false, c.readErr
	}
	entries, ok := c.published[leaderboardID]
	return len(entries), ok, nil
}

func (c *fakeCache) Invalidate(ctx context.Context, leaderboardID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, leaderboardID)
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	delete(c.published, leaderboardID)
	return nil
}

var errLedgerDown = errors.New("ledger unavailable")

// ============================================================================
// Builders
// ============================================================================

var testNow = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC) // a Wednesday

func newTestProgressionService(repo *memProgressRepo, ledger RewardLedger, hub *EventHub, clock Clock) *ProgressionService {
	return NewProgressionService(ProgressionServiceConfig{
		Repo:    repo,
		Rewards: ledger,
		Events:  hub,
		Clock:   clock,
	})
}

func drain(sub *Subscriber) []*Event {
	var out []*Event
	for {
		select {
		case e := <-sub.Events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func eventTypes(events []*Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
