package allocation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/lead-engine/internal/domain"
)

// memPool is an in-memory PoolRepository whose TryClaim is atomic, so
// concurrent Allocate calls race exactly like they do against the
// SKIP LOCKED claim in postgres.
type memPool struct {
	mu      sync.Mutex
	entries map[string]*domain.PoolEntry
}

func newMemPool() *memPool {
	return &memPool{entries: make(map[string]*domain.PoolEntry)}
}

func (p *memPool) add(id, email string, confidence float64, createdAt time.Time) {
	p.entries[id] = &domain.PoolEntry{
		ID:          id,
		Email:       email,
		Confidence:  confidence,
		EmailStatus: domain.EmailVerified,
		PoolStatus:  domain.PoolAvailable,
		CreatedAt:   createdAt,
	}
}

func (p *memPool) FindCandidates(_ context.Context, c domain.AllocationCriteria, limit int) ([]domain.PoolEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []domain.PoolEntry
	for _, e := range p.entries {
		if e.PoolStatus != domain.PoolAvailable {
			continue
		}
		if c.Industry != nil && e.Industry != *c.Industry {
			continue
		}
		if c.Country != nil && e.Country != *c.Country {
			continue
		}
		if c.TitleContains != nil && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(*c.TitleContains)) {
			continue
		}
		if c.EmployeeMin != nil && e.EmployeeCount < *c.EmployeeMin {
			continue
		}
		if c.EmployeeMax != nil && e.EmployeeCount > *c.EmployeeMax {
			continue
		}
		out = append(out, *e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p *memPool) TryClaim(_ context.Context, poolID string) (ClaimResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[poolID]
	if !ok || e.PoolStatus != domain.PoolAvailable {
		return ClaimLost, nil
	}
	e.PoolStatus = domain.PoolAssigned
	return ClaimWon, nil
}

func (p *memPool) ReleaseToPool(_ context.Context, poolID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[poolID]
	if !ok {
		return fmt.Errorf("no entry %s", poolID)
	}
	if e.PoolStatus == domain.PoolAssigned {
		e.PoolStatus = domain.PoolAvailable
	}
	return nil
}

func (p *memPool) MarkConverted(_ context.Context, poolID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[poolID]
	if !ok {
		return fmt.Errorf("no entry %s", poolID)
	}
	e.PoolStatus = domain.PoolConverted
	return nil
}

type memAssignments struct {
	mu    sync.Mutex
	byID  map[string]*domain.Assignment
}

func newMemAssignments() *memAssignments {
	return &memAssignments{byID: make(map[string]*domain.Assignment)}
}

func (r *memAssignments) Create(_ context.Context, a *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *memAssignments) GetByID(_ context.Context, id string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAssignments) GetActive(_ context.Context, poolID, tenantID string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.PoolEntryID == poolID && a.TenantID == tenantID && a.Status == domain.AssignmentActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memAssignments) ListActiveByTenant(_ context.Context, tenantID string) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.byID {
		if a.TenantID == tenantID && a.Status == domain.AssignmentActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAssignments) UpdateStatus(_ context.Context, id string, status domain.AssignmentStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.ReleaseReason = reason
	return nil
}

func (r *memAssignments) RecordTouch(_ context.Context, id string, channel domain.Channel, contactedAt, coolingUntil time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.TotalTouches++
	a.ChannelsUsed = append(a.ChannelsUsed, channel)
	a.LastContactedAt = &contactedAt
	a.CoolingUntil = &coolingUntil
	return nil
}

func (r *memAssignments) RecordReply(_ context.Context, id string, intent domain.ReplyIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.HasReplied = true
	a.ReplyIntent = intent
	return nil
}

func newTestService(pool *memPool, assignments *memAssignments) *Service {
	return NewService(pool, assignments, 8, 3)
}

func TestAllocate_CountOutOfRange(t *testing.T) {
	svc := newTestService(newMemPool(), newMemAssignments())
	ctx := context.Background()

	for _, count := range []int{0, -1, 1001} {
		_, err := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, count)
		if err == nil {
			t.Errorf("count=%d: expected range error", count)
		}
	}
}

func TestAllocate_PartialResultIsNotError(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "a@example.com", 0.9, time.Now())
	pool.add("p2", "b@example.com", 0.8, time.Now())
	svc := newTestService(pool, newMemAssignments())

	got, err := svc.Allocate(context.Background(), "tenant-1", domain.AllocationCriteria{}, 10)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("allocated %d, want 2 (partial fill)", len(got))
	}
}

func TestAllocate_RanksByConfidenceThenAge(t *testing.T) {
	pool := newMemPool()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pool.add("low", "low@example.com", 0.5, base)
	pool.add("high", "high@example.com", 0.9, base.Add(time.Hour))
	pool.add("tie-old", "tieold@example.com", 0.7, base)
	pool.add("tie-new", "tienew@example.com", 0.7, base.Add(time.Hour))
	svc := newTestService(pool, newMemAssignments())

	got, err := svc.Allocate(context.Background(), "tenant-1", domain.AllocationCriteria{}, 3)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("allocated %d, want 3", len(got))
	}
	if got[0].PoolEntryID != "high" {
		t.Errorf("first claim = %s, want high", got[0].PoolEntryID)
	}
	if got[1].PoolEntryID != "tie-old" {
		t.Errorf("second claim = %s, want tie-old (oldest wins the tie)", got[1].PoolEntryID)
	}
}

func TestAllocate_FiltersOnCriteria(t *testing.T) {
	pool := newMemPool()
	now := time.Now()
	pool.add("p1", "fit@example.com", 0.9, now)
	pool.entries["p1"].Industry = "SaaS"
	pool.entries["p1"].Country = "US"
	pool.entries["p1"].Title = "VP of Sales"
	pool.entries["p1"].EmployeeCount = 200

	pool.add("p2", "wrongind@example.com", 0.9, now)
	pool.entries["p2"].Industry = "Retail"
	pool.entries["p2"].Country = "US"

	pool.add("p3", "toobig@example.com", 0.9, now)
	pool.entries["p3"].Industry = "SaaS"
	pool.entries["p3"].Country = "US"
	pool.entries["p3"].EmployeeCount = 9000

	industry, country, title := "SaaS", "US", "sales"
	min, max := 50, 1000
	criteria := domain.AllocationCriteria{
		Industry:      &industry,
		Country:       &country,
		TitleContains: &title,
		EmployeeMin:   &min,
		EmployeeMax:   &max,
	}

	svc := newTestService(pool, newMemAssignments())
	got, err := svc.Allocate(context.Background(), "tenant-1", criteria, 10)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(got) != 1 || got[0].PoolEntryID != "p1" {
		t.Errorf("got %d assignments, want exactly p1", len(got))
	}
}

// TestAllocate_ExclusivityUnderConcurrency asserts the core invariant:
// N concurrent allocation runs over an overlapping candidate set never
// produce two active assignments for the same pool entry.
func TestAllocate_ExclusivityUnderConcurrency(t *testing.T) {
	pool := newMemPool()
	now := time.Now()
	for i := 0; i < 50; i++ {
		pool.add(fmt.Sprintf("p%02d", i), fmt.Sprintf("lead%02d@example.com", i), 0.5, now)
	}
	assignments := newMemAssignments()
	svc := newTestService(pool, assignments)

	const workers = 8
	var wg sync.WaitGroup
	results := make([][]domain.Assignment, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			got, err := svc.Allocate(context.Background(), fmt.Sprintf("tenant-%d", w), domain.AllocationCriteria{}, 10)
			if err != nil {
				t.Errorf("worker %d: %v", w, err)
			}
			results[w] = got
		}(w)
	}
	wg.Wait()

	claimed := make(map[string]string)
	total := 0
	for w, got := range results {
		for _, a := range got {
			if prev, dup := claimed[a.PoolEntryID]; dup {
				t.Errorf("pool entry %s claimed by worker %d and %s", a.PoolEntryID, w, prev)
			}
			claimed[a.PoolEntryID] = fmt.Sprintf("%d", w)
			total++
		}
	}
	if total > 50 {
		t.Errorf("allocated %d assignments from a pool of 50", total)
	}
}

func TestRelease_ReturnsEntryToPool(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "cycle@example.com", 0.9, time.Now())
	svc := newTestService(pool, newMemAssignments())
	ctx := context.Background()

	got, err := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Allocate: %v (%d)", err, len(got))
	}

	if err := svc.Release(ctx, got[0].ID, "no_response"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if pool.entries["p1"].PoolStatus != domain.PoolAvailable {
		t.Errorf("pool_status = %s, want available after release", pool.entries["p1"].PoolStatus)
	}

	// The entry can now be claimed again.
	again, err := svc.Allocate(ctx, "tenant-2", domain.AllocationCriteria{}, 1)
	if err != nil || len(again) != 1 {
		t.Fatalf("re-Allocate: %v (%d)", err, len(again))
	}
	if again[0].PoolEntryID != "p1" {
		t.Errorf("re-claimed %s, want p1", again[0].PoolEntryID)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "idem@example.com", 0.9, time.Now())
	svc := newTestService(pool, newMemAssignments())
	ctx := context.Background()

	got, _ := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, 1)
	if err := svc.Release(ctx, got[0].ID, "r1"); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := svc.Release(ctx, got[0].ID, "r2"); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
}

func TestMarkConverted_NotReversibleByRelease(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "won@example.com", 0.9, time.Now())
	svc := newTestService(pool, newMemAssignments())
	ctx := context.Background()

	got, _ := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, 1)
	if err := svc.MarkConverted(ctx, got[0].ID); err != nil {
		t.Fatalf("MarkConverted: %v", err)
	}

	if err := svc.Release(ctx, got[0].ID, "oops"); err != ErrConverted {
		t.Errorf("Release after conversion: err = %v, want ErrConverted", err)
	}
	if pool.entries["p1"].PoolStatus != domain.PoolConverted {
		t.Errorf("pool_status = %s, want converted (never returns to pool)", pool.entries["p1"].PoolStatus)
	}
}

func TestReleaseAll_ReleasesEveryActiveAssignment(t *testing.T) {
	pool := newMemPool()
	now := time.Now()
	for i := 0; i < 5; i++ {
		pool.add(fmt.Sprintf("p%d", i), fmt.Sprintf("t%d@example.com", i), 0.5, now)
	}
	svc := newTestService(pool, newMemAssignments())
	ctx := context.Background()

	if _, err := svc.Allocate(ctx, "tenant-gone", domain.AllocationCriteria{}, 5); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	released, err := svc.ReleaseAll(ctx, "tenant-gone", "offboarding")
	if err != nil {
		t.Fatalf("ReleaseAll: %v", err)
	}
	if released != 5 {
		t.Errorf("released %d, want 5", released)
	}
	for id, e := range pool.entries {
		if e.PoolStatus != domain.PoolAvailable {
			t.Errorf("entry %s status = %s, want available", id, e.PoolStatus)
		}
	}
}

func TestRecordTouch_StampsCoolingPeriod(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "touch@example.com", 0.9, time.Now())
	assignments := newMemAssignments()
	svc := newTestService(pool, assignments)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ctx := context.Background()
	got, _ := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, 1)

	if err := svc.RecordTouch(ctx, got[0].ID, domain.ChannelEmail); err != nil {
		t.Fatalf("RecordTouch: %v", err)
	}

	a, _ := assignments.GetByID(ctx, got[0].ID)
	if a.TotalTouches != 1 {
		t.Errorf("total_touches = %d, want 1", a.TotalTouches)
	}
	if a.LastContactedAt == nil || !a.LastContactedAt.Equal(fixed) {
		t.Errorf("last_contacted_at = %v, want %v", a.LastContactedAt, fixed)
	}
	wantCooling := fixed.Add(3 * 24 * time.Hour)
	if a.CoolingUntil == nil || !a.CoolingUntil.Equal(wantCooling) {
		t.Errorf("cooling_until = %v, want %v", a.CoolingUntil, wantCooling)
	}
}

func TestRecordTouch_UnknownChannel(t *testing.T) {
	svc := newTestService(newMemPool(), newMemAssignments())

	err := svc.RecordTouch(context.Background(), "whatever", domain.Channel("pigeon"))
	if err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestRecordReply_SetsIntent(t *testing.T) {
	pool := newMemPool()
	pool.add("p1", "reply@example.com", 0.9, time.Now())
	assignments := newMemAssignments()
	svc := newTestService(pool, assignments)
	ctx := context.Background()

	got, _ := svc.Allocate(ctx, "tenant-1", domain.AllocationCriteria{}, 1)
	if err := svc.RecordReply(ctx, got[0].ID, domain.IntentNotInterested); err != nil {
		t.Fatalf("RecordReply: %v", err)
	}

	a, _ := assignments.GetByID(ctx, got[0].ID)
	if !a.HasReplied || a.ReplyIntent != domain.IntentNotInterested {
		t.Errorf("reply not recorded: %+v", a)
	}
	if !a.ReplyIntent.Negative() {
		t.Error("not_interested should classify as negative")
	}
}
