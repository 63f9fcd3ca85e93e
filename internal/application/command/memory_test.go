package command

// In-memory fakes backing the command handler tests. The unit of work is
// a passthrough: handlers are exercised for orchestration logic, not for
// transactional isolation, which belongs to the postgres layer tests.

import (
	"context"
	"sort"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/curriculum"
	"github.com/clube-hub/club-progress-hub/internal/domain/ledger"
	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/progress"
	"github.com/clube-hub/club-progress-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Members
// ─────────────────────────────────────────────────────────────────────────────

type memMembers struct {
	byID    map[string]*member.Member
	regions map[member.ClubID]string
}

func newMemMembers(members ...*member.Member) *memMembers {
	m := &memMembers{
		byID:    make(map[string]*member.Member),
		regions: make(map[member.ClubID]string),
	}
	for _, mm := range members {
		cp := *mm
		m.byID[mm.ID] = &cp
	}
	return m
}

func (r *memMembers) Create(_ context.Context, m *member.Member) error {
	if _, ok := r.byID[m.ID]; ok {
		return shared.ErrMemberAlreadyExists
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memMembers) GetByID(_ context.Context, id string) (*member.Member, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMembers) Update(_ context.Context, m *member.Member) error {
	if _, ok := r.byID[m.ID]; !ok {
		return shared.ErrMemberNotFound
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memMembers) GetByClub(_ context.Context, clubID member.ClubID, _ member.ListOptions) ([]*member.Member, error) {
	var out []*member.Member
	for _, m := range r.byID {
		if m.ClubID == clubID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMembers) GetByUnit(_ context.Context, clubID member.ClubID, unitID member.UnitID, _ member.ListOptions) ([]*member.Member, error) {
	var out []*member.Member
	for _, m := range r.byID {
		if m.ClubID == clubID && m.UnitID == unitID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMembers) GetByIDs(_ context.Context, ids []string) ([]*member.Member, error) {
	var out []*member.Member
	for _, id := range ids {
		if m, ok := r.byID[id]; ok {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMembers) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.byID[id]
	return ok, nil
}

func (r *memMembers) ClubRegion(_ context.Context, clubID member.ClubID) (string, error) {
	return r.regions[clubID], nil
}

func (r *memMembers) Count(_ context.Context, clubID member.ClubID) (int, error) {
	n := 0
	for _, m := range r.byID {
		if m.ClubID == clubID {
			n++
		}
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress
// ─────────────────────────────────────────────────────────────────────────────

type progressKey struct{ memberID, itemID string }

type memProgress struct {
	records map[progressKey]*progress.Record
}

func newMemProgress() *memProgress {
	return &memProgress{records: make(map[progressKey]*progress.Record)}
}

func (r *memProgress) Get(_ context.Context, memberID, itemID string) (*progress.Record, error) {
	rec, ok := r.records[progressKey{memberID, itemID}]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memProgress) GetForUpdate(ctx context.Context, memberID, itemID string) (*progress.Record, error) {
	return r.Get(ctx, memberID, itemID)
}

func (r *memProgress) Upsert(_ context.Context, rec *progress.Record) error {
	cp := *rec
	r.records[progressKey{rec.MemberID, rec.ItemID}] = &cp
	return nil
}

func (r *memProgress) GetByMemberAndItems(_ context.Context, memberID string, itemIDs []string) (map[string]*progress.Record, error) {
	out := make(map[string]*progress.Record)
	for _, itemID := range itemIDs {
		if rec, ok := r.records[progressKey{memberID, itemID}]; ok {
			cp := *rec
			out[itemID] = &cp
		}
	}
	return out, nil
}

func (r *memProgress) GetByMember(_ context.Context, memberID string) ([]*progress.Record, error) {
	var out []*progress.Record
	for k, rec := range r.records {
		if k.memberID == memberID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memProgress) Delete(_ context.Context, memberID, itemID string) error {
	delete(r.records, progressKey{memberID, itemID})
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Completions
// ─────────────────────────────────────────────────────────────────────────────

type memCompletions struct {
	byKey map[progressKey]*progress.Completion
}

func newMemCompletions() *memCompletions {
	return &memCompletions{byKey: make(map[progressKey]*progress.Completion)}
}

func (r *memCompletions) Get(_ context.Context, memberID, specialtyID string) (*progress.Completion, error) {
	c, ok := r.byKey[progressKey{memberID, specialtyID}]
	if !ok {
		return progress.NewCompletion(memberID, specialtyID), nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCompletions) Upsert(_ context.Context, c *progress.Completion) error {
	cp := *c
	r.byKey[progressKey{c.MemberID, c.SpecialtyID}] = &cp
	return nil
}

func (r *memCompletions) GetByMember(_ context.Context, memberID string) ([]*progress.Completion, error) {
	var out []*progress.Completion
	for k, c := range r.byKey {
		if k.memberID == memberID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ledger
// ─────────────────────────────────────────────────────────────────────────────

type memLedger struct {
	entries  []*ledger.Entry
	balances map[string]int
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]int)}
}

func (r *memLedger) Append(_ context.Context, e *ledger.Entry) (int, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	r.balances[e.MemberID] += e.Amount
	return r.balances[e.MemberID], nil
}

func (r *memLedger) Balance(_ context.Context, memberID string) (int, error) {
	return r.balances[memberID], nil
}

func (r *memLedger) SumEntries(_ context.Context, memberID string) (int, error) {
	total := 0
	for _, e := range r.entries {
		if e.MemberID == memberID {
			total += e.Amount
		}
	}
	return total, nil
}

func (r *memLedger) History(_ context.Context, memberID string, filter ledger.HistoryFilter) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.MemberID == memberID && filter.Matches(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLedger) SumInWindow(_ context.Context, memberID string, from, to time.Time) (int, error) {
	total := 0
	for _, e := range r.entries {
		if e.MemberID != memberID {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.CreatedAt.Before(to) {
			continue
		}
		total += e.Amount
	}
	return total, nil
}

func (r *memLedger) GetByReference(_ context.Context, memberID, referenceID string) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.MemberID == memberID && e.ReferenceID == referenceID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLedger) DeleteByReference(_ context.Context, memberID, referenceID string) (int, error) {
	removed := 0
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.MemberID == memberID && e.ReferenceID == referenceID {
			removed += e.Amount
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	r.balances[memberID] -= removed
	return removed, nil
}

func (r *memLedger) ResetBalance(_ context.Context, memberID string) error {
	r.balances[memberID] = 0
	return nil
}

func (r *memLedger) Recompute(ctx context.Context, memberID string) (int, int, error) {
	cached := r.balances[memberID]
	actual, _ := r.SumEntries(ctx, memberID)
	r.balances[memberID] = actual
	return cached, actual, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Audit
// ─────────────────────────────────────────────────────────────────────────────

type memAudit struct {
	actions []*ledger.AdminAction
}

func (r *memAudit) Record(_ context.Context, a *ledger.AdminAction) error {
	cp := *a
	r.actions = append(r.actions, &cp)
	return nil
}

func (r *memAudit) GetByActor(_ context.Context, actorID string, limit int) ([]*ledger.AdminAction, error) {
	var out []*ledger.AdminAction
	for i := len(r.actions) - 1; i >= 0; i-- {
		if r.actions[i].ActorID == actorID {
			cp := *r.actions[i]
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Curriculum
// ─────────────────────────────────────────────────────────────────────────────

type memCurriculum struct {
	items       map[string]*curriculum.Item
	specialties map[string]*curriculum.Specialty
}

func newMemCurriculum() *memCurriculum {
	return &memCurriculum{
		items:       make(map[string]*curriculum.Item),
		specialties: make(map[string]*curriculum.Specialty),
	}
}

func (r *memCurriculum) addItem(i *curriculum.Item)           { r.items[i.ID] = i }
func (r *memCurriculum) addSpecialty(s *curriculum.Specialty) { r.specialties[s.ID] = s }

func (r *memCurriculum) GetItem(_ context.Context, id string) (*curriculum.Item, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, shared.ErrItemNotFound
	}
	return i, nil
}

func (r *memCurriculum) GetVersions(_ context.Context, logicalID string) ([]*curriculum.Item, error) {
	var out []*curriculum.Item
	for _, i := range r.items {
		if i.LogicalID == logicalID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *memCurriculum) ResolveForMember(ctx context.Context, logicalID string, clubID member.ClubID, regionID string) (*curriculum.Item, error) {
	versions, err := r.GetVersions(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	return curriculum.ResolveEffective(versions, clubID, regionID)
}

func (r *memCurriculum) GetItemsByParent(_ context.Context, parentID string, clubID member.ClubID, regionID string) ([]*curriculum.Item, error) {
	var out []*curriculum.Item
	for _, i := range r.items {
		if i.ParentID == parentID && i.Active && i.VisibleTo(clubID, regionID) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *memCurriculum) GetSpecialty(_ context.Context, id string) (*curriculum.Specialty, error) {
	s, ok := r.specialties[id]
	if !ok {
		return nil, shared.ErrSpecialtyNotFound
	}
	return s, nil
}

func (r *memCurriculum) DeactivateItem(_ context.Context, id string) error {
	i, ok := r.items[id]
	if !ok {
		return shared.ErrItemNotFound
	}
	i.Active = false
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

type memAssignments struct {
	byKey map[progressKey]*curriculum.Assignment
}

func newMemAssignments() *memAssignments {
	return &memAssignments{byKey: make(map[progressKey]*curriculum.Assignment)}
}

func (r *memAssignments) Assign(_ context.Context, a *curriculum.Assignment) error {
	r.byKey[progressKey{a.MemberID, a.SpecialtyID}] = a
	return nil
}

func (r *memAssignments) IsAssigned(_ context.Context, memberID, specialtyID string) (bool, error) {
	_, ok := r.byKey[progressKey{memberID, specialtyID}]
	return ok, nil
}

func (r *memAssignments) GetAssignments(_ context.Context, memberID string) ([]*curriculum.Assignment, error) {
	var out []*curriculum.Assignment
	for k, a := range r.byKey {
		if k.memberID == memberID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit of work and authorizer
// ─────────────────────────────────────────────────────────────────────────────

type memTx struct {
	members     *memMembers
	progress    *memProgress
	completions *memCompletions
	ledger      *memLedger
	audit       *memAudit
}

func (t *memTx) Members() member.Repository                  { return t.members }
func (t *memTx) Progress() progress.Repository               { return t.progress }
func (t *memTx) Completions() progress.CompletionRepository  { return t.completions }
func (t *memTx) Ledger() ledger.Repository                   { return t.ledger }
func (t *memTx) Audit() ledger.AuditRepository               { return t.audit }

type memUnitOfWork struct {
	tx *memTx
}

func newMemUnitOfWork(members *memMembers) *memUnitOfWork {
	return &memUnitOfWork{tx: &memTx{
		members:     members,
		progress:    newMemProgress(),
		completions: newMemCompletions(),
		ledger:      newMemLedger(),
		audit:       &memAudit{},
	}}
}

func (u *memUnitOfWork) Execute(_ context.Context, fn func(tx TxContext) error) error {
	return fn(u.tx)
}

// roleAuthorizer resolves permissions from the member store by role,
// mirroring what the identity client does against the real service.
type roleAuthorizer struct {
	members *memMembers
}

func (a *roleAuthorizer) CanReview(ctx context.Context, actorID string, _ member.ClubID) error {
	m, err := a.members.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !m.Role.CanReview() {
		return shared.ErrReviewerNotAllowed
	}
	return nil
}

func (a *roleAuthorizer) CanAward(ctx context.Context, actorID string, _ member.ClubID) error {
	m, err := a.members.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !m.Role.CanAward() && !m.Role.CanReview() {
		return shared.ErrNotAuthorized
	}
	return nil
}

func (a *roleAuthorizer) CanPurgeHistory(ctx context.Context, actorID string) error {
	m, err := a.members.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !m.Role.CanPurgeHistory() {
		return shared.ErrNotAuthorized
	}
	return nil
}

// testEntry builds a valid manual adjustment entry for seeding fakes.
func testEntry(memberID string, amount int) *ledger.Entry {
	return &ledger.Entry{
		ID:        "entry-" + memberID,
		MemberID:  memberID,
		Amount:    amount,
		Source:    ledger.SourceManualAdjustment,
		Reason:    "seed",
		CreatedBy: "test",
		CreatedAt: time.Now().UTC(),
	}
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(e shared.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) published(t shared.EventType) int {
	n := 0
	for _, e := range p.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}
