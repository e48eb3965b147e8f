package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"gathering_notification_service/internal/domain/gathering"
	"gathering_notification_service/internal/domain/notification"
	idb "gathering_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// --- fake config repository ---

type fakeConfigRepo struct {
	configs []*notification.GatheringConfig
	nextID  int64
}

func (f *fakeConfigRepo) GetActive(_ context.Context) (*notification.GatheringConfig, error) {
	for _, cfg := range f.configs {
		if cfg.IsActive {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, idb.ErrConfigNotFound
}

func (f *fakeConfigRepo) GetByID(_ context.Context, id int64) (*notification.GatheringConfig, error) {
	for _, cfg := range f.configs {
		if cfg.ID == id {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, idb.ErrConfigNotFound
}

func (f *fakeConfigRepo) CreateAndActivate(_ context.Context, cfg *notification.GatheringConfig) error {
	for _, existing := range f.configs {
		existing.IsActive = false
	}
	f.nextID++
	cfg.ID = f.nextID
	cfg.IsActive = true
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = cfg.CreatedAt
	cp := *cfg
	f.configs = append(f.configs, &cp)
	return nil
}

func (f *fakeConfigRepo) Update(_ context.Context, cfg *notification.GatheringConfig) error {
	for i, existing := range f.configs {
		if existing.ID == cfg.ID {
			cp := *cfg
			cp.UpdatedAt = time.Now()
			f.configs[i] = &cp
			return nil
		}
	}
	return idb.ErrConfigNotFound
}

func (f *fakeConfigRepo) Activate(_ context.Context, id int64) error {
	var target *notification.GatheringConfig
	for _, cfg := range f.configs {
		if cfg.ID == id {
			target = cfg
		}
	}
	if target == nil {
		return idb.ErrConfigNotFound
	}
	for _, cfg := range f.configs {
		cfg.IsActive = false
	}
	target.IsActive = true
	return nil
}

func (f *fakeConfigRepo) activeID() int64 {
	for _, cfg := range f.configs {
		if cfg.IsActive {
			return cfg.ID
		}
	}
	return 0
}

// --- fake candidate repository ---

type fakeCandidateRepo struct {
	rows   map[string]*notification.Candidate // keyed on ruleKind|eventID
	nextID int64
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{rows: make(map[string]*notification.Candidate)}
}

func candidateKey(kind notification.RuleKind, eventID string) string {
	return string(kind) + "|" + eventID
}

func (f *fakeCandidateRepo) Upsert(_ context.Context, c *notification.Candidate) error {
	key := candidateKey(c.RuleKind, c.EventID)
	if existing, ok := f.rows[key]; ok {
		if existing.EventStartDate.Equal(c.EventStartDate) &&
			existing.EventEndDate.Equal(c.EventEndDate) &&
			existing.AttendeeCount == c.AttendeeCount {
			return nil // unchanged data keeps the processed state
		}
		existing.GatheringID = c.GatheringID
		existing.EventStartDate = c.EventStartDate
		existing.EventEndDate = c.EventEndDate
		existing.AttendeeCount = c.AttendeeCount
		existing.ProcessedAt = sql.NullTime{}
		existing.IsSuppressed = false
		existing.UpdatedAt = time.Now()
		return nil
	}
	f.nextID++
	cp := *c
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.rows[key] = &cp
	return nil
}

func (f *fakeCandidateRepo) DeleteByRuleAndEvent(_ context.Context, kind notification.RuleKind, eventID string) error {
	delete(f.rows, candidateKey(kind, eventID))
	return nil
}

func sortCandidates(candidates []*notification.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RuleKind != b.RuleKind {
			return a.RuleKind < b.RuleKind
		}
		if a.GatheringID != b.GatheringID {
			return a.GatheringID < b.GatheringID
		}
		if !a.EventStartDate.Equal(b.EventStartDate) {
			return a.EventStartDate.Before(b.EventStartDate)
		}
		return a.EventID < b.EventID
	})
}

func (f *fakeCandidateRepo) ListPending(_ context.Context) ([]*notification.Candidate, error) {
	pending := make([]*notification.Candidate, 0)
	for _, c := range f.rows {
		if c.Status() == notification.StatusPending {
			pending = append(pending, c)
		}
	}
	sortCandidates(pending)
	return pending, nil
}

func (f *fakeCandidateRepo) ListPendingByGathering(_ context.Context, kind notification.RuleKind, gatheringID string) ([]*notification.Candidate, error) {
	pending := make([]*notification.Candidate, 0)
	for _, c := range f.rows {
		if c.Status() == notification.StatusPending && c.RuleKind == kind && c.GatheringID == gatheringID {
			pending = append(pending, c)
		}
	}
	sortCandidates(pending)
	return pending, nil
}

func (f *fakeCandidateRepo) MarkProcessed(_ context.Context, ids []int64, processedAt time.Time) error {
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for _, c := range f.rows {
		if idSet[c.ID] {
			c.ProcessedAt = sql.NullTime{Time: processedAt, Valid: true}
		}
	}
	return nil
}

func (f *fakeCandidateRepo) get(kind notification.RuleKind, eventID string) *notification.Candidate {
	return f.rows[candidateKey(kind, eventID)]
}

// snapshot returns a deep copy of all rows for state-change comparisons.
func (f *fakeCandidateRepo) snapshot() map[string]notification.Candidate {
	snap := make(map[string]notification.Candidate, len(f.rows))
	for k, c := range f.rows {
		snap[k] = *c
	}
	return snap
}

// --- fake notification record repository ---

type fakeRecordRepo struct {
	records       []*notification.Record
	createCalls   int
	updateCalls   int
	cleared       []string
	failGathering string // Create/Update fail for payloads of this gathering
}

func (f *fakeRecordRepo) Create(_ context.Context, rec *notification.Record) error {
	if f.failGathering != "" && rec.Payload != nil && rec.Payload.GatheringUID == f.failGathering {
		return fmt.Errorf("store unavailable")
	}
	f.createCalls++
	rec.CreatedAt = time.Now()
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeRecordRepo) Update(_ context.Context, rec *notification.Record) error {
	if f.failGathering != "" && rec.Payload != nil && rec.Payload.GatheringUID == f.failGathering {
		return fmt.Errorf("store unavailable")
	}
	for i, existing := range f.records {
		if existing.ID == rec.ID {
			f.updateCalls++
			cp := *rec
			cp.CreatedAt = existing.CreatedAt
			f.records[i] = &cp
			return nil
		}
	}
	return idb.ErrNotificationNotFound
}

func (f *fakeRecordRepo) FindByDedupKey(_ context.Context, key notification.DedupKey) (*notification.Record, error) {
	for _, rec := range f.records {
		if rec.Category != key.Category || rec.Payload == nil {
			continue
		}
		if rec.Payload.RuleKind == key.RuleKind && rec.Payload.GatheringUID == key.GatheringUID && rec.Payload.Version == key.Version {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, idb.ErrNotificationNotFound
}

func (f *fakeRecordRepo) ClearReadStatuses(_ context.Context, recordID string) error {
	f.cleared = append(f.cleared, recordID)
	return nil
}

// --- fake gathering reader ---

type fakeGatheringReader struct {
	gatherings map[string]*gathering.Gathering
}

func (f *fakeGatheringReader) GetByID(_ context.Context, id string) (*gathering.Gathering, error) {
	g, ok := f.gatherings[id]
	if !ok {
		return nil, idb.ErrGatheringNotFound
	}
	cp := *g
	return &cp, nil
}

// --- fake event repository ---

type fakeEventRepo struct {
	events []*gathering.Event
}

func (f *fakeEventRepo) ListByIDs(_ context.Context, ids []string) ([]*gathering.Event, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	out := make([]*gathering.Event, 0)
	for _, ev := range f.events {
		if idSet[ev.ID] && !ev.IsDeleted {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListEndingBetween(_ context.Context, gatheringID string, from, to time.Time) ([]*gathering.Event, error) {
	out := make([]*gathering.Event, 0)
	for _, ev := range f.events {
		if ev.GatheringID == gatheringID && !ev.IsDeleted && !ev.EndDate.Before(from) && !ev.EndDate.After(to) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListStartingBetween(_ context.Context, gatheringID string, from, to time.Time) ([]*gathering.Event, error) {
	out := make([]*gathering.Event, 0)
	for _, ev := range f.events {
		if ev.GatheringID == gatheringID && !ev.IsDeleted && !ev.StartDate.Before(from) && !ev.StartDate.After(to) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) CountUpcoming(_ context.Context, gatheringID string, from time.Time) (int, error) {
	count := 0
	for _, ev := range f.events {
		if ev.GatheringID == gatheringID && !ev.IsDeleted && !ev.EndDate.Before(from) {
			count++
		}
	}
	return count, nil
}

// --- fake attendance repository ---

type fakeAttendanceRepo struct {
	members map[string][]string // eventID -> member IDs
	names   map[string]string   // member ID -> display name
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{members: make(map[string][]string), names: make(map[string]string)}
}

func (f *fakeAttendanceRepo) CountForEvent(_ context.Context, eventID string) (int, error) {
	seen := make(map[string]bool)
	for _, m := range f.members[eventID] {
		seen[m] = true
	}
	return len(seen), nil
}

func (f *fakeAttendanceRepo) CountDistinctAttendees(_ context.Context, eventIDs []string) (int, error) {
	seen := make(map[string]bool)
	for _, id := range eventIDs {
		for _, m := range f.members[id] {
			seen[m] = true
		}
	}
	return len(seen), nil
}

func (f *fakeAttendanceRepo) TopAttendees(_ context.Context, eventIDs []string, limit int) ([]*gathering.Attendee, error) {
	counts := make(map[string]map[string]bool)
	for _, id := range eventIDs {
		for _, m := range f.members[id] {
			if counts[m] == nil {
				counts[m] = make(map[string]bool)
			}
			counts[m][id] = true
		}
	}
	attendees := make([]*gathering.Attendee, 0, len(counts))
	for m, events := range counts {
		attendees = append(attendees, &gathering.Attendee{MemberID: m, DisplayName: f.names[m], EventCount: len(events)})
	}
	sort.Slice(attendees, func(i, j int) bool {
		if attendees[i].EventCount != attendees[j].EventCount {
			return attendees[i].EventCount > attendees[j].EventCount
		}
		return attendees[i].DisplayName < attendees[j].DisplayName
	})
	if len(attendees) > limit {
		attendees = attendees[:limit]
	}
	return attendees, nil
}

// --- fixture wiring the services against the fakes ---

type fixture struct {
	configRepo    *fakeConfigRepo
	candidateRepo *fakeCandidateRepo
	recordRepo    *fakeRecordRepo
	gatherings    *fakeGatheringReader
	events        *fakeEventRepo
	attendance    *fakeAttendanceRepo

	candidateSvc *CandidateService
	processor    *Processor
	trigger      *TriggerService
	configSvc    *ConfigService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	entry := logrus.NewEntry(l)

	f := &fixture{
		configRepo:    &fakeConfigRepo{},
		candidateRepo: newFakeCandidateRepo(),
		recordRepo:    &fakeRecordRepo{},
		gatherings:    &fakeGatheringReader{gatherings: make(map[string]*gathering.Gathering)},
		events:        &fakeEventRepo{},
		attendance:    newFakeAttendanceRepo(),
	}
	f.candidateSvc = NewCandidateService(f.configRepo, f.candidateRepo, f.gatherings, f.events, f.attendance, entry)
	builder := NewPayloadBuilder(f.gatherings, f.events, f.attendance)
	publisher := NewPublisher(f.recordRepo, entry)
	f.processor = NewProcessor(f.configRepo, f.candidateRepo, f.events, builder, publisher, entry)
	f.trigger = NewTriggerService(f.configRepo, f.candidateSvc, f.candidateRepo, f.events, builder, publisher, entry)
	f.configSvc = NewConfigService(f.configRepo, entry)
	return f
}

func (f *fixture) addConfig(t *testing.T, params ConfigParams) *notification.GatheringConfig {
	t.Helper()
	cfg, err := f.configSvc.CreateAndActivate(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateAndActivate() error = %v", err)
	}
	return cfg
}

func defaultParams() ConfigParams {
	return ConfigParams{
		Enabled:                  true,
		MinAttendeesPerEvent:     3,
		UpcomingWindowDays:       7,
		ReminderDaysBefore:       2,
		TotalEventsThreshold:     1,
		QualifiedEventsThreshold: 1,
	}
}

func (f *fixture) addGathering(id, name, location string) {
	f.gatherings.gatherings[id] = &gathering.Gathering{ID: id, Name: name, Location: location, Timezone: "UTC"}
}

func (f *fixture) addEvent(id, gatheringID, name string, start, end time.Time) {
	f.events.events = append(f.events.events, &gathering.Event{
		ID: id, GatheringID: gatheringID, Name: name, StartDate: start, EndDate: end,
	})
}

func (f *fixture) setAttendance(eventID string, memberIDs ...string) {
	f.attendance.members[eventID] = memberIDs
	for _, m := range memberIDs {
		if _, ok := f.attendance.names[m]; !ok {
			f.attendance.names[m] = "Member " + m
		}
	}
}
