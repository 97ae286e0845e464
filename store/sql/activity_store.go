package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-verify/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultActivityPerPage = 25

// ActivityRetentionPolicy bounds the journal by age, row count or both. Zero
// values disable the matching rule.
type ActivityRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

// ActivityStore journals verification lifecycle events. Phone numbers arrive
// masked and metadata is redacted before it is written.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityEntryRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*activityEntryRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	event := strings.TrimSpace(entry.Event)
	if event == "" {
		return fmt.Errorf("sqlstore: activity event is required")
	}
	_, err := s.repo.Create(ctx, newActivityRecord(entry, time.Now().UTC()))
	return err
}

func (s *ActivityStore) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultActivityPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("occurred_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if attemptID := strings.TrimSpace(filter.AttemptID); attemptID != "" {
		selectors = append(selectors, repository.SelectBy("attempt_id", "=", attemptID))
	}
	if event := strings.TrimSpace(filter.Event); event != "" {
		selectors = append(selectors, repository.SelectBy("event", "=", event))
	}
	if country := strings.ToUpper(strings.TrimSpace(filter.CountryCode)); country != "" {
		selectors = append(selectors, repository.SelectBy("country_code", "=", country))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("occurred_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, err
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.ActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune applies policy and returns the number of deleted rows.
func (s *ActivityStore) Prune(ctx context.Context, policy ActivityRetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: activity store is not configured")
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := time.Now().UTC().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*activityEntryRecord)(nil)).
			Where("occurred_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*activityEntryRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		excess := total - policy.RowCap
		if excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM verification_activity_entries WHERE id IN (SELECT id FROM verification_activity_entries ORDER BY occurred_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

func newActivityRecord(entry core.ActivityEntry, now time.Time) *activityEntryRecord {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	occurredAt := entry.OccurredAt.UTC()
	if entry.OccurredAt.IsZero() {
		occurredAt = now
	}
	return &activityEntryRecord{
		ID:          id,
		Event:       strings.TrimSpace(entry.Event),
		AttemptID:   strings.TrimSpace(entry.AttemptID),
		PhoneNumber: core.MaskPhoneNumber(entry.PhoneNumber),
		CountryCode: strings.ToUpper(strings.TrimSpace(entry.CountryCode)),
		Status:      strings.TrimSpace(string(entry.Status)),
		ResultCode:  entry.ResultCode,
		Error:       strings.TrimSpace(entry.Error),
		Metadata:    core.RedactSensitiveMap(entry.Metadata),
		OccurredAt:  occurredAt,
	}
}

func (r *activityEntryRecord) toDomain() core.ActivityEntry {
	if r == nil {
		return core.ActivityEntry{}
	}
	return core.ActivityEntry{
		ID:          r.ID,
		Event:       r.Event,
		AttemptID:   r.AttemptID,
		PhoneNumber: r.PhoneNumber,
		CountryCode: r.CountryCode,
		Status:      core.UserStatus(r.Status),
		ResultCode:  r.ResultCode,
		Error:       r.Error,
		Metadata:    copyAnyMap(r.Metadata),
		OccurredAt:  r.OccurredAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
