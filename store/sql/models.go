package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type activityEntryRecord struct {
	bun.BaseModel `bun:"table:verification_activity_entries,alias:vae"`

	ID          string         `bun:"id,pk"`
	Event       string         `bun:"event,notnull"`
	AttemptID   string         `bun:"attempt_id,notnull"`
	PhoneNumber string         `bun:"phone_number,notnull"`
	CountryCode string         `bun:"country_code,notnull"`
	Status      string         `bun:"status,notnull"`
	ResultCode  int            `bun:"result_code,notnull"`
	Error       string         `bun:"error,notnull"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,notnull"`
	OccurredAt  time.Time      `bun:"occurred_at,nullzero,notnull,default:current_timestamp"`
}
