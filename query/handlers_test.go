package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-verify/core"
)

type stubStatusReader struct {
	mu     sync.Mutex
	status core.UserStatus
	err    error
	calls  int
}

func (s *stubStatusReader) UserStatus(context.Context, core.UserRequest) (core.UserStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return core.UserStatusUnknown, s.err
	}
	return s.status, nil
}

func (s *stubStatusReader) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubAttemptReader struct {
	snapshot *core.AttemptSnapshot
}

func (s stubAttemptReader) CurrentAttempt() (core.AttemptSnapshot, bool) {
	if s.snapshot == nil {
		return core.AttemptSnapshot{}, false
	}
	return *s.snapshot, true
}

type stubActivityReader struct {
	filter core.ActivityFilter
	page   core.ActivityPage
}

func (s *stubActivityReader) List(_ context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	s.filter = filter
	return s.page, nil
}

// statusVerifier answers GetUserStatus and ignores every other call.
type statusVerifier struct {
	core.Verifier
	status core.UserStatus
	err    error
	silent bool
}

func (v statusVerifier) GetUserStatus(_ context.Context, _ core.UserRequest, done func(core.UserStatus, error)) {
	if v.silent {
		return
	}
	go done(v.status, v.err)
}

func TestVerifierStatusReader_BlocksForCallback(t *testing.T) {
	reader := VerifierStatusReader{Verifier: statusVerifier{status: core.UserStatusVerified}}
	status, err := reader.UserStatus(context.Background(), core.UserRequest{PhoneNumber: "07700900000"})
	if err != nil {
		t.Fatalf("user status: %v", err)
	}
	if status != core.UserStatusVerified {
		t.Fatalf("expected verified, got %q", status)
	}
}

func TestVerifierStatusReader_ContextEndsWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	reader := VerifierStatusReader{Verifier: statusVerifier{silent: true}}
	status, err := reader.UserStatus(ctx, core.UserRequest{PhoneNumber: "07700900000"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if status != core.UserStatusUnknown {
		t.Fatalf("expected unknown status, got %q", status)
	}
}

func TestGetUserStatusQuery_Delegates(t *testing.T) {
	reader := &stubStatusReader{status: core.UserStatusPending}
	status, err := NewGetUserStatusQuery(reader).Query(context.Background(), GetUserStatusMessage{PhoneNumber: "1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if status != core.UserStatusPending || reader.callCount() != 1 {
		t.Fatalf("unexpected status %q calls %d", status, reader.callCount())
	}
}

func TestCurrentAttemptQuery(t *testing.T) {
	_, err := NewCurrentAttemptQuery(stubAttemptReader{}).Query(context.Background(), CurrentAttemptMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found envelope, got %v", err)
	}

	snapshot := core.AttemptSnapshot{ID: "attempt-1", Status: core.UserStatusPending}
	got, err := NewCurrentAttemptQuery(stubAttemptReader{snapshot: &snapshot}).Query(context.Background(), CurrentAttemptMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.ID != "attempt-1" {
		t.Fatalf("unexpected snapshot %#v", got)
	}
}

func TestListActivityQuery_MapsFilter(t *testing.T) {
	reader := &stubActivityReader{page: core.ActivityPage{Total: 2}}
	page, err := NewListActivityQuery(reader).Query(context.Background(), ListActivityMessage{
		AttemptID: "attempt-1",
		Event:     "check_pin_code",
		Page:      2,
		PerPage:   10,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("unexpected page %#v", page)
	}
	if reader.filter.AttemptID != "attempt-1" || reader.filter.Event != "check_pin_code" || reader.filter.Page != 2 || reader.filter.PerPage != 10 {
		t.Fatalf("unexpected filter %#v", reader.filter)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	_, err := NewGetUserStatusQuery(nil).Query(context.Background(), GetUserStatusMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ServiceErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.ServiceErrorInternal, rich.TextCode)
	}
}

func TestMessages_Validate(t *testing.T) {
	if err := (GetUserStatusMessage{}).Validate(); err == nil {
		t.Fatalf("expected missing number error")
	}
	if err := (GetUserStatusMessage{PhoneNumber: "1", CountryCode: "G1"}).Validate(); err == nil {
		t.Fatalf("expected invalid country error")
	}
	if err := (GetUserStatusMessage{PhoneNumber: "1", CountryCode: "gb"}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	err := (ListActivityMessage{PerPage: 1000}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation envelope, got %v", err)
	}
}

func TestCachedUserStatusReader_MissFetchThenHit(t *testing.T) {
	base := &stubStatusReader{status: core.UserStatusVerified}
	reader, err := NewCachedUserStatusReader(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached reader: %v", err)
	}
	req := core.UserRequest{CountryCode: "gb", PhoneNumber: "07700900000"}
	for i := 0; i < 2; i++ {
		status, err := reader.UserStatus(context.Background(), req)
		if err != nil {
			t.Fatalf("user status %d: %v", i, err)
		}
		if status != core.UserStatusVerified {
			t.Fatalf("expected verified, got %q", status)
		}
	}
	if base.callCount() != 1 {
		t.Fatalf("expected second read to hit cache, base calls=%d", base.callCount())
	}

	if err := reader.Invalidate(context.Background(), req); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := reader.UserStatus(context.Background(), req); err != nil {
		t.Fatalf("user status after invalidate: %v", err)
	}
	if base.callCount() != 2 {
		t.Fatalf("expected refetch after invalidate, base calls=%d", base.callCount())
	}
}

func TestCachedUserStatusReader_FailuresAreNotCached(t *testing.T) {
	base := &stubStatusReader{err: errors.New("unreachable")}
	reader, err := NewCachedUserStatusReader(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached reader: %v", err)
	}
	req := core.UserRequest{PhoneNumber: "07700900000"}
	status, err := reader.UserStatus(context.Background(), req)
	if err == nil || status != core.UserStatusUnknown {
		t.Fatalf("expected unknown status with error, got %q %v", status, err)
	}
	base.mu.Lock()
	base.err = nil
	base.status = core.UserStatusPending
	base.mu.Unlock()
	status, err = reader.UserStatus(context.Background(), req)
	if err != nil || status != core.UserStatusPending {
		t.Fatalf("expected fresh pending status, got %q %v", status, err)
	}
}

func TestUserStatusCacheKey(t *testing.T) {
	key, err := UserStatusCacheKey(core.UserRequest{CountryCode: " gb ", PhoneNumber: "+44 7700"})
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != "go-verify::user_status::v1::GB::+44%207700" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := UserStatusCacheKey(core.UserRequest{}); err == nil {
		t.Fatalf("expected missing number error")
	}
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
