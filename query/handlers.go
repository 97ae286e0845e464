package query

import (
	"context"

	"github.com/goliatone/go-verify/core"
)

// UserStatusReader is the blocking form of a status lookup.
type UserStatusReader interface {
	UserStatus(ctx context.Context, req core.UserRequest) (core.UserStatus, error)
}

type AttemptReader interface {
	CurrentAttempt() (core.AttemptSnapshot, bool)
}

// VerifierStatusReader adapts the callback based status lookup of a
// verifier to UserStatusReader.
type VerifierStatusReader struct {
	Verifier core.Verifier
}

func (r VerifierStatusReader) UserStatus(ctx context.Context, req core.UserRequest) (core.UserStatus, error) {
	if r.Verifier == nil {
		return core.UserStatusUnknown, queryDependencyError("query: verifier is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	type result struct {
		status core.UserStatus
		err    error
	}
	ch := make(chan result, 1)
	r.Verifier.GetUserStatus(ctx, req, func(status core.UserStatus, err error) {
		select {
		case ch <- result{status: status, err: err}:
		default:
		}
	})
	select {
	case out := <-ch:
		return out.status, out.err
	case <-ctx.Done():
		return core.UserStatusUnknown, ctx.Err()
	}
}

type GetUserStatusQuery struct {
	reader UserStatusReader
}

func NewGetUserStatusQuery(reader UserStatusReader) *GetUserStatusQuery {
	return &GetUserStatusQuery{reader: reader}
}

func (q *GetUserStatusQuery) Query(ctx context.Context, msg GetUserStatusMessage) (core.UserStatus, error) {
	if q == nil || q.reader == nil {
		return core.UserStatusUnknown, queryDependencyError("query: user status reader is required")
	}
	return q.reader.UserStatus(ctx, core.UserRequest{
		CountryCode: msg.CountryCode,
		PhoneNumber: msg.PhoneNumber,
	})
}

type CurrentAttemptQuery struct {
	reader AttemptReader
}

func NewCurrentAttemptQuery(reader AttemptReader) *CurrentAttemptQuery {
	return &CurrentAttemptQuery{reader: reader}
}

func (q *CurrentAttemptQuery) Query(_ context.Context, _ CurrentAttemptMessage) (core.AttemptSnapshot, error) {
	if q == nil || q.reader == nil {
		return core.AttemptSnapshot{}, queryDependencyError("query: attempt reader is required")
	}
	snapshot, ok := q.reader.CurrentAttempt()
	if !ok {
		return core.AttemptSnapshot{}, queryNotFoundError("query: no verification attempt")
	}
	return snapshot, nil
}

type ListActivityQuery struct {
	reader core.ActivityReader
}

func NewListActivityQuery(reader core.ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.List(ctx, core.ActivityFilter{
		AttemptID: msg.AttemptID,
		Event:     msg.Event,
		Page:      msg.Page,
		PerPage:   msg.PerPage,
	})
}
