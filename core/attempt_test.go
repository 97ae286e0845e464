package core

import (
	"errors"
	"testing"
)

func newTestAttempt(t *testing.T) *Attempt {
	t.Helper()
	attempt, err := NewAttempt(AttemptInput{CountryCode: "gb", PhoneNumber: "447700900000"})
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	return attempt
}

func TestNewAttempt_StartsNew(t *testing.T) {
	attempt := newTestAttempt(t)
	if attempt.Status() != UserStatusNew {
		t.Fatalf("expected new status, got %q", attempt.Status())
	}
	if attempt.ID() == "" {
		t.Fatalf("expected attempt id")
	}
	if attempt.CountryCode() != "GB" {
		t.Fatalf("expected normalized country code, got %q", attempt.CountryCode())
	}
}

func TestNewAttempt_RequiresPhoneNumber(t *testing.T) {
	_, err := NewAttempt(AttemptInput{PhoneNumber: "   "})
	var kind VerifyError
	if !errors.As(err, &kind) || kind != VerifyErrorNumberRequired {
		t.Fatalf("expected number_required, got %v", err)
	}
}

func TestAttemptTransitions(t *testing.T) {
	terminal := []UserStatus{UserStatusVerified, UserStatusFailed, UserStatusExpired, UserStatusBlacklisted}

	t.Run("pending only from new", func(t *testing.T) {
		attempt := newTestAttempt(t)
		if err := attempt.TransitionTo(UserStatusPending); err != nil {
			t.Fatalf("new -> pending: %v", err)
		}
		if err := attempt.TransitionTo(UserStatusPending); !errors.Is(err, ErrInvalidAttemptTransition) {
			t.Fatalf("expected pending -> pending to be rejected, got %v", err)
		}
		if attempt.Status() != UserStatusPending {
			t.Fatalf("expected pending, got %q", attempt.Status())
		}
	})

	for _, target := range terminal {
		target := target
		t.Run("new to "+target.String(), func(t *testing.T) {
			attempt := newTestAttempt(t)
			if err := attempt.TransitionTo(target); err != nil {
				t.Fatalf("new -> %s: %v", target, err)
			}
		})
		t.Run("pending to "+target.String(), func(t *testing.T) {
			attempt := newTestAttempt(t)
			if err := attempt.TransitionTo(UserStatusPending); err != nil {
				t.Fatalf("new -> pending: %v", err)
			}
			if err := attempt.TransitionTo(target); err != nil {
				t.Fatalf("pending -> %s: %v", target, err)
			}
			if attempt.Status() != target {
				t.Fatalf("expected %s, got %s", target, attempt.Status())
			}
		})
		t.Run("terminal "+target.String()+" is final", func(t *testing.T) {
			attempt := newTestAttempt(t)
			if err := attempt.TransitionTo(target); err != nil {
				t.Fatalf("new -> %s: %v", target, err)
			}
			for _, next := range append([]UserStatus{UserStatusNew, UserStatusPending}, terminal...) {
				if err := attempt.TransitionTo(next); !errors.Is(err, ErrInvalidAttemptTransition) {
					t.Fatalf("expected %s -> %s to be rejected, got %v", target, next, err)
				}
			}
			if attempt.Status() != target {
				t.Fatalf("expected state to stay %s, got %s", target, attempt.Status())
			}
		})
	}

	t.Run("query-only statuses are never entered", func(t *testing.T) {
		attempt := newTestAttempt(t)
		for _, next := range []UserStatus{UserStatusNew, UserStatusUnverified, UserStatusUnknown} {
			if err := attempt.TransitionTo(next); !errors.Is(err, ErrInvalidAttemptTransition) {
				t.Fatalf("expected transition to %s to be rejected, got %v", next, err)
			}
		}
		if attempt.Status() != UserStatusNew {
			t.Fatalf("expected new, got %s", attempt.Status())
		}
	})
}

func TestAttemptVerificationRequest(t *testing.T) {
	attempt, err := NewAttempt(AttemptInput{
		CountryCode: "GB",
		PhoneNumber: "447700900000",
		PushToken:   "push-1",
	})
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	req := attempt.VerificationRequest()
	if req.PhoneNumber != "447700900000" || req.CountryCode != "GB" || req.PushToken != "push-1" || req.Standalone {
		t.Fatalf("unexpected request projection: %#v", req)
	}
	params := req.Params()
	if params[ParamNumber] != "447700900000" || params[ParamCountryCode] != "GB" || params[ParamPushToken] != "push-1" {
		t.Fatalf("unexpected params: %#v", params)
	}
	if _, ok := params[ParamStandalone]; ok {
		t.Fatalf("did not expect standalone param")
	}
	if attempt.Status() != UserStatusNew {
		t.Fatalf("projection must not change state")
	}
}

func TestAttemptRecordPin(t *testing.T) {
	attempt := newTestAttempt(t)
	attempt.RecordPin(" 1234 ")
	if attempt.Pin() != "1234" {
		t.Fatalf("expected pin 1234, got %q", attempt.Pin())
	}
	if !attempt.Snapshot().HasPin {
		t.Fatalf("expected snapshot to report a pin")
	}
}
