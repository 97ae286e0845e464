package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (s *Service) StartVerification(ctx context.Context, req StartRequest, callbacks VerifyCallbacks) {
	s.startVerification(ctx, "start_verification", req, callbacks)
}

// VerifyStandalone starts a PIN-only verification without a push trigger.
func (s *Service) VerifyStandalone(ctx context.Context, req StartRequest, callbacks VerifyCallbacks) {
	req.Standalone = true
	s.startVerification(ctx, "verify_standalone", req, callbacks)
}

func (s *Service) startVerification(ctx context.Context, operation string, req StartRequest, callbacks VerifyCallbacks) {
	startedAt := time.Now().UTC()
	done := newCompletion(s.dispatcher)
	fields := map[string]any{
		"country_code": strings.TrimSpace(req.CountryCode),
		"phone_number": MaskPhoneNumber(req.PhoneNumber),
		"standalone":   req.Standalone,
	}

	attempt, err := NewAttempt(AttemptInput{
		CountryCode: req.CountryCode,
		PhoneNumber: req.PhoneNumber,
		Standalone:  req.Standalone,
		PushToken:   s.pushToken(req.Standalone),
		Now:         startedAt,
	})
	if err != nil {
		kind := verifyErrorOf(err)
		s.observeOperation(ctx, startedAt, operation, kind, fields)
		done.fire(verifyErrorCallback(callbacks.OnError, kind))
		return
	}
	fields["attempt_id"] = attempt.ID()

	current := &session{
		attempt:   attempt,
		starting:  true,
		callbacks: CheckCallbacks{OnVerified: callbacks.OnVerified, OnError: callbacks.OnError},
	}
	s.mu.Lock()
	if s.current.live() {
		s.mu.Unlock()
		kind := VerifyErrorVerificationAlreadyStarted
		s.logInfo(ctx, "verification already in progress", fields)
		s.observeOperation(ctx, startedAt, operation, kind, fields)
		done.fire(verifyErrorCallback(callbacks.OnError, kind))
		return
	}
	s.current = current
	s.mu.Unlock()
	if callbacks.OnAttempt != nil {
		callbacks.OnAttempt(attempt.ID())
	}

	s.executor.Go(func() {
		defer s.finishStarting(current)
		resp, outcome := s.sendVerify(ctx, attempt)
		fields["result_code"] = resp.ResultCode
		fields["user_status"] = resp.UserStatus.String()

		var kind VerifyError
		var fire func()
		switch {
		case outcome != nil:
			kind = verifyErrorOf(outcome)
			fire = verifyErrorCallback(callbacks.OnError, kind)
		case acceptsVerifyResult(resp.ResultCode):
			s.applyTransition(ctx, attempt, resp.UserStatus, fields)
			kind, fire = dispatchReportedStatus(resp.UserStatus, callbacks)
		default:
			kind = MapResultCode(resp.ResultCode)
			fire = verifyErrorCallback(callbacks.OnError, kind)
		}

		var opErr error
		if kind != "" {
			opErr = kind
		}
		s.recordActivity(ctx, operation, attempt, resp, opErr)
		s.observeOperation(ctx, startedAt, operation, opErr, fields)
		done.fire(fire)
	})
}

func (s *Service) finishStarting(current *session) {
	s.mu.Lock()
	current.starting = false
	s.mu.Unlock()
}

// sendVerify returns a non-nil error when no typed response was obtained.
// The error already carries its domain kind.
func (s *Service) sendVerify(ctx context.Context, attempt *Attempt) (Response, error) {
	params := attempt.VerificationRequest().Params()
	if err := s.addDeviceProperties(params); err != nil {
		s.logError(ctx, "device properties unavailable", map[string]any{
			"attempt_id": attempt.ID(),
			"error":      err.Error(),
		})
		return Response{}, VerifyErrorInternal
	}
	resp, err := s.gateway.PerformSignedRequest(ctx, SignedRequest{
		Path:      s.config.Endpoint(EndpointVerify),
		Params:    params,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logError(ctx, "verify request failed", map[string]any{
			"attempt_id": attempt.ID(),
			"error":      err.Error(),
		})
		if IsNetworkError(err) {
			return Response{}, VerifyErrorNetwork
		}
		return Response{}, VerifyErrorInternal
	}
	return resp, nil
}

// dispatchReportedStatus picks the start callback from the status reported by
// the service, independently of whether the local transition was accepted.
func dispatchReportedStatus(status UserStatus, callbacks VerifyCallbacks) (VerifyError, func()) {
	switch status {
	case UserStatusPending:
		return "", callbacks.OnProgress
	case UserStatusVerified:
		return "", callbacks.OnVerified
	case UserStatusExpired:
		return VerifyErrorUserExpired, verifyErrorCallback(callbacks.OnError, VerifyErrorUserExpired)
	case UserStatusBlacklisted:
		return VerifyErrorUserBlacklisted, verifyErrorCallback(callbacks.OnError, VerifyErrorUserBlacklisted)
	default:
		return VerifyErrorInternal, verifyErrorCallback(callbacks.OnError, VerifyErrorInternal)
	}
}

// applyTransition moves attempt to status. Rejections are logged and
// journaled, never returned.
func (s *Service) applyTransition(ctx context.Context, attempt *Attempt, status UserStatus, fields map[string]any) bool {
	from := attempt.Status()
	if err := attempt.TransitionTo(status); err != nil {
		logFields := cloneFields(fields)
		logFields["from_status"] = from.String()
		logFields["to_status"] = status.String()
		logFields["error"] = err.Error()
		s.logWarn(ctx, "attempt transition rejected", logFields)
		s.recordActivity(ctx, "transition_rejected", attempt, Response{UserStatus: status}, err)
		return false
	}
	return true
}

// CheckPinCode checks pin against the current attempt. It does nothing when
// no attempt is pending and the current attempt is not standalone. Nil
// callback fields fall back to those registered with the attempt.
func (s *Service) CheckPinCode(ctx context.Context, pin string, callbacks CheckCallbacks) {
	current := s.currentSession()
	if current == nil || current.attempt == nil {
		s.logWarn(ctx, "pin check skipped: no verification in progress", nil)
		return
	}
	attempt := current.attempt
	if attempt.Status() != UserStatusPending && !attempt.Standalone() {
		s.logWarn(ctx, "pin check skipped: attempt is not pending", map[string]any{
			"attempt_id": attempt.ID(),
			"status":     attempt.Status().String(),
		})
		return
	}
	if callbacks.OnVerified == nil {
		callbacks.OnVerified = current.callbacks.OnVerified
	}
	if callbacks.OnError == nil {
		callbacks.OnError = current.callbacks.OnError
	}
	s.checkPin(ctx, "check_pin_code", attempt, pin, callbacks)
}

// CheckPinCodeFor checks pin for an explicit number without a prior start,
// replacing the current attempt with a fresh one.
func (s *Service) CheckPinCodeFor(ctx context.Context, req CheckRequest, callbacks CheckCallbacks) {
	attempt, err := NewAttempt(AttemptInput{
		CountryCode: req.CountryCode,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		kind := verifyErrorOf(err)
		s.observeOperation(ctx, time.Now().UTC(), "check_pin_code_for", kind, map[string]any{
			"country_code": strings.TrimSpace(req.CountryCode),
		})
		newCompletion(s.dispatcher).fire(verifyErrorCallback(callbacks.OnError, kind))
		return
	}
	s.mu.Lock()
	s.current = &session{attempt: attempt, callbacks: callbacks}
	s.mu.Unlock()
	s.checkPin(ctx, "check_pin_code_for", attempt, req.Pin, callbacks)
}

func (s *Service) checkPin(ctx context.Context, operation string, attempt *Attempt, pin string, callbacks CheckCallbacks) {
	startedAt := time.Now().UTC()
	done := newCompletion(s.dispatcher)
	fields := map[string]any{
		"attempt_id":   attempt.ID(),
		"country_code": attempt.CountryCode(),
		"phone_number": MaskPhoneNumber(attempt.PhoneNumber()),
		"standalone":   attempt.Standalone(),
	}

	pin = strings.TrimSpace(pin)
	if pin == "" {
		kind := VerifyErrorInvalidPinCode
		s.observeOperation(ctx, startedAt, operation, kind, fields)
		done.fire(verifyErrorCallback(callbacks.OnError, kind))
		return
	}
	attempt.RecordPin(pin)

	s.executor.Go(func() {
		resp, err := s.sendCheck(ctx, attempt, pin)
		fields["result_code"] = resp.ResultCode
		fields["user_status"] = resp.UserStatus.String()

		var kind VerifyError
		fire := callbacks.OnVerified
		switch {
		case err != nil:
			s.logError(ctx, "check request failed", map[string]any{
				"attempt_id": attempt.ID(),
				"error":      err.Error(),
			})
			kind = VerifyErrorInternal
		case resp.ResultCode == ResultCodeOK && resp.UserStatus == UserStatusVerified:
			s.applyTransition(ctx, attempt, UserStatusVerified, fields)
		case resp.ResultCode == ResultCodeOK:
			kind = VerifyErrorInternal
		default:
			kind = MapResultCode(resp.ResultCode)
		}
		var opErr error
		if kind != "" {
			opErr = kind
			fire = verifyErrorCallback(callbacks.OnError, kind)
		}
		s.recordActivity(ctx, operation, attempt, resp, opErr)
		s.observeOperation(ctx, startedAt, operation, opErr, fields)
		done.fire(fire)
	})
}

func (s *Service) sendCheck(ctx context.Context, attempt *Attempt, pin string) (Response, error) {
	params := map[string]string{
		ParamNumber: attempt.PhoneNumber(),
		ParamCode:   pin,
	}
	if country := attempt.CountryCode(); country != "" {
		params[ParamCountryCode] = country
	}
	if err := s.addDeviceProperties(params); err != nil {
		return Response{}, err
	}
	return s.gateway.PerformSignedRequest(ctx, SignedRequest{
		Path:      s.config.Endpoint(EndpointCheck),
		Params:    params,
		Timestamp: time.Now().UTC(),
	})
}

// HandleNotification extracts a PIN from a push payload. With
// performSilentCheck the PIN is checked against the current attempt;
// otherwise it is handed to the PinPresenter. It reports whether a PIN was
// found.
func (s *Service) HandleNotification(ctx context.Context, payload map[string]any, performSilentCheck bool) bool {
	pin, ok := notificationPin(payload)
	if !ok {
		return false
	}
	if performSilentCheck {
		s.CheckPinCode(ctx, pin, CheckCallbacks{})
		return true
	}
	if s.pinPresenter == nil {
		s.logWarn(ctx, "notification pin dropped: no pin presenter configured", nil)
		return true
	}
	presenter := s.pinPresenter
	s.dispatcher.Dispatch(func() {
		presenter.PresentPin(pin)
	})
	return true
}

func notificationPin(payload map[string]any) (string, bool) {
	if len(payload) == 0 {
		return "", false
	}
	if pin, ok := pinValue(payload[NotificationPinKey]); ok {
		return pin, true
	}
	if nested, ok := payload["data"].(map[string]any); ok {
		return pinValue(nested[NotificationPinKey])
	}
	return "", false
}

func pinValue(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		pin := strings.TrimSpace(typed)
		return pin, pin != ""
	case fmt.Stringer:
		pin := strings.TrimSpace(typed.String())
		return pin, pin != ""
	default:
		return "", false
	}
}

func verifyErrorCallback(fn func(VerifyError), kind VerifyError) func() {
	if fn == nil {
		return nil
	}
	return func() { fn(kind) }
}
