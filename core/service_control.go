package core

import (
	"context"
	"strings"
	"time"
)

// CancelVerification asks the service to cancel the current attempt and
// clears it locally on success.
func (s *Service) CancelVerification(ctx context.Context, done func(error)) {
	s.control(ctx, "cancel_verification", ControlCommandCancel, done)
}

// TriggerNextEvent advances the current attempt to its next delivery stage.
// Local state is not changed.
func (s *Service) TriggerNextEvent(ctx context.Context, done func(error)) {
	s.control(ctx, "trigger_next_event", ControlCommandTriggerNextEvent, done)
}

func (s *Service) control(ctx context.Context, operation string, command string, done func(error)) {
	startedAt := time.Now().UTC()
	completed := newCompletion(s.dispatcher)
	fields := map[string]any{"command": command}

	current := s.currentSession()
	if current == nil || current.attempt == nil {
		err := s.mapError(ErrNoVerificationInProgress)
		s.observeOperation(ctx, startedAt, operation, err, fields)
		completed.fire(errorCallback(done, err))
		return
	}
	attempt := current.attempt
	fields["attempt_id"] = attempt.ID()
	fields["phone_number"] = MaskPhoneNumber(attempt.PhoneNumber())

	s.executor.Go(func() {
		params := map[string]string{
			ParamNumber:  attempt.PhoneNumber(),
			ParamCommand: command,
		}
		if country := attempt.CountryCode(); country != "" {
			params[ParamCountryCode] = country
		}
		resp, err := s.perform(ctx, EndpointControl, params)
		if err == nil && command == ControlCommandCancel {
			if !s.clearSession(current) {
				s.logInfo(ctx, "cancelled attempt already replaced", fields)
			}
		}
		fields["result_code"] = resp.ResultCode
		s.recordActivity(ctx, operation, attempt, resp, err)
		s.observeOperation(ctx, startedAt, operation, err, fields)
		completed.fire(errorCallback(done, err))
	})
}

// LogoutUser forwards a logout for the given number. It does not touch the
// current attempt.
func (s *Service) LogoutUser(ctx context.Context, req UserRequest, done func(error)) {
	startedAt := time.Now().UTC()
	completed := newCompletion(s.dispatcher)
	fields := map[string]any{
		"country_code": strings.TrimSpace(req.CountryCode),
		"phone_number": MaskPhoneNumber(req.PhoneNumber),
	}
	params, err := userParams(req)
	if err != nil {
		err = s.mapError(err)
		s.observeOperation(ctx, startedAt, "logout_user", err, fields)
		completed.fire(errorCallback(done, err))
		return
	}

	s.executor.Go(func() {
		resp, err := s.perform(ctx, EndpointLogout, params)
		fields["result_code"] = resp.ResultCode
		s.recordUserActivity(ctx, "logout_user", req, resp, err)
		s.observeOperation(ctx, startedAt, "logout_user", err, fields)
		completed.fire(errorCallback(done, err))
	})
}

// GetUserStatus queries the service for the verification status of a
// number. Any failure yields UserStatusUnknown alongside the error.
func (s *Service) GetUserStatus(ctx context.Context, req UserRequest, done func(UserStatus, error)) {
	startedAt := time.Now().UTC()
	completed := newCompletion(s.dispatcher)
	fields := map[string]any{
		"country_code": strings.TrimSpace(req.CountryCode),
		"phone_number": MaskPhoneNumber(req.PhoneNumber),
	}
	deliver := func(status UserStatus, err error) func() {
		if done == nil {
			return nil
		}
		return func() { done(status, err) }
	}
	params, err := userParams(req)
	if err != nil {
		err = s.mapError(err)
		s.observeOperation(ctx, startedAt, "get_user_status", err, fields)
		completed.fire(deliver(UserStatusUnknown, err))
		return
	}

	s.executor.Go(func() {
		resp, err := s.perform(ctx, EndpointSearch, params)
		status := resp.UserStatus
		if err != nil || status == "" {
			status = UserStatusUnknown
		}
		fields["result_code"] = resp.ResultCode
		fields["user_status"] = status.String()
		s.recordUserActivity(ctx, "get_user_status", req, resp, err)
		s.observeOperation(ctx, startedAt, "get_user_status", err, fields)
		completed.fire(deliver(status, err))
	})
}

// perform stamps device properties, sends the request and turns a non-zero
// result code into an error.
func (s *Service) perform(ctx context.Context, endpoint string, params map[string]string) (Response, error) {
	if err := s.addDeviceProperties(params); err != nil {
		return Response{}, s.mapError(err)
	}
	resp, err := s.gateway.PerformSignedRequest(ctx, SignedRequest{
		Path:      s.config.Endpoint(endpoint),
		Params:    params,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return Response{}, s.mapError(err)
	}
	if resp.ResultCode != ResultCodeOK {
		return resp, s.resultError(resp)
	}
	return resp, nil
}

func userParams(req UserRequest) (map[string]string, error) {
	number := strings.TrimSpace(req.PhoneNumber)
	if number == "" {
		return nil, VerifyErrorNumberRequired
	}
	params := map[string]string{ParamNumber: number}
	if country := strings.ToUpper(strings.TrimSpace(req.CountryCode)); country != "" {
		params[ParamCountryCode] = country
	}
	return params, nil
}

func errorCallback(fn func(error), err error) func() {
	if fn == nil {
		return nil
	}
	return func() { fn(err) }
}
