package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
		if kind, ok := VerifyErrorFromError(err); ok {
			contextFields["verify_error"] = string(kind)
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			contextFields["error_category"] = fmt.Sprint(richErr.Category)
			contextFields["error_text_code"] = richErr.TextCode
			if len(richErr.Metadata) > 0 {
				contextFields["error_metadata"] = RedactSensitiveMap(richErr.Metadata)
			}
		}
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"verify_error", "user_status", "country_code"} {
		if value := strings.TrimSpace(fmt.Sprint(contextFields[key])); value != "" && value != "<nil>" {
			tags[key] = value
		}
	}

	s.recordCounter(ctx, "verify."+operation+".total", 1, tags)
	s.recordHistogram(ctx, "verify."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		s.logError(ctx, operation+" failed", contextFields)
		return
	}
	s.logInfo(ctx, operation+" succeeded", contextFields)
}

func (s *Service) recordActivity(ctx context.Context, event string, attempt *Attempt, resp Response, err error) {
	if s == nil || s.activitySink == nil || attempt == nil {
		return
	}
	entry := ActivityEntry{
		Event:       normalizeOperation(event),
		AttemptID:   attempt.ID(),
		PhoneNumber: MaskPhoneNumber(attempt.PhoneNumber()),
		CountryCode: attempt.CountryCode(),
		Status:      attempt.Status(),
		ResultCode:  resp.ResultCode,
		Metadata: map[string]any{
			"standalone":      attempt.Standalone(),
			"reported_status": resp.UserStatus.String(),
		},
		OccurredAt: time.Now().UTC(),
	}
	s.writeActivity(ctx, entry, err)
}

func (s *Service) recordUserActivity(ctx context.Context, event string, req UserRequest, resp Response, err error) {
	if s == nil || s.activitySink == nil {
		return
	}
	status := resp.UserStatus
	if status == "" || err != nil {
		status = UserStatusUnknown
	}
	s.writeActivity(ctx, ActivityEntry{
		Event:       normalizeOperation(event),
		PhoneNumber: MaskPhoneNumber(req.PhoneNumber),
		CountryCode: strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		Status:      status,
		ResultCode:  resp.ResultCode,
		OccurredAt:  time.Now().UTC(),
	}, err)
}

func (s *Service) writeActivity(ctx context.Context, entry ActivityEntry, err error) {
	if err != nil {
		entry.Error = err.Error()
	}
	if recordErr := s.activitySink.Record(ctx, entry); recordErr != nil {
		s.logWarn(ctx, "activity record failed", map[string]any{
			"event":      entry.Event,
			"attempt_id": entry.AttemptID,
			"error":      recordErr.Error(),
		})
	}
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "info", message, fields)
}

func (s *Service) logWarn(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "warn", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "error", message, fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	fields = RedactSensitiveMap(fields)
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
