package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Wire parameter names shared by the coordinator and gateway implementations.
const (
	ParamNumber          = "number"
	ParamCountryCode     = "country"
	ParamDeviceID        = "device_id"
	ParamSourceIPAddress = "source_ip_address"
	ParamPushToken       = "push_token"
	ParamCode            = "code"
	ParamCommand         = "cmd"
	ParamStandalone      = "standalone"
	ParamAppID           = "app_id"
	ParamTimestamp       = "timestamp"
	ParamSignature       = "sig"
)

const (
	ControlCommandCancel           = "cancel"
	ControlCommandTriggerNextEvent = "trigger_next_event"
)

// NotificationPinKey is the payload field carrying a delivered PIN.
const NotificationPinKey = "pin"

// Endpoint identifiers resolved against Config.Endpoints.
const (
	EndpointVerify  = "verify"
	EndpointCheck   = "check"
	EndpointControl = "control"
	EndpointLogout  = "logout"
	EndpointSearch  = "search"
)

type SignedRequest struct {
	Path      string
	Params    map[string]string
	Post      bool
	Timestamp time.Time
}

// Response is the typed body returned by the verification service.
type Response struct {
	ResultCode    int
	ResultMessage string
	UserStatus    UserStatus
	Signature     string
	Timestamp     string
	MessageBody   string
}

// Gateway sends signed requests to the verification service. A non-nil
// error means no typed response was obtained.
type Gateway interface {
	PerformSignedRequest(ctx context.Context, req SignedRequest) (Response, error)
}

// DeviceProperties augments outgoing parameters with device facts. A false
// return aborts the enclosing operation before any request is sent.
type DeviceProperties interface {
	AddDeviceIdentifier(params map[string]string) bool
	AddIPAddress(params map[string]string) bool
}

// PinPresenter receives PINs from notifications that were not checked
// silently.
type PinPresenter interface {
	PresentPin(pin string)
}

// PushTokenSource supplies the push channel token attached to new
// non-standalone attempts.
type PushTokenSource interface {
	PushToken() string
}

// Dispatcher runs completion callbacks on the caller facing execution
// context.
type Dispatcher interface {
	Dispatch(fn func())
}

// Executor runs transport work off the caller's goroutine.
type Executor interface {
	Go(fn func())
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type ActivityEntry struct {
	ID          string
	Event       string
	AttemptID   string
	PhoneNumber string
	CountryCode string
	Status      UserStatus
	ResultCode  int
	Error       string
	Metadata    map[string]any
	OccurredAt  time.Time
}

// ActivitySink journals lifecycle events. Record failures are logged and
// never alter the outcome of an operation.
type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type ActivityFilter struct {
	AttemptID   string
	Event       string
	CountryCode string
	Status      UserStatus
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}

type ActivityPage struct {
	Items   []ActivityEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type ActivityReader interface {
	List(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

// VerifyCallbacks receive the outcome of a start. OnAttempt is not a terminal
// callback: it runs synchronously on the calling goroutine with the id of the
// attempt once it becomes current, before any transport work.
type VerifyCallbacks struct {
	OnAttempt  func(attemptID string)
	OnProgress func()
	OnVerified func()
	OnError    func(VerifyError)
}

type CheckCallbacks struct {
	OnVerified func()
	OnError    func(VerifyError)
}

type StartRequest struct {
	CountryCode string
	PhoneNumber string
	Standalone  bool
}

type CheckRequest struct {
	Pin         string
	CountryCode string
	PhoneNumber string
}

type UserRequest struct {
	CountryCode string
	PhoneNumber string
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Verifier is the coordinator surface consumed by the command and query
// layers.
type Verifier interface {
	StartVerification(ctx context.Context, req StartRequest, callbacks VerifyCallbacks)
	VerifyStandalone(ctx context.Context, req StartRequest, callbacks VerifyCallbacks)
	CheckPinCode(ctx context.Context, pin string, callbacks CheckCallbacks)
	CheckPinCodeFor(ctx context.Context, req CheckRequest, callbacks CheckCallbacks)
	CancelVerification(ctx context.Context, done func(error))
	TriggerNextEvent(ctx context.Context, done func(error))
	LogoutUser(ctx context.Context, req UserRequest, done func(error))
	GetUserStatus(ctx context.Context, req UserRequest, done func(UserStatus, error))
	HandleNotification(ctx context.Context, payload map[string]any, performSilentCheck bool) bool
	CurrentAttempt() (AttemptSnapshot, bool)
}
