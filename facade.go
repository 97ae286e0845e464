package verify

import (
	"context"
	"fmt"

	gocmd "github.com/goliatone/go-command"
	verifycommand "github.com/goliatone/go-verify/command"
	"github.com/goliatone/go-verify/core"
	verifyquery "github.com/goliatone/go-verify/query"
)

type Commands struct {
	StartVerification  *verifycommand.StartVerificationCommand
	CheckPinCode       *verifycommand.CheckPinCodeCommand
	CancelVerification *verifycommand.CancelVerificationCommand
	TriggerNextEvent   *verifycommand.TriggerNextEventCommand
	LogoutUser         *verifycommand.LogoutUserCommand
	HandleNotification *verifycommand.HandleNotificationCommand
}

type Queries struct {
	GetUserStatus  *verifyquery.GetUserStatusQuery
	CurrentAttempt *verifyquery.CurrentAttemptQuery
	ListActivity   *verifyquery.ListActivityQuery
}

// Facade exposes the blocking command and query handlers over a verifier.
type Facade struct {
	service  core.Verifier
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader core.ActivityReader
	statusReader   verifyquery.UserStatusReader
}

func WithActivityReader(reader core.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

// WithStatusReader replaces the status lookup, typically with a
// query.CachedUserStatusReader.
func WithStatusReader(reader verifyquery.UserStatusReader) FacadeOption {
	return func(options *facadeOptions) {
		options.statusReader = reader
	}
}

func NewFacade(service core.Verifier, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("verify: verifier is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	statusReader := cfg.statusReader
	if statusReader == nil {
		statusReader = verifyquery.VerifierStatusReader{Verifier: service}
	}
	activityReader := cfg.activityReader
	if activityReader == nil {
		activityReader = resolveActivityReader(service)
	}

	var commandOpts []verifycommand.Option
	if invalidator, ok := statusReader.(verifycommand.StatusInvalidator); ok {
		commandOpts = append(commandOpts, verifycommand.WithStatusInvalidator(invalidator))
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		StartVerification:  verifycommand.NewStartVerificationCommand(service, commandOpts...),
		CheckPinCode:       verifycommand.NewCheckPinCodeCommand(service, commandOpts...),
		CancelVerification: verifycommand.NewCancelVerificationCommand(service),
		TriggerNextEvent:   verifycommand.NewTriggerNextEventCommand(service),
		LogoutUser:         verifycommand.NewLogoutUserCommand(service, commandOpts...),
		HandleNotification: verifycommand.NewHandleNotificationCommand(service),
	}
	facade.queries = Queries{
		GetUserStatus:  verifyquery.NewGetUserStatusQuery(statusReader),
		CurrentAttempt: verifyquery.NewCurrentAttemptQuery(service),
		ListActivity:   verifyquery.NewListActivityQuery(activityReader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() core.Verifier {
	if f == nil {
		return nil
	}
	return f.service
}

// Start validates msg, starts an attempt and waits until it is pending,
// verified or failed.
func (f *Facade) Start(ctx context.Context, msg verifycommand.StartVerificationMessage) (verifycommand.StartResult, error) {
	if err := msg.Validate(); err != nil {
		return verifycommand.StartResult{}, err
	}
	return execute[verifycommand.StartVerificationMessage, verifycommand.StartResult](ctx, f.Commands().StartVerification, msg)
}

// Check validates msg and waits for the outcome of the PIN check.
func (f *Facade) Check(ctx context.Context, msg verifycommand.CheckPinCodeMessage) (verifycommand.CheckResult, error) {
	if err := msg.Validate(); err != nil {
		return verifycommand.CheckResult{}, err
	}
	return execute[verifycommand.CheckPinCodeMessage, verifycommand.CheckResult](ctx, f.Commands().CheckPinCode, msg)
}

func (f *Facade) UserStatus(ctx context.Context, msg verifyquery.GetUserStatusMessage) (core.UserStatus, error) {
	if err := msg.Validate(); err != nil {
		return core.UserStatusUnknown, err
	}
	handler := f.Queries().GetUserStatus
	if handler == nil {
		return core.UserStatusUnknown, fmt.Errorf("verify: facade is not configured")
	}
	return handler.Query(ctx, msg)
}

func execute[T any, R any](ctx context.Context, handler gocmd.Commander[T], msg T) (R, error) {
	var zero R
	if handler == nil {
		return zero, fmt.Errorf("verify: facade is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	collector := gocmd.NewResult[R]()
	if err := handler.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	out, _ := collector.Load()
	return out, nil
}

func resolveActivityReader(service core.Verifier) core.ActivityReader {
	if reader, ok := service.(core.ActivityReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	reader, ok := provider.Dependencies().ActivitySink.(core.ActivityReader)
	if !ok {
		return nil
	}
	return reader
}
