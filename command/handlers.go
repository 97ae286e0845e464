package command

import (
	"context"
	"strings"
	"sync"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-verify/core"
)

// StartResult reports how a start request settled: pending while a PIN is
// awaited, or verified when the service already knows the number.
type StartResult struct {
	AttemptID string
	Status    core.UserStatus
}

type CheckResult struct {
	Status core.UserStatus
}

type NotificationResult struct {
	Handled bool
}

type StartVerificationCommand struct {
	service core.Verifier
	options handlerOptions
}

func NewStartVerificationCommand(service core.Verifier, opts ...Option) *StartVerificationCommand {
	return &StartVerificationCommand{service: service, options: resolveOptions(opts)}
}

// Execute blocks until the attempt reports progress, verification or an
// error.
func (c *StartVerificationCommand) Execute(ctx context.Context, msg StartVerificationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	req := core.StartRequest{
		CountryCode: msg.CountryCode,
		PhoneNumber: msg.PhoneNumber,
		Standalone:  msg.Standalone,
	}
	var mu sync.Mutex
	attemptID := ""
	out, err := await(ctx, func(deliver func(verifyOutcome)) {
		callbacks := core.VerifyCallbacks{
			OnAttempt: func(id string) {
				mu.Lock()
				attemptID = id
				mu.Unlock()
			},
			OnProgress: func() { deliver(verifyOutcome{status: core.UserStatusPending}) },
			OnVerified: func() { deliver(verifyOutcome{status: core.UserStatusVerified}) },
			OnError:    func(kind core.VerifyError) { deliver(verifyOutcome{kind: kind}) },
		}
		if msg.Standalone {
			c.service.VerifyStandalone(ctx, req, callbacks)
			return
		}
		c.service.StartVerification(ctx, req, callbacks)
	})
	if err != nil {
		return err
	}
	if out.kind != "" {
		return out.kind.Err()
	}
	c.options.invalidateStatus(ctx, msg.CountryCode, msg.PhoneNumber)
	mu.Lock()
	result := StartResult{AttemptID: attemptID, Status: out.status}
	mu.Unlock()
	storeResult(ctx, result)
	return nil
}

type CheckPinCodeCommand struct {
	service core.Verifier
	options handlerOptions
}

func NewCheckPinCodeCommand(service core.Verifier, opts ...Option) *CheckPinCodeCommand {
	return &CheckPinCodeCommand{service: service, options: resolveOptions(opts)}
}

func (c *CheckPinCodeCommand) Execute(ctx context.Context, msg CheckPinCodeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	sessionless := strings.TrimSpace(msg.PhoneNumber) != ""
	countryCode, phoneNumber := msg.CountryCode, msg.PhoneNumber
	if !sessionless {
		// The coordinator ignores checks without a checkable attempt and
		// would never answer.
		snapshot, ok := c.service.CurrentAttempt()
		if !ok || (snapshot.Status != core.UserStatusPending && !snapshot.Standalone) {
			return commandConflictError("command: no verification attempt awaiting a pin code")
		}
		countryCode, phoneNumber = snapshot.CountryCode, snapshot.PhoneNumber
	}
	out, err := await(ctx, func(deliver func(verifyOutcome)) {
		callbacks := core.CheckCallbacks{
			OnVerified: func() { deliver(verifyOutcome{status: core.UserStatusVerified}) },
			OnError:    func(kind core.VerifyError) { deliver(verifyOutcome{kind: kind}) },
		}
		if sessionless {
			c.service.CheckPinCodeFor(ctx, core.CheckRequest{
				Pin:         msg.Pin,
				CountryCode: msg.CountryCode,
				PhoneNumber: msg.PhoneNumber,
			}, callbacks)
			return
		}
		c.service.CheckPinCode(ctx, msg.Pin, callbacks)
	})
	if err != nil {
		return err
	}
	if out.kind != "" {
		return out.kind.Err()
	}
	c.options.invalidateStatus(ctx, countryCode, phoneNumber)
	storeResult(ctx, CheckResult{Status: out.status})
	return nil
}

type CancelVerificationCommand struct {
	service core.Verifier
}

func NewCancelVerificationCommand(service core.Verifier) *CancelVerificationCommand {
	return &CancelVerificationCommand{service: service}
}

func (c *CancelVerificationCommand) Execute(ctx context.Context, _ CancelVerificationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	return awaitDone(ctx, func(done func(error)) {
		c.service.CancelVerification(ctx, done)
	})
}

type TriggerNextEventCommand struct {
	service core.Verifier
}

func NewTriggerNextEventCommand(service core.Verifier) *TriggerNextEventCommand {
	return &TriggerNextEventCommand{service: service}
}

func (c *TriggerNextEventCommand) Execute(ctx context.Context, _ TriggerNextEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	return awaitDone(ctx, func(done func(error)) {
		c.service.TriggerNextEvent(ctx, done)
	})
}

type LogoutUserCommand struct {
	service core.Verifier
	options handlerOptions
}

func NewLogoutUserCommand(service core.Verifier, opts ...Option) *LogoutUserCommand {
	return &LogoutUserCommand{service: service, options: resolveOptions(opts)}
}

func (c *LogoutUserCommand) Execute(ctx context.Context, msg LogoutUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	err := awaitDone(ctx, func(done func(error)) {
		c.service.LogoutUser(ctx, core.UserRequest{
			CountryCode: msg.CountryCode,
			PhoneNumber: msg.PhoneNumber,
		}, done)
	})
	if err != nil {
		return err
	}
	c.options.invalidateStatus(ctx, msg.CountryCode, msg.PhoneNumber)
	return nil
}

type HandleNotificationCommand struct {
	service core.Verifier
}

func NewHandleNotificationCommand(service core.Verifier) *HandleNotificationCommand {
	return &HandleNotificationCommand{service: service}
}

func (c *HandleNotificationCommand) Execute(ctx context.Context, msg HandleNotificationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: verification service is required")
	}
	handled := c.service.HandleNotification(ctx, msg.Payload, msg.PerformSilentCheck)
	storeResult(ctx, NotificationResult{Handled: handled})
	return nil
}

type verifyOutcome struct {
	status core.UserStatus
	kind   core.VerifyError
}

// await registers a one-shot callback through register and waits for it or
// for ctx to end. Deliveries after the first are dropped.
func await[T any](ctx context.Context, register func(deliver func(T))) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan T, 1)
	register(func(value T) {
		select {
		case ch <- value:
		default:
		}
	})
	select {
	case value := <-ch:
		return value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func awaitDone(ctx context.Context, register func(done func(error))) error {
	result, err := await(ctx, func(deliver func(error)) {
		register(func(err error) { deliver(err) })
	})
	if err != nil {
		return err
	}
	return result
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
