package verify

import (
	"context"
	"fmt"

	"github.com/goliatone/go-verify/core"
	"github.com/goliatone/go-verify/device"
	"github.com/goliatone/go-verify/transport"
)

type Config = core.Config

type EndpointsConfig = core.EndpointsConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Gateway = core.Gateway
type DeviceProperties = core.DeviceProperties
type ActivitySink = core.ActivitySink
type ActivityReader = core.ActivityReader

type StartRequest = core.StartRequest
type CheckRequest = core.CheckRequest
type UserRequest = core.UserRequest

type VerifyCallbacks = core.VerifyCallbacks
type CheckCallbacks = core.CheckCallbacks

type UserStatus = core.UserStatus
type VerifyError = core.VerifyError

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithGateway          = core.WithGateway
	WithDeviceProperties = core.WithDeviceProperties
	WithPinPresenter     = core.WithPinPresenter
	WithPushTokenSource  = core.WithPushTokenSource
	WithDispatcher       = core.WithDispatcher
	WithExecutor         = core.WithExecutor
	WithActivitySink     = core.WithActivitySink
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewService builds a coordinator from explicit collaborators. A gateway and
// device properties must be supplied through options.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

// Setup builds a coordinator that talks to the verification service over
// HTTP and reads device properties from the host. Gateway and device options
// passed in opts take precedence.
func Setup(cfg Config, opts ...Option) (*Service, error) {
	ref := &gatewayRef{}
	base := []Option{
		core.WithGateway(ref),
		core.WithDeviceProperties(device.NewProperties()),
	}
	svc, err := core.NewService(cfg, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if svc.Dependencies().Gateway != core.Gateway(ref) {
		return svc, nil
	}
	gateway, err := transport.NewHTTPGateway(svc.Config())
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	ref.gateway = gateway
	return svc, nil
}

// gatewayRef lets Setup build the HTTP gateway from the resolved service
// config.
type gatewayRef struct {
	gateway core.Gateway
}

func (g *gatewayRef) PerformSignedRequest(ctx context.Context, req core.SignedRequest) (core.Response, error) {
	if g.gateway == nil {
		return core.Response{}, fmt.Errorf("verify: gateway is not configured")
	}
	return g.gateway.PerformSignedRequest(ctx, req)
}
