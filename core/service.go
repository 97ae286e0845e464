package core

import (
	"context"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
)

// Service coordinates at most one verification attempt at a time. Transport
// work runs on the executor and every callback is delivered through the
// dispatcher.
type Service struct {
	config           Config
	logger           Logger
	loggerProvider   LoggerProvider
	metricsRecorder  MetricsRecorder
	errorMapper      ErrorMapper
	configProvider   ConfigProvider
	optionsResolver  OptionsResolver
	gateway          Gateway
	deviceProperties DeviceProperties
	pinPresenter     PinPresenter
	pushTokens       PushTokenSource
	dispatcher       Dispatcher
	executor         Executor
	activitySink     ActivitySink
	ownedDispatcher  *SerialDispatcher

	mu      sync.Mutex
	current *session
}

// session binds the current attempt to the callbacks registered when it was
// installed.
type session struct {
	attempt   *Attempt
	callbacks CheckCallbacks
	starting  bool
}

// live reports whether a new start must be rejected while s is current.
// Callers hold Service.mu.
func (s *session) live() bool {
	if s == nil || s.attempt == nil {
		return false
	}
	switch s.attempt.Status() {
	case UserStatusPending:
		return true
	case UserStatusNew:
		return s.starting
	default:
		return false
	}
}

type ServiceDependencies struct {
	Logger           Logger
	LoggerProvider   LoggerProvider
	MetricsRecorder  MetricsRecorder
	ErrorMapper      ErrorMapper
	ConfigProvider   ConfigProvider
	OptionsResolver  OptionsResolver
	Gateway          Gateway
	DeviceProperties DeviceProperties
	PinPresenter     PinPresenter
	PushTokenSource  PushTokenSource
	Dispatcher       Dispatcher
	Executor         Executor
	ActivitySink     ActivitySink
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("verify", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("verify"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.executor == nil {
		builder.executor = GoroutineExecutor{}
	}
	if builder.activitySink == nil {
		builder.activitySink = NopActivitySink{}
	}
	if builder.gateway == nil {
		return nil, mapBuildError(builder.errorMapper, ErrGatewayRequired)
	}
	if builder.deviceProperties == nil {
		return nil, mapBuildError(builder.errorMapper, ErrDevicePropertiesRequired)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	var owned *SerialDispatcher
	if builder.dispatcher == nil {
		owned = NewSerialDispatcher()
		builder.dispatcher = owned
	}

	return &Service{
		config:           finalConfig,
		logger:           logger,
		loggerProvider:   provider,
		metricsRecorder:  builder.metricsRecorder,
		errorMapper:      builder.errorMapper,
		configProvider:   builder.configProvider,
		optionsResolver:  builder.optionsResolver,
		gateway:          builder.gateway,
		deviceProperties: builder.deviceProperties,
		pinPresenter:     builder.pinPresenter,
		pushTokens:       builder.pushTokens,
		dispatcher:       builder.dispatcher,
		executor:         builder.executor,
		activitySink:     builder.activitySink,
		ownedDispatcher:  owned,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:           s.logger,
		LoggerProvider:   s.loggerProvider,
		MetricsRecorder:  s.metricsRecorder,
		ErrorMapper:      s.errorMapper,
		ConfigProvider:   s.configProvider,
		OptionsResolver:  s.optionsResolver,
		Gateway:          s.gateway,
		DeviceProperties: s.deviceProperties,
		PinPresenter:     s.pinPresenter,
		PushTokenSource:  s.pushTokens,
		Dispatcher:       s.dispatcher,
		Executor:         s.executor,
		ActivitySink:     s.activitySink,
	}
}

// CurrentAttempt returns a snapshot of the attempt held by the coordinator.
func (s *Service) CurrentAttempt() (AttemptSnapshot, bool) {
	if s == nil {
		return AttemptSnapshot{}, false
	}
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil || current.attempt == nil {
		return AttemptSnapshot{}, false
	}
	return current.attempt.Snapshot(), true
}

// Close drains and stops the dispatcher created by NewService. Dispatchers
// supplied through WithDispatcher are left to their owner.
func (s *Service) Close() error {
	if s == nil || s.ownedDispatcher == nil {
		return nil
	}
	s.ownedDispatcher.Close()
	return nil
}

func (s *Service) currentSession() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// clearSession empties the slot only while it still holds expected.
func (s *Service) clearSession(expected *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != expected {
		return false
	}
	s.current = nil
	return true
}

func (s *Service) pushToken(standalone bool) string {
	if standalone || s.pushTokens == nil {
		return ""
	}
	return strings.TrimSpace(s.pushTokens.PushToken())
}

// addDeviceProperties stamps the device identifier and source address onto
// params.
func (s *Service) addDeviceProperties(params map[string]string) error {
	if !s.deviceProperties.AddDeviceIdentifier(params) {
		return ErrDeviceIdentifierMissing
	}
	if !s.deviceProperties.AddIPAddress(params) {
		return ErrSourceIPAddressMissing
	}
	return nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// resultError converts a non-zero wire code into the mapped error envelope.
func (s *Service) resultError(resp Response) error {
	return s.mapError(NewResultError(resp.ResultCode, resp.ResultMessage))
}

func verifyErrorOf(err error) VerifyError {
	if kind, ok := VerifyErrorFromError(err); ok {
		return kind
	}
	return VerifyErrorInternal
}
