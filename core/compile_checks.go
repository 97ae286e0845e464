package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Verifier        = (*Service)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ ActivitySink    = NopActivitySink{}
	_ Dispatcher      = (*SerialDispatcher)(nil)
	_ Dispatcher      = InlineDispatcher{}
	_ Executor        = GoroutineExecutor{}
	_ Executor        = InlineExecutor{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
