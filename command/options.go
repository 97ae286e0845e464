package command

import (
	"context"

	"github.com/goliatone/go-verify/core"
)

// StatusInvalidator drops a cached status lookup for a number.
// query.CachedUserStatusReader satisfies it.
type StatusInvalidator interface {
	Invalidate(ctx context.Context, req core.UserRequest) error
}

type Option func(*handlerOptions)

type handlerOptions struct {
	invalidator StatusInvalidator
}

// WithStatusInvalidator makes start, check and logout commands drop the
// cached status of the number they changed.
func WithStatusInvalidator(invalidator StatusInvalidator) Option {
	return func(o *handlerOptions) {
		o.invalidator = invalidator
	}
}

func resolveOptions(opts []Option) handlerOptions {
	out := handlerOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&out)
	}
	return out
}

// invalidateStatus is best effort: a failed cache delete must not turn a
// completed verification step into an error.
func (o handlerOptions) invalidateStatus(ctx context.Context, countryCode, phoneNumber string) {
	if o.invalidator == nil || phoneNumber == "" {
		return
	}
	_ = o.invalidator.Invalidate(ctx, core.UserRequest{
		CountryCode: countryCode,
		PhoneNumber: phoneNumber,
	})
}
