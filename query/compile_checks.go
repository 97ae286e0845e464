package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-verify/core"
)

var (
	_ gocmd.Querier[GetUserStatusMessage, core.UserStatus]       = (*GetUserStatusQuery)(nil)
	_ gocmd.Querier[CurrentAttemptMessage, core.AttemptSnapshot] = (*CurrentAttemptQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]      = (*ListActivityQuery)(nil)
)
