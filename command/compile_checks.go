package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[StartVerificationMessage]  = (*StartVerificationCommand)(nil)
	_ gocmd.Commander[CheckPinCodeMessage]       = (*CheckPinCodeCommand)(nil)
	_ gocmd.Commander[CancelVerificationMessage] = (*CancelVerificationCommand)(nil)
	_ gocmd.Commander[TriggerNextEventMessage]   = (*TriggerNextEventCommand)(nil)
	_ gocmd.Commander[LogoutUserMessage]         = (*LogoutUserCommand)(nil)
	_ gocmd.Commander[HandleNotificationMessage] = (*HandleNotificationCommand)(nil)
)
