package command

const (
	TypeStartVerification  = "verify.command.verification.start"
	TypeCheckPinCode       = "verify.command.pin_code.check"
	TypeCancelVerification = "verify.command.verification.cancel"
	TypeTriggerNextEvent   = "verify.command.verification.next_event"
	TypeLogoutUser         = "verify.command.user.logout"
	TypeHandleNotification = "verify.command.notification.handle"
)

type StartVerificationMessage struct {
	CountryCode string `validate:"omitempty,alpha,len=2"`
	PhoneNumber string `validate:"required"`
	Standalone  bool
}

func (StartVerificationMessage) Type() string { return TypeStartVerification }

func (m StartVerificationMessage) Validate() error {
	return validateStruct(m)
}

// CheckPinCodeMessage checks against the current attempt, or against the
// given number when PhoneNumber is set.
type CheckPinCodeMessage struct {
	Pin         string `validate:"required"`
	CountryCode string `validate:"omitempty,alpha,len=2"`
	PhoneNumber string
}

func (CheckPinCodeMessage) Type() string { return TypeCheckPinCode }

func (m CheckPinCodeMessage) Validate() error {
	return validateStruct(m)
}

type CancelVerificationMessage struct{}

func (CancelVerificationMessage) Type() string { return TypeCancelVerification }

func (CancelVerificationMessage) Validate() error { return nil }

type TriggerNextEventMessage struct{}

func (TriggerNextEventMessage) Type() string { return TypeTriggerNextEvent }

func (TriggerNextEventMessage) Validate() error { return nil }

type LogoutUserMessage struct {
	CountryCode string `validate:"omitempty,alpha,len=2"`
	PhoneNumber string `validate:"required"`
}

func (LogoutUserMessage) Type() string { return TypeLogoutUser }

func (m LogoutUserMessage) Validate() error {
	return validateStruct(m)
}

type HandleNotificationMessage struct {
	Payload            map[string]any `validate:"required"`
	PerformSilentCheck bool
}

func (HandleNotificationMessage) Type() string { return TypeHandleNotification }

func (m HandleNotificationMessage) Validate() error {
	return validateStruct(m)
}
