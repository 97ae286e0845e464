package core

// Wire result codes returned by the verification service in response bodies.
const (
	ResultCodeOK                                = 0
	ResultCodeResponseThrottled                 = 1
	ResultCodeInvalidAppID                      = 2
	ResultCodeInvalidToken                      = 3
	ResultCodeInvalidCredentials                = 4
	ResultCodeInternalError                     = 5
	ResultCodeUnroutableRequest                 = 6
	ResultCodeNumberBlacklisted                 = 7
	ResultCodeAccountBarred                     = 8
	ResultCodeQuotaExceeded                     = 9
	ResultCodeConcurrentVerificationsNotAllowed = 10
	ResultCodeInvalidSignature                  = 14
	ResultCodeDestinationNumberNotSupported     = 15
	ResultCodeInvalidPinCode                    = 16
	ResultCodeInvalidCodeTooManyTimes           = 17
	ResultCodeTooManyRequestIDs                 = 18
	ResultCodeCannotExecuteCommand              = 19
	ResultCodeInvalidDeviceID                   = 50
	ResultCodeInvalidSourceIPAddress            = 51
	ResultCodeSourceIPMismatch                  = 52
	ResultCodeInvalidNumber                     = 53
	ResultCodeInvalidCode                       = 54
	ResultCodeCannotPerformCheck                = 55
	ResultCodeVerificationRestarted             = 56
	ResultCodeVerificationExpiredRestarted      = 57
	ResultCodeSDKNotSupported                   = 58
	ResultCodeOSNotSupported                    = 59
	ResultCodeRequestRejected                   = 60
	ResultCodeInvalidCommand                    = 61
	ResultCodeInvalidUserStatusForCommand       = 62
)

// resultCodeErrors is read-only after init. Codes 0, 19, 56, 57 and 62 are
// deliberately absent.
var resultCodeErrors = map[int]VerifyError{
	ResultCodeResponseThrottled:                 VerifyErrorThrottled,
	ResultCodeInvalidAppID:                      VerifyErrorInvalidCredentials,
	ResultCodeInvalidToken:                      VerifyErrorInternal,
	ResultCodeInvalidCredentials:                VerifyErrorInvalidCredentials,
	ResultCodeInternalError:                     VerifyErrorInternal,
	ResultCodeUnroutableRequest:                 VerifyErrorInvalidNumber,
	ResultCodeNumberBlacklisted:                 VerifyErrorUserBlacklisted,
	ResultCodeAccountBarred:                     VerifyErrorAccountBarred,
	ResultCodeQuotaExceeded:                     VerifyErrorQuotaExceeded,
	ResultCodeConcurrentVerificationsNotAllowed: VerifyErrorInternal,
	ResultCodeInvalidSignature:                  VerifyErrorInvalidCredentials,
	ResultCodeDestinationNumberNotSupported:     VerifyErrorInvalidNumber,
	ResultCodeInvalidPinCode:                    VerifyErrorInvalidPinCode,
	ResultCodeInvalidCodeTooManyTimes:           VerifyErrorInvalidCodeTooManyTimes,
	ResultCodeTooManyRequestIDs:                 VerifyErrorInternal,
	ResultCodeInvalidDeviceID:                   VerifyErrorInternal,
	ResultCodeInvalidSourceIPAddress:            VerifyErrorInternal,
	ResultCodeSourceIPMismatch:                  VerifyErrorInternal,
	ResultCodeInvalidNumber:                     VerifyErrorInvalidNumber,
	ResultCodeInvalidCode:                       VerifyErrorInvalidPinCode,
	ResultCodeCannotPerformCheck:                VerifyErrorCannotPerformCheck,
	ResultCodeSDKNotSupported:                   VerifyErrorSDKRevisionNotSupported,
	ResultCodeOSNotSupported:                    VerifyErrorOSNotSupported,
	ResultCodeRequestRejected:                   VerifyErrorThrottled,
	ResultCodeInvalidCommand:                    VerifyErrorInternal,
}

// MapResultCode is total: codes without a table entry map to internal_error.
func MapResultCode(code int) VerifyError {
	if kind, ok := LookupResultCode(code); ok {
		return kind
	}
	return VerifyErrorInternal
}

// LookupResultCode returns the table entry for code, if any.
func LookupResultCode(code int) (VerifyError, bool) {
	kind, ok := resultCodeErrors[code]
	return kind, ok
}

// IsRestarted reports the two codes the service uses when it accepted a
// verify request by restarting an earlier verification.
func IsRestarted(code int) bool {
	return code == ResultCodeVerificationRestarted || code == ResultCodeVerificationExpiredRestarted
}

func acceptsVerifyResult(code int) bool {
	return code == ResultCodeOK || IsRestarted(code)
}
