// internal/notify/delivery/errors.go
package delivery

import (
	"errors"
	"strings"

	stderrors "jobmatch-notifier/internal/common/errors"

	"github.com/aws/smithy-go"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// terminalErrorCodes are provider responses that no amount of retrying
// will fix: bad credentials, unverified sender, opted-out recipient.
var terminalErrorCodes = map[string]bool{
	"InvalidClientTokenId":          true,
	"UnrecognizedClientException":   true,
	"SignatureDoesNotMatch":         true,
	"AccessDenied":                  true,
	"AccessDeniedException":         true,
	"AuthorizationError":            true,
	"MailFromDomainNotVerified":     true,
	"AccountSendingPausedException": true,
}

// classifySendError maps a provider error onto the standard taxonomy.
func classifySendError(channel string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if terminalErrorCodes[code] || strings.Contains(code, "Credential") {
			return stderrors.NewDeliveryAuthError(channel, err)
		}
	}

	if channel == ChannelSMS {
		return stderrors.NewSMSSendError(err)
	}
	return stderrors.NewEmailSendError(err)
}
