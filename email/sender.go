// Package email delivers transactional mail. Delivery is a blocking external
// call, so it sits behind the Sender interface and is injected into the core.
package email

import "context"

type Sender interface {
	// SendVerification delivers the account-activation mail containing the
	// verification link. A non-nil error means nothing was delivered.
	SendVerification(ctx context.Context, recipient, verificationURL string) error
}
