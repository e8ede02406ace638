package fakesender

import (
	"context"
	"sync"

	"github.com/bigmini/auth-service/email"
)

var _ email.Sender = (*FakeSender)(nil)

type SentMail struct {
	Recipient       string
	VerificationURL string
}

// FakeSender records outgoing mail instead of delivering it. Setting Err
// simulates a delivery failure.
type FakeSender struct {
	Err  error
	sent []SentMail
	lock sync.Mutex
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (s *FakeSender) SendVerification(_ context.Context, recipient, verificationURL string) error {
	if s.Err != nil {
		return s.Err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent = append(s.sent, SentMail{Recipient: recipient, VerificationURL: verificationURL})
	return nil
}

func (s *FakeSender) Sent() []SentMail {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]SentMail(nil), s.sent...)
}
