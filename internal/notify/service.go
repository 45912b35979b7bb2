package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage"
)

var (
	ErrAlreadySent = errors.New("Welcome email has already been sent to this recipient")
	ErrNoRecipient = errors.New("Email is required to send confirmation")
	ErrNoEvents    = errors.New("No events selected for attendance")
)

// Notifier sends guest e-mails for stored responses.
type Notifier interface {
	SendConfirmation(ctx context.Context, responseID string) error
	SendWelcome(ctx context.Context, responseID string) error
	SendWelcomeBulk(ctx context.Context) (BulkResult, error)
}

// BulkResult counts the outcome of a bulk send.
type BulkResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Service renders messages from stored responses and hands them to a Sender.
type Service struct {
	store   storage.Store
	sender  Sender
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// BulkRate is how many messages per second a bulk send may deliver.
const BulkRate = 2

func NewService(store storage.Store, sender Sender, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		sender:  sender,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(BulkRate), BulkRate),
		logger:  logger,
	}
}

// SendConfirmation e-mails the guest the events they are attending.
func (s *Service) SendConfirmation(ctx context.Context, responseID string) error {
	resp, err := s.store.GetResponse(ctx, responseID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Email) == "" {
		return ErrNoRecipient
	}
	if !resp.Events.Any() {
		return ErrNoEvents
	}

	msg, err := RenderConfirmation(resp, s.baseURL)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("confirmation email sent", "response_id", resp.ID, "invite_id", resp.InviteID)
	return nil
}

// SendWelcome sends the welcome message once per response and records that
// it went out.
func (s *Service) SendWelcome(ctx context.Context, responseID string) error {
	resp, err := s.store.GetResponse(ctx, responseID)
	if err != nil {
		return err
	}
	return s.sendWelcome(ctx, resp)
}

func (s *Service) sendWelcome(ctx context.Context, resp *domain.Response) error {
	if resp.WelcomeEmailSent {
		return ErrAlreadySent
	}
	if strings.TrimSpace(resp.Email) == "" {
		return ErrNoRecipient
	}

	msg, err := RenderWelcome(resp, s.baseURL)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return err
	}

	// updated_at is left alone so the edit button label stays accurate.
	if err := s.store.MarkWelcomeSent(ctx, resp.ID); err != nil {
		return fmt.Errorf("failed to record welcome email: %w", err)
	}
	s.logger.Info("welcome email sent", "response_id", resp.ID)
	return nil
}

// SendWelcomeBulk sends the welcome message to every response that has an
// e-mail and has not had one yet. Individual failures are logged and
// counted; only a failure to list responses or a cancelled ctx is returned.
func (s *Service) SendWelcomeBulk(ctx context.Context) (BulkResult, error) {
	var res BulkResult

	responses, err := s.store.ListResponses(ctx)
	if err != nil {
		return res, err
	}

	for _, resp := range responses {
		if resp.WelcomeEmailSent || strings.TrimSpace(resp.Email) == "" {
			res.Skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return res, err
		}
		if err := s.sendWelcome(ctx, resp); err != nil {
			res.Failed++
			s.logger.Warn("welcome email failed", "response_id", resp.ID, "error", err)
			continue
		}
		res.Sent++
	}

	s.logger.Info("bulk welcome finished", "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

// Disabled is a Sender used when no SMTP relay is configured.
type Disabled struct{}

// ErrMailDisabled is returned by Disabled.
var ErrMailDisabled = errors.New("email delivery is not configured")

func (Disabled) Send(context.Context, Message) error {
	return ErrMailDisabled
}

var _ Notifier = (*Service)(nil)
