// Package notify posts operational messages to the makerspace chat.
package notify

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/slack-go/slack"

	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/session"
)

// Notifier posts messages. Implementations never fail the caller.
type Notifier interface {
	Info(msg string)
	Error(msg string)
	Alert(msg string)
}

// Timeout bounds every chat request.
const Timeout = time.Second

// Slack posts to one Slack channel.
type Slack struct {
	client      *slack.Client
	session     *session.Session
	channelID   string
	hostname    string
	development bool
	apiURL      string
	httpClient  *http.Client
}

// Option configures a Slack notifier.
type Option func(*Slack)

// WithAPIURL points the client at another Slack API, used by tests.
func WithAPIURL(url string) Option { return func(s *Slack) { s.apiURL = url } }

// Development keeps alerts from pinging the whole channel.
func Development(on bool) Option { return func(s *Slack) { s.development = on } }

// NewSlack creates a notifier for channelID whose bot token is stored in
// tokenPath.
func NewSlack(tokenPath, channelID string, opts ...Option) *Slack {
	s := &Slack{
		channelID:  channelID,
		httpClient: &http.Client{Timeout: Timeout},
	}
	s.hostname, _ = os.Hostname()
	for _, opt := range opts {
		opt(s)
	}
	s.session = session.New("slack", tokenPath, session.ProberFunc(s.probe))
	return s
}

// Session returns the token session, used by the login command.
func (s *Slack) Session() *session.Session { return s.session }

func (s *Slack) newClient(token string) *slack.Client {
	opts := []slack.Option{slack.OptionHTTPClient(s.httpClient)}
	if s.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(s.apiURL))
	}
	return slack.New(token, opts...)
}

// probe checks a token by announcing the reconnect in the channel.
func (s *Slack) probe(ctx context.Context, token string) error {
	client := s.newClient(token)
	if err := s.send(ctx, client, "Slack client reconnected"); err != nil {
		return err
	}
	s.client = client
	return nil
}

func (s *Slack) send(ctx context.Context, client *slack.Client, msg string) error {
	_, _, err := client.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionText(s.hostname+": "+msg, false),
		slack.MsgOptionPostMessageParameters(slack.PostMessageParameters{LinkNames: 1}),
	)
	if err != nil && tokenRejected(err) {
		return session.ErrTokenExpired
	}
	return err
}

// tokenRejected reports whether Slack refused the token itself.
func tokenRejected(err error) bool {
	var resp slack.SlackErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	switch resp.Err {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return true
	}
	return false
}

func (s *Slack) post(msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	if err := s.session.Check(ctx); err != nil {
		logger.Debug("Slack not configured, dropping message", logger.F("message", msg), logger.Err(err))
		return
	}
	if s.client == nil {
		s.client = s.newClient(s.session.Token())
	}
	if err := s.send(ctx, s.client, msg); err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			logger.Error("Slack token is not valid anymore")
			s.session.Invalidate()
			s.client = nil
			return
		}
		logger.Error("Could not post to Slack", logger.F("message", msg), logger.Err(err))
	}
}

// Info posts msg as is.
func (s *Slack) Info(msg string) { s.post(msg) }

// Error posts msg marked as an error.
func (s *Slack) Error(msg string) { s.post("*Error*: " + msg) }

// Alert posts msg and, outside development, pings the channel.
func (s *Slack) Alert(msg string) {
	if s.development {
		s.post(msg)
		return
	}
	s.post("@channel - " + msg)
}

// Log writes messages to the log instead of a chat.
type Log struct{}

func (Log) Info(msg string)  { logger.Info("Notify", logger.F("message", msg)) }
func (Log) Error(msg string) { logger.Error("Notify", logger.F("message", msg)) }
func (Log) Alert(msg string) { logger.Warn("Notify alert", logger.F("message", msg)) }
