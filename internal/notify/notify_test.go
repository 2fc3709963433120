package notify

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlack struct {
	mu    sync.Mutex
	token string
	texts []string
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.PostForm.Get("token")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if token != f.token {
		fmt.Fprint(w, `{"ok": false, "error": "invalid_auth"}`)
		return
	}
	f.texts = append(f.texts, r.PostForm.Get("text"))
	fmt.Fprint(w, `{"ok": true, "channel": "C123", "ts": "1700000000.000100"}`)
}

func (f *fakeSlack) posted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func newNotifier(t *testing.T, stored string, opts ...Option) (*Slack, *fakeSlack, string) {
	t.Helper()
	fake := &fakeSlack{token: "xoxb-good"}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "slack.token")
	if stored != "" {
		require.NoError(t, os.WriteFile(path, []byte(stored), 0600))
	}
	s := NewSlack(path, "C123", append([]Option{WithAPIURL(srv.URL + "/")}, opts...)...)
	s.hostname = "booth"
	return s, fake, path
}

func TestPrefixes(t *testing.T) {
	s, fake, _ := newNotifier(t, "xoxb-good")

	s.Info("Label printed")
	s.Error("Printer jammed")
	s.Alert("Application was forcefully quit")

	assert.Equal(t, []string{
		"booth: Slack client reconnected",
		"booth: Label printed",
		"booth: *Error*: Printer jammed",
		"booth: @channel - Application was forcefully quit",
	}, fake.posted())
}

func TestDevelopmentAlertDoesNotPing(t *testing.T) {
	s, fake, _ := newNotifier(t, "xoxb-good", Development(true))

	s.Alert("Application was forcefully quit")

	posted := fake.posted()
	require.Len(t, posted, 2)
	assert.Equal(t, "booth: Application was forcefully quit", posted[1])
}

func TestUnconfiguredDropsMessages(t *testing.T) {
	s, fake, _ := newNotifier(t, "")

	s.Info("nobody hears this")
	assert.Empty(t, fake.posted())
}

func TestRejectedTokenIsRemoved(t *testing.T) {
	s, fake, path := newNotifier(t, "xoxb-stale")

	s.Info("hello")
	assert.Empty(t, fake.posted())
	assert.NoFileExists(t, path)
}

func TestRevokedTokenInvalidatesSession(t *testing.T) {
	s, fake, path := newNotifier(t, "xoxb-good")
	s.Info("first")
	require.Len(t, fake.posted(), 2)

	fake.mu.Lock()
	fake.token = "xoxb-rotated"
	fake.mu.Unlock()

	s.Info("second")
	assert.Len(t, fake.posted(), 2)
	assert.NoFileExists(t, path)
	assert.Empty(t, s.Session().Token())
}

func TestTokenRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"revoked", slack.SlackErrorResponse{Err: "token_revoked"}, true},
		{"wrapped invalid auth", fmt.Errorf("post: %w", slack.SlackErrorResponse{Err: "invalid_auth"}), true},
		{"other api error", slack.SlackErrorResponse{Err: "channel_not_found"}, false},
		{"plain error mentioning a code", errors.New("proxy said invalid_auth"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenRejected(tt.err))
		})
	}
}

func TestLogNotifier(t *testing.T) {
	var n Notifier = Log{}
	n.Info("a")
	n.Error("b")
	n.Alert("c")
}
