package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/model"
	"github.com/existflow/memberbooth/internal/session"
)

// Memberbooth endpoints of the directory API.
const (
	TagPath      = "/multiaccess/memberbooth/tag"
	MemberPath   = "/multiaccess/memberbooth/member"
	PinLoginPath = "/multiaccess/memberbooth/pinlogin"
	LabelPath    = "/multiaccess/memberbooth/label"
)

const (
	// Timeout bounds every directory request.
	Timeout = 5 * time.Second
	// PinAttemptsPerMinute limits PIN logins from this kiosk.
	PinAttemptsPerMinute = 5
)

// Client talks to the makeradmin member directory over HTTP.
type Client struct {
	baseURL    string
	session    *session.Session
	httpClient *http.Client
	pinLimiter *rate.Limiter
	now        func() time.Time
}

// NewClient creates a client for baseURL that keeps its token in tokenPath.
func NewClient(baseURL, tokenPath string) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: Timeout},
		pinLimiter: rate.NewLimiter(rate.Every(time.Minute/PinAttemptsPerMinute), PinAttemptsPerMinute),
		now:        time.Now,
	}
	c.session = session.New("makeradmin", tokenPath, session.ProberFunc(c.probe))
	return c
}

// Session returns the token session, used by the login command.
func (c *Client) Session() *session.Session { return c.session }

// Check loads and validates the stored token if needed.
func (c *Client) Check(ctx context.Context) error {
	return c.session.Check(ctx)
}

// probe checks a token by looking up a tag that cannot exist.
func (c *Client) probe(ctx context.Context, token string) error {
	_, status, err := c.do(ctx, http.MethodGet, TagPath, url.Values{"tagid": {"0"}}, nil, token)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		logger.Warn("Token not logged in with correct permissions", logger.F("status", status))
		return session.ErrTokenExpired
	case status != http.StatusOK:
		return unexpectedStatus(status)
	}
	return nil
}

// MemberByTag looks up the owner of a key tag.
func (c *Client) MemberByTag(ctx context.Context, tag string) (model.Member, error) {
	body, err := c.call(ctx, http.MethodGet, TagPath, url.Values{"tagid": {tag}}, nil)
	if err != nil {
		return model.Member{}, err
	}
	return parseMember(body)
}

// MemberByNumber looks up a member without authenticating them. Only the
// command line tools use it.
func (c *Client) MemberByNumber(ctx context.Context, number int) (model.Member, error) {
	q := url.Values{"member_number": {strconv.Itoa(number)}}
	body, err := c.call(ctx, http.MethodGet, MemberPath, q, nil)
	if err != nil {
		return model.Member{}, err
	}
	return parseMember(body)
}

type pinLoginRequest struct {
	MemberNumber int    `json:"member_number"`
	PinCode      string `json:"pin_code"`
}

// MemberByNumberAndPIN authenticates a member by number and PIN code.
func (c *Client) MemberByNumberAndPIN(ctx context.Context, number int, pin string) (model.Member, error) {
	if !c.pinLimiter.AllowN(c.now(), 1) {
		return model.Member{}, ErrTooManyAttempts
	}
	body, err := c.call(ctx, http.MethodPost, PinLoginPath, nil, pinLoginRequest{number, pin})
	if err != nil {
		var se statusError
		if errors.As(err, &se) && se.status == http.StatusBadRequest {
			return model.Member{}, ErrIncorrectPin
		}
		return model.Member{}, err
	}
	return parseMember(body)
}

// UploadLabel stores l in the directory, which assigns the public URL its
// QR code points at.
func (c *Client) UploadLabel(ctx context.Context, l model.Label) (model.UploadedLabel, error) {
	raw, err := model.MarshalLabel(l)
	if err != nil {
		return model.UploadedLabel{}, err
	}
	body, err := c.call(ctx, http.MethodPost, LabelPath, nil, json.RawMessage(raw))
	if err != nil {
		return model.UploadedLabel{}, err
	}

	var resp struct {
		Data *model.UploadedLabel `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.UploadedLabel{}, fmt.Errorf("%w: %v", model.ErrBackendParse, err)
	}
	if resp.Data == nil || resp.Data.PublicURL == "" {
		return model.UploadedLabel{}, fmt.Errorf("%w: missing uploaded label", model.ErrBackendParse)
	}
	return *resp.Data, nil
}

// call runs an authenticated request. A rejected token invalidates the
// session.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if err := c.session.Check(ctx); err != nil {
		return nil, err
	}
	body, status, err := c.do(ctx, method, path, query, payload, c.session.Token())
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.session.Invalidate()
		return nil, session.ErrTokenExpired
	case status >= 500:
		return nil, fmt.Errorf("%w: %w", ErrNetwork, unexpectedStatus(status))
	case status != http.StatusOK:
		return nil, unexpectedStatus(status)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, token string) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Could not connect to directory", logger.F("url", path), logger.Err(err))
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	return body, resp.StatusCode, nil
}

type statusError struct {
	status int
}

func (e statusError) Error() string {
	return fmt.Sprintf("directory: unexpected status %d %s", e.status, http.StatusText(e.status))
}

func unexpectedStatus(status int) error { return statusError{status} }

func parseMember(body []byte) (model.Member, error) {
	m, err := model.ParseMemberResponse(body)
	if err != nil {
		return model.Member{}, err
	}
	if m == nil {
		return model.Member{}, ErrNoMatchingIdentity
	}
	return *m, nil
}
