// Package auth talks to the external login API and the user directory.
//
// The directory speaks a PostgREST-style dialect: rows live under
// /user_profiles, filters are query params like email=eq.<value>, and
// embedded family_members come back nested inside each profile row.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"otto/internal/httpclient"
	"otto/internal/jsonx"
	"otto/internal/logging"
)

// ErrDuplicateUser reports a signup for an email that already exists.
var ErrDuplicateUser = errors.New("user already exists")

// ErrProfileNotFound reports a directory lookup that matched no rows.
var ErrProfileNotFound = errors.New("user profile not found")

// loginSuccessMessage is the exact marker the login API returns on success.
const loginSuccessMessage = "Login successful"

// Client wraps both upstream auth services.
type Client struct {
	http         *http.Client
	loginURL     string
	directoryURL string
	directoryKey string
	limit        int64
	logger       logging.Logger
}

// Options configures a Client.
type Options struct {
	HTTPClient   *http.Client
	LoginURL     string
	DirectoryURL string
	DirectoryKey string
	// ResponseLimit caps upstream response bodies in bytes. Zero means 4 MiB.
	ResponseLimit int64
	Logger        logging.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(0, opts.Logger)
	}
	limit := opts.ResponseLimit
	if limit <= 0 {
		limit = 4 << 20
	}
	return &Client{
		http:         httpClient,
		loginURL:     opts.LoginURL,
		directoryURL: strings.TrimRight(opts.DirectoryURL, "/"),
		directoryKey: opts.DirectoryKey,
		limit:        limit,
		logger:       logging.OrNop(opts.Logger),
	}
}

// LoginResult is the login API reply.
type LoginResult struct {
	Message string           `json:"message"`
	Raw     jsonx.RawMessage `json:"-"`
}

// Succeeded reports whether the login API accepted the credentials.
func (r *LoginResult) Succeeded() bool {
	return r != nil && r.Message == loginSuccessMessage
}

// Login checks the credentials against the external login API.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := jsonx.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}

	result := &LoginResult{Raw: jsonx.RawMessage(data)}
	if err := jsonx.Unmarshal(data, result); err != nil {
		c.logger.Warn("Login API returned non-JSON body: %v", err)
	}
	return result, nil
}

// Profile is a directory row reshaped for the UI: the profile fields with
// the embedded family members pulled out into their own list.
type Profile struct {
	UserProfile   map[string]any   `json:"user_profiles"`
	FamilyMembers []map[string]any `json:"family_members"`
}

// Name returns the best available display name for the profile.
func (p *Profile) Name() string {
	if name, ok := p.UserProfile["full_name"].(string); ok && name != "" {
		return name
	}
	name, _ := p.UserProfile["name"].(string)
	return name
}

// FetchProfile loads the first profile row for an email, family members
// included. Returns ErrProfileNotFound when the directory has no row.
func (c *Client) FetchProfile(ctx context.Context, email string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/user_profiles?select=%s&email=%s",
		c.directoryURL,
		url.QueryEscape("*,family_members(*)"),
		url.QueryEscape("eq."+email),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	c.setDirectoryHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, directoryError(resp.StatusCode, data)
	}

	var rows []map[string]any
	if err := jsonx.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode profile rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileNotFound
	}

	row := rows[0]
	profile := &Profile{FamilyMembers: []map[string]any{}}
	if embedded, ok := row["family_members"].([]any); ok {
		for _, member := range embedded {
			if m, ok := member.(map[string]any); ok {
				profile.FamilyMembers = append(profile.FamilyMembers, m)
			}
		}
	}
	delete(row, "family_members")
	profile.UserProfile = row
	return profile, nil
}

// Signup inserts a new user row. The directory takes rows as an array.
// Returns ErrDuplicateUser when the insert hits a unique-constraint
// violation.
func (c *Client) Signup(ctx context.Context, rows any) (jsonx.RawMessage, error) {
	body, err := jsonx.Marshal(rows)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.directoryURL+"/rest/v1/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build signup request: %w", err)
	}
	c.setDirectoryHeaders(req)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signup request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := httpclient.ReadAllWithLimit(resp.Body, c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read signup response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, directoryError(resp.StatusCode, data)
	}
	return jsonx.RawMessage(data), nil
}

func (c *Client) setDirectoryHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.directoryKey != "" {
		req.Header.Set("apikey", c.directoryKey)
		req.Header.Set("Authorization", "Bearer "+c.directoryKey)
	}
}

// directoryError maps a directory failure body onto a Go error. The
// unique-violation code 23505 and the "duplicate key" message text both
// signal an existing user.
func directoryError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = jsonx.Unmarshal(body, &payload)

	if payload.Code == "23505" || strings.Contains(payload.Message, "duplicate key") {
		return ErrDuplicateUser
	}
	if payload.Message != "" {
		return fmt.Errorf("directory error (status %d): %s", status, payload.Message)
	}
	return fmt.Errorf("directory error (status %d)", status)
}
