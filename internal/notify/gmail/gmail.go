// Package gmail delivers alert emails through the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ggmail "google.golang.org/api/gmail/v1"
	goption "google.golang.org/api/option"

	"saldo/internal/notify"
)

type Sink struct {
	svc  *ggmail.Service
	from string
}

var _ notify.Sink = (*Sink)(nil)

// NewFromEnv creates a Gmail sink using environment variables.
// Required: GMAIL_FROM_ADDRESS plus either a user OAuth client
// (GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE, token from
// cmd/oauth-init) or service account credentials via GOOGLE_CREDENTIALS_JSON,
// GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Sink, error) {
	from := strings.TrimSpace(os.Getenv("GMAIL_FROM_ADDRESS"))
	if from == "" {
		return nil, errors.New("missing GMAIL_FROM_ADDRESS")
	}

	svc, err := newGmailService(ctx)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Sink{svc: svc, from: from}, nil
}

func newGmailService(ctx context.Context) (*ggmail.Service, error) {
	if svc, ok, err := newOAuthService(ctx); ok {
		return svc, err
	}

	credentialsJSON := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE"))
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		var err error
		creds, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing Gmail credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := ggmail.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(ggmail.GmailSendScope))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// newOAuthService builds the service from a user OAuth client and a token
// minted by cmd/oauth-init. Gmail send needs a user grant; service accounts
// only work with domain-wide delegation.
func newOAuthService(ctx context.Context) (*ggmail.Service, bool, error) {
	clientJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	clientFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	if clientJSON == "" && clientFile == "" {
		return nil, false, nil
	}

	var client []byte
	var err error
	if clientJSON != "" {
		client = []byte(clientJSON)
	} else {
		client, err = os.ReadFile(clientFile)
		if err != nil {
			return nil, true, fmt.Errorf("read oauth client file: %w", err)
		}
	}

	cfg, err := google.ConfigFromJSON(client, ggmail.GmailSendScope)
	if err != nil {
		return nil, true, fmt.Errorf("oauth config: %w", err)
	}

	tokenFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"))
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, true, fmt.Errorf("read oauth token file (run oauth-init first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, true, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := ggmail.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, &token)))
	if err != nil {
		return nil, true, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, true, nil
}

// Send builds a multipart/alternative RFC 822 message and sends it as the
// configured address.
func (s *Sink) Send(ctx context.Context, to, subject, html, text string) error {
	raw, err := buildMessage(s.from, to, subject, html, text)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	msg := &ggmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send gmail message: %w", err)
	}

	slog.InfoContext(ctx, "Alert email sent", "to", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, html, text string) ([]byte, error) {
	var b strings.Builder
	mw := multipart.NewWriter(&b)

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mimeEncodeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	// plain part first so html wins in capable clients
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	}
	for _, p := range parts {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// mimeEncodeHeader wraps a subject in RFC 2047 encoding when it contains
// non-ASCII characters (the alert emojis always do).
func mimeEncodeHeader(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}
