// Package spark implements the wire protocol of the Spark chat websocket API:
// URL signing, the outbound chat payload and inbound frame classification.
package spark

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-travel-planner/internal/failure"
)

// SignedEndpoint is a connection URL carrying a time-bound signature.
// It is valid only for the connection attempt it was created for; a retry
// must call Sign again.
type SignedEndpoint struct {
	URL      string
	IssuedAt time.Time
}

// Credentials are the long-lived values issued by the provider console.
type Credentials struct {
	AppID     string
	APIKey    string
	APISecret string
}

// Sign derives a signed websocket URL for endpointURL at time now.
//
// The canonical string is
//
//	host: <host>
//	date: <RFC1123 GMT>
//	GET <path> HTTP/1.1
//
// signed with HMAC-SHA256 keyed by the API secret.
func Sign(endpointURL string, creds Credentials, now time.Time) (SignedEndpoint, error) {
	const op = "spark.Sign"

	if missing := creds.missing(); len(missing) > 0 {
		return SignedEndpoint{}, failure.Newf(failure.KindConfig, op, "missing credentials: %s", strings.Join(missing, ", "))
	}

	u, err := url.Parse(endpointURL)
	if err != nil {
		return SignedEndpoint{}, failure.New(failure.KindConfig, op, fmt.Errorf("parse endpoint: %w", err))
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return SignedEndpoint{}, failure.Newf(failure.KindConfig, op, "endpoint scheme %q is not ws or wss", u.Scheme)
	}
	if u.Host == "" {
		return SignedEndpoint{}, failure.Newf(failure.KindConfig, op, "endpoint %q has no host", endpointURL)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	date := now.UTC().Format(http.TimeFormat)

	signature := signatureFor(CanonicalString(u.Host, date, path), creds.APISecret)
	authorization := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		creds.APIKey, signature,
	)

	q := u.Query()
	q.Set("authorization", base64.StdEncoding.EncodeToString([]byte(authorization)))
	q.Set("date", date)
	q.Set("host", u.Host)
	q.Set("app_id", creds.AppID)
	u.RawQuery = q.Encode()

	return SignedEndpoint{URL: u.String(), IssuedAt: now}, nil
}

// CanonicalString returns the exact string covered by the signature.
func CanonicalString(host, date, path string) string {
	return "host: " + host + "\ndate: " + date + "\nGET " + path + " HTTP/1.1"
}

func signatureFor(canonical, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c Credentials) missing() []string {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "app id")
	}
	if c.APIKey == "" {
		missing = append(missing, "api key")
	}
	if c.APISecret == "" {
		missing = append(missing, "api secret")
	}
	return missing
}
