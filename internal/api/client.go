// Package api talks to the WHEP endpoint that hands out the machine's video
// session.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cagate/remote/internal/domain"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "api")

const (
	contentTypeSDP = "application/sdp"
	excerptLen     = 80
	maxAnswerSize  = 1 << 20
	defaultTimeout = 6 * time.Second
)

// Client posts SDP offers to a WHEP endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a client for endpoint. An empty token sends no
// Authorization header.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: timeout},
	}
}

// PostOffer sends the offer and returns the answer. Non-success statuses,
// empty bodies and bodies without an SDP version line are protocol
// violations.
func (c *Client) PostOffer(ctx context.Context, sdp string) (domain.Answer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return domain.Answer{}, errors.Wrap(err, "create http request")
	}
	req.Header.Set("Content-Type", contentTypeSDP)
	req.Header.Set("Accept", contentTypeSDP)
	c.authorize(req)

	log.Debugf("POST %s (%d bytes)", c.endpoint, len(sdp))
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Answer{}, &domain.KindError{Kind: domain.ErrConnectionFailure, Err: errors.Wrap(err, "http request")}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerSize))
	if err != nil {
		return domain.Answer{}, &domain.KindError{Kind: domain.ErrConnectionFailure, Err: errors.Wrap(err, "read response")}
	}
	text := string(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fmt.Sprintf("http %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if text != "" {
			detail += "\nserver response: " + text
		}
		return domain.Answer{}, errors.Wrap(domain.ErrProtocolViolation, detail)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Answer{}, errors.Wrap(domain.ErrProtocolViolation, "empty response body")
	}
	if !domain.LooksLikeSDP(text) {
		return domain.Answer{}, errors.Wrapf(domain.ErrProtocolViolation,
			"response is not SDP (first %d chars): %s", excerptLen, excerpt(text))
	}

	return domain.Answer{SDP: text, Location: c.resolve(resp.Header.Get("Location"))}, nil
}

// DeleteSession asks the endpoint to release the session resource.
func (c *Client) DeleteSession(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, location, nil)
	if err != nil {
		return errors.Wrap(err, "create http request")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// resolve makes a Location header absolute against the endpoint.
func (c *Client) resolve(location string) string {
	if location == "" {
		return ""
	}
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	return string(r)
}
