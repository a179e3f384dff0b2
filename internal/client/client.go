// Package client assembles the messaging subsystem on the participant's
// side: session identity, channel manager, conversation directory, history
// loading, composer, and inbound routing, wired against one relay base URL.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"coachlink/messaging/internal/channel"
	"coachlink/messaging/internal/composer"
	"coachlink/messaging/internal/conversation"
	"coachlink/messaging/internal/directory"
	"coachlink/messaging/internal/history"
	"coachlink/messaging/internal/router"
	"coachlink/messaging/internal/session"
)

// Options configures a Client. BaseURL and Token are required.
type Options struct {
	// BaseURL is the relay's HTTP base, e.g. "http://localhost:8080".
	// The websocket endpoint is derived from it.
	BaseURL string
	// Token is the bearer token minted by the relay's session endpoint.
	Token string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client owns one participant's live messaging state.
type Client struct {
	Session   session.Context
	Log       *conversation.Log
	Channel   *channel.Manager
	Directory *directory.Directory
	Composer  *composer.Composer
	Router    *router.Router
}

// New builds the full client stack from a relay base URL and session token.
// Nothing connects until Start is called.
func New(opts Options) (*Client, error) {
	sess, err := session.FromToken(opts.Token)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(opts.BaseURL, "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	wsURL, err := websocketURL(base)
	if err != nil {
		return nil, err
	}

	log := conversation.NewLog()
	ch := channel.New(channel.Config{URL: wsURL}, sess, logger)
	loader := history.NewHTTPLoader(base, sess.Token, httpClient)
	roster := directory.NewHTTPRoster(base, sess.Token, httpClient)
	dir := directory.New(sess, roster, loader, log, logger)
	uploader := composer.NewHTTPUploader(base, sess.Token, httpClient)
	comp := composer.New(sess, uploader, ch, dir, log)
	rt := router.New(sess, dir, log, logger)

	return &Client{
		Session:   sess,
		Log:       log,
		Channel:   ch,
		Directory: dir,
		Composer:  comp,
		Router:    rt,
	}, nil
}

// Start loads the roster, registers the router as the channel's inbound
// handler, and opens the channel. It blocks until the channel is connected
// or connecting has failed for good.
func (c *Client) Start(ctx context.Context) error {
	if err := c.Directory.Init(ctx); err != nil {
		return err
	}
	c.Channel.OnMessage(c.Router.HandleInbound)
	return c.Channel.Open(ctx)
}

// Close tears down the channel. The client can be started again afterwards.
func (c *Client) Close() {
	c.Channel.Close()
}

// websocketURL maps the relay's HTTP base to its websocket endpoint.
func websocketURL(base string) (string, error) {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws", nil
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws", nil
	default:
		return "", fmt.Errorf("client: base URL %q must start with http:// or https://", base)
	}
}

// ensure interface satisfaction stays aligned with the wiring above
var (
	_ composer.Sender    = (*channel.Manager)(nil)
	_ composer.Selection = (*directory.Directory)(nil)
	_ router.Selection   = (*directory.Directory)(nil)
)
