package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// EventSink publishes one event payload on a named channel. Task and
// comment services receive a sink by injection so tests can substitute
// a capturing implementation for the live gateway.
type EventSink interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// GatewayConfig holds configuration for creating a Gateway.
type GatewayConfig struct {
	// BaseURL is the base URL of the realtime gateway (e.g. "http://localhost:6001").
	BaseURL string
	// AppKey authenticates publish requests to the gateway.
	AppKey string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Gateway publishes events to the realtime gateway over HTTP. Consumers
// subscribe to their private "user.{id}" channel on the other side; the
// gateway enforces that a client only subscribes to its own channel.
type Gateway struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGateway(config GatewayConfig) (*Gateway, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("broadcast: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("broadcast: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		appKey:     config.AppKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type publishRequest struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
	Data    any    `json:"data"`
}

func (g *Gateway) Publish(ctx context.Context, channel, event string, payload any) error {
	body, err := json.Marshal(publishRequest{Channel: channel, Name: event, Data: payload})
	if err != nil {
		return fmt.Errorf("broadcast: marshal event %q: %w", event, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if g.appKey != "" {
		request.Header.Set("X-App-Key", g.appKey)
	}

	response, err := g.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("broadcast: publish %q to %q: %w", event, channel, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("broadcast: publish %q to %q: gateway returned %d: %s",
			event, channel, response.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
