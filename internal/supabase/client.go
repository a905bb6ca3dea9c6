package supabase

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/supabase-community/supabase-go"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/logging"
)

// Client wraps the Supabase client used by the data layer. All raw errors
// crossing this boundary are classified into typed errors so the retry
// executor and circuit breaker can tell transient failures from permanent
// ones.
type Client struct {
	sb     *supabase.Client
	logger *logging.Logger
}

// New creates a Supabase client from configuration
func New(cfg *config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, errors.NewConfigurationError("Supabase URL and service role key are required")
	}

	sb, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{
		Headers: map[string]string{
			"X-Client-Info": "neurolab-backend@1.0.0",
		},
	})
	if err != nil {
		return nil, errors.NewConfigurationError("failed to create Supabase client").WithCause(err)
	}

	return &Client{
		sb:     sb,
		logger: logging.GetLogger().WithComponent("supabase"),
	}, nil
}

// Raw exposes the underlying client for query building
func (c *Client) Raw() *supabase.Client {
	return c.sb
}

// Ping issues a minimal query to verify connectivity
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := c.sb.From("experiments").Select("id", "exact", true).Limit(1, "").Execute()
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// ClassifyError maps raw Supabase and transport errors to typed errors.
// Network-level failures and server errors are retryable; client errors
// such as missing rows or rejected credentials are not.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return errors.NewNetworkError("Supabase request failed").WithCause(err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "eof"):
		return errors.NewNetworkError("Supabase request failed").WithCause(err)
	case strings.Contains(msg, "pgrst116"),
		strings.Contains(msg, "0 rows"),
		strings.Contains(msg, "not found"):
		return errors.NewNotFoundError("record").WithCause(err)
	case strings.Contains(msg, "jwt"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"):
		return errors.NewAuthenticationError("Supabase rejected credentials").WithCause(err)
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "violates"):
		return errors.NewValidationError("database constraint violated").WithCause(err)
	case strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "rate limit"):
		return errors.NewRateLimitError("Supabase rate limit exceeded").WithCause(err)
	default:
		return errors.NewDatabaseError("Supabase query failed").WithCause(err)
	}
}
