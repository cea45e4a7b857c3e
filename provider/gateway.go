package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mcpbridge/model"
	"mcpbridge/retry"
)

// SentinelText is returned in place of a reply once every attempt has failed.
// It is ordinary text: it never contains a tool call and callers may feed it
// to the intent resolver like any other reply.
const SentinelText = "[Error: model request failed after retries]"

// GatewayOptions configures the retry behaviour of a Gateway.
type GatewayOptions struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration

	// Sleep replaces the wait between attempts (tests).
	Sleep retry.Sleeper
}

// Gateway turns a single-attempt model.Provider into the model gateway used
// by the chat loop: bounded retries with a fixed delay and a per-attempt
// timeout. The retry budget is local to each Complete call.
type Gateway struct {
	provider model.Provider
	policy   retry.Policy
	sleep    retry.Sleeper
	logger   zerolog.Logger
}

var _ model.Completer = (*Gateway)(nil)

// NewGateway wraps p with the retry policy in opts.
func NewGateway(p model.Provider, opts GatewayOptions, logger zerolog.Logger) *Gateway {
	return &Gateway{
		provider: p,
		policy: retry.Policy{
			MaxAttempts:    opts.MaxAttempts,
			Delay:          opts.Delay,
			AttemptTimeout: opts.AttemptTimeout,
		},
		sleep:  opts.Sleep,
		logger: logger.With().Str("component", "model").Str("model", p.GetModel()).Logger(),
	}
}

// Complete sends prompt and returns the reply text.
//
// Transport failures, non-success statuses and unparsable replies are all
// retried. When the bound is exhausted Complete returns SentinelText together
// with a *model.GatewayError of kind transport; callers that only want text
// can ignore the error.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	var reply string

	attempts, err := retry.Do(ctx, g.policy, g.sleep, func(ctx context.Context, attempt int) error {
		start := time.Now()
		text, err := g.provider.Complete(ctx, prompt)
		if err != nil {
			g.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", g.policy.MaxAttempts).
				Msg("model request failed")
			return err
		}

		g.logger.Debug().
			Int("attempt", attempt).
			Dur("elapsed", time.Since(start)).
			Int("reply_len", len(text)).
			Msg("model reply received")
		reply = text
		return nil
	})
	if err != nil {
		g.logger.Error().Err(err).Int("attempts", attempts).Msg("model request failed after retries")
		return SentinelText, model.NewTransportError("model completion", attempts, err)
	}

	return reply, nil
}

// Model returns the backend's model identifier.
func (g *Gateway) Model() string {
	return g.provider.GetModel()
}

// Ping checks the backend once, without retries.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.provider.Ping(ctx)
}
