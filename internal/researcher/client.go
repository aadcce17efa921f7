// Package researcher turns niche research questions into validated
// structured answers from a generative model.
package researcher

import (
	"context"
	"errors"
	"time"

	"github.com/BerylCAtieno/niche-detector/internal/models"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrInvalidResponse is the only error the Client returns to callers. The
// underlying cause is logged, never surfaced.
var ErrInvalidResponse = errors.New("could not obtain a valid AI response")

// Generator sends a prompt with a declared response schema and returns the
// raw text produced by the model.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Options tune the Client. Zero values fall back to defaults.
type Options struct {
	// OutputLanguage is the language the model writes its answers in.
	OutputLanguage string
	// RequestsPerMinute caps calls to the generator. Zero means unlimited.
	RequestsPerMinute int
	// Timeout bounds each call. Zero means no extra deadline.
	Timeout time.Duration
}

// Client fetches pain points, product ideas and selling angles.
type Client struct {
	gen      Generator
	limiter  *rate.Limiter
	timeout  time.Duration
	language string
	logger   *zap.Logger
}

func NewClient(gen Generator, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	language := opts.OutputLanguage
	if language == "" {
		language = "Spanish"
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	return &Client{
		gen:      gen,
		limiter:  rate.NewLimiter(limit, 1),
		timeout:  opts.Timeout,
		language: language,
		logger:   logger.Named("researcher"),
	}
}

func (c *Client) FetchPainPoints(ctx context.Context, niche models.Niche) ([]models.PainPoint, error) {
	prompt := buildPainPointsPrompt(niche, c.language)
	resp, err := request[painPointsResponse](ctx, c, "pain_points", prompt, painPointsSchema)
	if err != nil {
		return nil, err
	}
	return resp.PainPoints, nil
}

func (c *Client) FetchProductIdeas(ctx context.Context, niche models.Niche, p models.PainPoint) ([]models.ProductIdea, error) {
	prompt := buildProductIdeasPrompt(niche, p, c.language)
	resp, err := request[productIdeasResponse](ctx, c, "product_ideas", prompt, productIdeasSchema)
	if err != nil {
		return nil, err
	}
	return resp.ProductIdeas, nil
}

func (c *Client) FetchSellingAngles(ctx context.Context, niche models.Niche, p models.PainPoint, idea models.ProductIdea) ([]models.SellingAngle, error) {
	prompt := buildSellingAnglesPrompt(niche, p, idea, c.language)
	resp, err := request[sellingAnglesResponse](ctx, c, "selling_angles", prompt, sellingAnglesSchema)
	if err != nil {
		return nil, err
	}
	return resp.SellingAngles, nil
}

// request runs one generate-and-decode round trip. Every failure collapses
// into ErrInvalidResponse after the cause is logged.
func request[T any](ctx context.Context, c *Client, stage, prompt string, schema *genai.Schema) (T, error) {
	var zero T

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Error("rate limiter rejected AI request", zap.String("stage", stage), zap.Error(err))
		return zero, ErrInvalidResponse
	}

	start := time.Now()
	raw, err := c.gen.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		c.logger.Error("AI request failed",
			zap.String("stage", stage),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return zero, ErrInvalidResponse
	}

	out, err := decode[T](raw)
	if err != nil {
		c.logger.Error("AI response did not match the declared shape",
			zap.String("stage", stage),
			zap.String("raw", raw),
			zap.Error(err))
		return zero, ErrInvalidResponse
	}

	c.logger.Debug("AI request completed",
		zap.String("stage", stage),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
