package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type AIRepository interface {
	SummarizeResult(ctx context.Context, result *backtest.Result) (string, error)
}

// geminiAIRepository asks the Google Gemini API for a narrative reading of a
// finished simulation.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) SummarizeResult(ctx context.Context, result *backtest.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no result to summarize")
	}

	prompt := r.buildPrompt(result)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return "", fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send request to gemini", logger.ErrorField(err))
		return "", fmt.Errorf("failed to send request to gemini: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	return strings.TrimSpace(text), nil
}

func (r *geminiAIRepository) buildPrompt(result *backtest.Result) string {
	m := result.Metrics

	var b strings.Builder
	b.WriteString("You are reviewing the backtest of a trading strategy. ")
	b.WriteString("Write a short assessment (max 5 sentences) of its strengths and weaknesses based on these figures. ")
	b.WriteString("Plain text only, no markdown.\n\n")
	fmt.Fprintf(&b, "Symbol: %s\nStrategy: %s\n", result.Symbol, result.Strategy)
	fmt.Fprintf(&b, "Total return: %.2f%% (annualized %.2f%%)\n", m.TotalReturnPct, m.AnnualizedReturnPct)
	fmt.Fprintf(&b, "Sharpe: %.2f, Sortino: %.2f, Calmar: %.2f\n", m.SharpeRatio, m.SortinoRatio, m.CalmarRatio)
	fmt.Fprintf(&b, "Max drawdown: %.2f%% lasting %d candles\n", m.MaxDrawdownPct, m.MaxDrawdownDuration)
	fmt.Fprintf(&b, "Trades: %d, win rate: %.1f%%, profit factor: %.2f\n", m.TotalTrades, m.WinRatePct, m.ProfitFactor)
	fmt.Fprintf(&b, "Expectancy per trade: %.2f%%, exposure: %.1f%%\n", m.ExpectancyPct, m.MarketExposurePct)

	return b.String()
}
