// Command tripflow runs the travel assistant as an interactive terminal
// session. Each session maps to one conversation thread; /reset starts a
// fresh thread and /quit exits.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweetpotato0/tripflow/agent"
	"github.com/sweetpotato0/tripflow/config"
	"github.com/sweetpotato0/tripflow/contrib/provider/claude"
	"github.com/sweetpotato0/tripflow/contrib/provider/gemini"
	"github.com/sweetpotato0/tripflow/contrib/provider/openai"
	"github.com/sweetpotato0/tripflow/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/tripflow/conversation"
	"github.com/sweetpotato0/tripflow/middleware/logger"
	"github.com/sweetpotato0/tripflow/middleware/validator"
	"github.com/sweetpotato0/tripflow/pkg/logging"
	"github.com/sweetpotato0/tripflow/pkg/telemetry"
	"github.com/sweetpotato0/tripflow/tool"
	"github.com/sweetpotato0/tripflow/travel"
	"github.com/sweetpotato0/tripflow/travel/amadeus"
	"github.com/sweetpotato0/tripflow/travel/geocode"
	"github.com/sweetpotato0/tripflow/travel/serpapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tripflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "tripflow",
		Environment: os.Getenv("TRIPFLOW_ENV"),
		Disable:     os.Getenv("TRIPFLOW_TRACING") == "off",
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	ag, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}

	log.Info("assistant ready",
		"provider", cfg.Provider,
		"store", cfg.StoreBackend,
	)
	return repl(ctx, ag)
}

func buildAgent(ctx context.Context, cfg *config.App) (*agent.Agent, error) {
	flights := serpapi.NewClient(cfg.SerpAPIKey)
	geocoder := geocode.NewGoogleClient(cfg.GeocodingAPIKey)
	airports := amadeus.NewClient(cfg.AmadeusClientID, cfg.AmadeusClientSecret, geocoder)

	registry := tool.NewRegistry()
	if err := registry.Register(travel.NewSearchFlightsTool(flights)); err != nil {
		return nil, err
	}
	if err := registry.Register(travel.NewLookupAirportTool(airports)); err != nil {
		return nil, err
	}

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := conversation.Open(cfg.StoreBackend)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{
		agent.WithName("tripflow"),
		agent.WithSystemPrompt(travel.SystemPrompt(time.Now())),
		agent.WithGreeting(travel.Greeting),
		agent.WithProvider(provider),
		agent.WithTools(registry),
		agent.WithStore(store),
		agent.WithExtractor(travel.NewFlightExtractor()),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithStepTimeout(cfg.StepTimeout),
		agent.WithMiddlewares(
			validator.NewInputValidator(),
			logger.NewTurnLogger(nil),
		),
	}
	if tok, err := tiktoken.New("cl100k_base"); err == nil {
		opts = append(opts, agent.WithTokenCounter(tok))
	}

	return agent.New(opts...), nil
}

func buildProvider(ctx context.Context, cfg *config.App) (agent.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		pc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		return openai.New(pc), nil
	case config.ProviderClaude:
		pc := claude.DefaultConfig(cfg.AnthropicAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		return claude.New(pc), nil
	default:
		pc := gemini.DefaultConfig(cfg.GoogleAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		return gemini.New(ctx, pc)
	}
}

func repl(ctx context.Context, ag *agent.Agent) error {
	threadID := conversation.NewThreadID()
	fmt.Printf("thread %s (/reset for a new thread, /quit to exit)\n\n", threadID)

	// An empty first turn produces the greeting without a model call.
	if err := printTurn(ctx, ag, threadID, ""); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch input {
		case "/quit", "/exit":
			return nil
		case "/reset":
			threadID = conversation.NewThreadID()
			fmt.Printf("new thread %s\n\n", threadID)
			if err := printTurn(ctx, ag, threadID, ""); err != nil {
				return err
			}
			continue
		case "":
			continue
		}

		if err := printTurn(ctx, ag, threadID, input); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func printTurn(ctx context.Context, ag *agent.Agent, threadID, input string) error {
	result, err := ag.RunTurn(ctx, threadID, input)
	if err != nil {
		return err
	}
	fmt.Printf("assistant> %s\n\n", result.DisplayReply)
	return nil
}
