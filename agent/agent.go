// Package agent drives the turn-based conversation loop: it interleaves
// model reasoning with tool invocation against a per-thread history until
// the model produces a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/tripflow/conversation"
	"github.com/sweetpotato0/tripflow/message"
	"github.com/sweetpotato0/tripflow/middleware"
	"github.com/sweetpotato0/tripflow/pkg/logging"
	"github.com/sweetpotato0/tripflow/tool"
)

// LLMClient defines the interface for LLM providers. The returned message is
// always an assistant message: either a final answer (non-empty content, no
// tool calls) or a request to invoke tools (one or more tool calls, content
// may be empty).
type LLMClient interface {
	Generate(ctx context.Context, messages []*message.Message, tools []map[string]any) (*message.Message, error)
}

// Extractor post-processes the messages appended during one turn to recover
// structured results and the parameters that produced them. It only ever
// sees the current turn's slice, never older turns.
type Extractor interface {
	Extract(newMessages []*message.Message) (structured map[string]any, params map[string]any)

	// Notice returns an extra line for the visible reply when the
	// structured result warrants one, or "" for nothing.
	Notice(structured map[string]any) string
}

// TokenCounter estimates prompt sizes for diagnostics.
type TokenCounter interface {
	CountMessages(msgs []*message.Message) int
}

// turnState is the orchestration state within one turn.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateExecutingTools
	stateDone
)

// ErrIterationLimit is returned when a turn exceeds the configured number of
// reasoning/tool cycles without the model producing a final answer.
var ErrIterationLimit = errors.New("turn exceeded maximum reasoning iterations")

// DefaultGreeting is appended verbatim on a greeting turn (empty input on an
// empty thread) without consulting the model.
const DefaultGreeting = "Hello! I'm your travel assistant. Tell me where you'd like to fly from, " +
	"where to, and when, and I'll look up flights for you."

// Agent orchestrates conversation turns for any number of threads.
type Agent struct {
	name          string
	systemPrompt  string
	greeting      string
	maxIterations int
	stepTimeout   time.Duration
	llm           LLMClient
	tools         *tool.Registry
	store         conversation.Store
	extractor     Extractor
	middlewares   *middleware.Chain
	tokens        TokenCounter
	logger        *slog.Logger
	tracer        trace.Tracer

	// threadLocks serializes turns per thread id; turns for different
	// threads run concurrently.
	threadLocks sync.Map
}

// Option is a function that configures an Agent
type Option func(*Agent)

// WithName sets the agent name
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithSystemPrompt sets the system prompt prepended to every model call
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithGreeting overrides the canned greeting message
func WithGreeting(greeting string) Option {
	return func(a *Agent) {
		a.greeting = greeting
	}
}

// WithMaxIterations caps the reasoning/tool cycles within one turn
func WithMaxIterations(max int) Option {
	return func(a *Agent) {
		a.maxIterations = max
	}
}

// WithStepTimeout bounds every model call and every tool invocation
func WithStepTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.stepTimeout = d
	}
}

// WithProvider sets the LLM provider
func WithProvider(provider LLMClient) Option {
	return func(a *Agent) {
		a.llm = provider
	}
}

// WithTools sets the tool registry advertised to the model
func WithTools(registry *tool.Registry) Option {
	return func(a *Agent) {
		if registry != nil {
			a.tools = registry
		}
	}
}

// WithStore sets the conversation store holding thread histories
func WithStore(store conversation.Store) Option {
	return func(a *Agent) {
		a.store = store
	}
}

// WithExtractor sets the structured-result extractor applied per turn
func WithExtractor(ex Extractor) Option {
	return func(a *Agent) {
		a.extractor = ex
	}
}

// WithTokenCounter enables prompt token accounting in debug logs
func WithTokenCounter(tc TokenCounter) Option {
	return func(a *Agent) {
		a.tokens = tc
	}
}

// WithMiddlewares sets the middleware chain wrapped around each turn
func WithMiddlewares(middlewares ...middleware.Middleware) Option {
	return func(a *Agent) {
		a.middlewares = middleware.NewChain(middlewares...)
	}
}

// WithLogger overrides the agent logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new agent with the given options
func New(opts ...Option) *Agent {
	agent := &Agent{
		name:          "Agent",
		systemPrompt:  "You are a helpful AI assistant.",
		greeting:      DefaultGreeting,
		maxIterations: 10,
		stepTimeout:   90 * time.Second,
		tools:         tool.NewRegistry(),
		middlewares:   middleware.NewChain(),
		tracer:        otel.Tracer("tripflow/agent"),
	}

	for _, opt := range opts {
		opt(agent)
	}

	if agent.store == nil {
		agent.store = conversation.NewMemoryStore()
	}
	if agent.logger == nil {
		agent.logger = logging.WithComponent("agent")
	}

	return agent
}

// RegisterTool registers a tool with the agent
func (a *Agent) RegisterTool(t *tool.Tool) error {
	return a.tools.Register(t)
}

// Store returns the conversation store backing the agent.
func (a *Agent) Store() conversation.Store {
	return a.store
}

// RunTurn processes one user message on a thread: it appends the user
// message, alternates model reasoning and tool execution until the model
// produces a final answer, then extracts structured results from the
// messages this turn appended.
//
// Failures of the reasoning step or the iteration cap are fatal for the
// turn only: the result carries a plain-language "System error" reply, the
// stored history keeps no dangling tool-call cycle, and the thread remains
// usable for the next turn. RunTurn never surfaces those as an error; the
// error return is reserved for misuse and store failures.
func (a *Agent) RunTurn(ctx context.Context, threadID, userText string) (*TurnResult, error) {
	if threadID == "" {
		return nil, fmt.Errorf("thread id cannot be empty")
	}

	unlock := a.lockThread(threadID)
	defer unlock()

	ctx, span := a.tracer.Start(ctx, "agent.run_turn",
		trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	before, err := a.store.Len(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to read thread %s: %w", threadID, err)
	}

	// Greeting turn: empty input on an empty thread short-circuits the
	// loop entirely and appends exactly one canned assistant message.
	if userText == "" && before == 0 {
		greeting := message.NewMessage(message.RoleAssistant, a.greeting)
		if err := a.store.Append(ctx, threadID, greeting); err != nil {
			return nil, fmt.Errorf("failed to append greeting: %w", err)
		}
		return a.buildResult(ctx, threadID, before, greeting.Content)
	}

	if err := a.store.Append(ctx, threadID, message.NewMessage(message.RoleUser, userText)); err != nil {
		return nil, fmt.Errorf("failed to append user message: %w", err)
	}

	mwCtx := middleware.NewContext(ctx)
	mwCtx.Input = userText
	mwCtx.ThreadID = threadID

	var final *message.Message
	runErr := a.middlewares.Execute(mwCtx, func(mwCtx *middleware.Context) error {
		msg, err := a.loop(mwCtx.Context(), threadID)
		if err != nil {
			mwCtx.Error = err
			return err
		}
		final = msg
		mwCtx.Response = msg
		return nil
	})

	if runErr != nil {
		a.logger.Error("turn failed", "thread_id", threadID, "error", runErr)
		span.RecordError(runErr)
		return a.failedResult(ctx, threadID, before, runErr)
	}

	return a.buildResult(ctx, threadID, before, final.Content)
}

// loop runs the AWAITING_MODEL / EXECUTING_TOOLS state machine until the
// model yields a final answer or the iteration cap is hit. History mutation
// happens only on the synchronous boundaries before and after each model or
// tool call.
func (a *Agent) loop(ctx context.Context, threadID string) (*message.Message, error) {
	var (
		state      = stateAwaitingModel
		last       *message.Message
		iterations int
	)

	for state != stateDone {
		switch state {
		case stateAwaitingModel:
			iterations++
			if iterations > a.maxIterations {
				return nil, fmt.Errorf("%w (limit %d)", ErrIterationLimit, a.maxIterations)
			}

			reply, err := a.reason(ctx, threadID)
			if err != nil {
				return nil, err
			}
			last = reply

			if reply.IsFinal() {
				state = stateDone
			} else {
				state = stateExecutingTools
			}

		case stateExecutingTools:
			if err := a.executeTools(ctx, threadID, last); err != nil {
				return nil, err
			}
			state = stateAwaitingModel
		}
	}

	return last, nil
}

// reason invokes the model over [system] + full history and appends the
// assistant reply. Nothing is appended when the model call fails, so a
// failed step leaves the history consistent.
func (a *Agent) reason(ctx context.Context, threadID string) (*message.Message, error) {
	ctx, span := a.tracer.Start(ctx, "agent.reason")
	defer span.End()

	history, err := a.store.Messages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	prompt := make([]*message.Message, 0, len(history)+1)
	prompt = append(prompt, message.NewMessage(message.RoleSystem, a.systemPrompt))
	prompt = append(prompt, history...)

	if a.tokens != nil {
		a.logger.Debug("calling model",
			"thread_id", threadID,
			"messages", len(prompt),
			"prompt_tokens", a.tokens.CountMessages(prompt))
	}

	callCtx, cancel := context.WithTimeout(ctx, a.stepTimeout)
	defer cancel()

	reply, err := a.llm.Generate(callCtx, prompt, a.tools.ToJSONSchemas())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reasoning step failed: %w", err)
	}
	if reply == nil || reply.Role != message.RoleAssistant {
		return nil, fmt.Errorf("reasoning step returned a malformed message")
	}

	if err := a.store.Append(ctx, threadID, reply); err != nil {
		return nil, fmt.Errorf("failed to append assistant message: %w", err)
	}
	return reply, nil
}

// executeTools runs every tool call of the given assistant message and
// appends all results in request order, so call/result correlation stays
// deterministic regardless of completion order.
func (a *Agent) executeTools(ctx context.Context, threadID string, assistant *message.Message) error {
	results := make([]*message.Message, 0, len(assistant.ToolCalls))

	for _, call := range assistant.ToolCalls {
		callCtx, span := a.tracer.Start(ctx, "agent.execute_tool",
			trace.WithAttributes(
				attribute.String("tool.name", call.Name),
				attribute.String("tool.call_id", call.ID)))

		timeoutCtx, cancel := context.WithTimeout(callCtx, a.stepTimeout)
		result := a.tools.ExecuteCall(timeoutCtx, call)
		cancel()
		span.End()

		a.logger.Info("executed tool", "thread_id", threadID, "tool", call.Name, "call_id", call.ID)
		results = append(results, result)
	}

	if err := a.store.Append(ctx, threadID, results...); err != nil {
		return fmt.Errorf("failed to append tool results: %w", err)
	}
	return nil
}

func (a *Agent) lockThread(threadID string) func() {
	mu, _ := a.threadLocks.LoadOrStore(threadID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}
