// Package chat runs the interactive loop: prompt the model, resolve a tool
// call, dispatch it, apply the alert policy and present a summary.
package chat

import (
	"bufio"
	"context"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"mcpbridge/alert"
	"mcpbridge/intent"
	"mcpbridge/mcp"
	"mcpbridge/model"
)

// maxLineBytes bounds a single line of user input.
const maxLineBytes = 1 << 20

// Presenter shows user-facing output. Everything else is logged.
type Presenter interface {
	Prompt()
	ToolResult(text string)
	Summary(text string)
	NoToolCall()
	Goodbye(reason string)
}

// Deps are the collaborators of a Session.
type Deps struct {
	Model     model.Completer
	Tools     model.ToolCaller
	Resolver  *intent.Resolver
	Catalog   *mcp.Catalog
	Alerts    *alert.Policy
	Presenter Presenter
}

// Session is one interactive conversation. It is not safe for concurrent use:
// turns run strictly one after another.
type Session struct {
	id    string
	deps  Deps
	turns int
	state model.State

	logger zerolog.Logger
}

// NewSession creates a session in the AWAIT_INPUT state.
func NewSession(deps Deps, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		deps:   deps,
		state:  model.StateAwaitInput,
		logger: logger.With().Str("component", "chat").Str("session", id).Logger(),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current loop state.
func (s *Session) State() model.State {
	return s.state
}

// Turns returns the number of turns run so far.
func (s *Session) Turns() int {
	return s.turns
}

// Prime sends the system instruction once. The reply is discarded; a failure
// is logged and returned but the session remains usable.
func (s *Session) Prime(ctx context.Context) error {
	_, err := s.deps.Model.Complete(context.WithoutCancel(ctx), s.deps.Catalog.Instruction())
	if err != nil {
		s.logger.Warn().Err(err).Msg("system instruction was not delivered")
		return err
	}
	s.logger.Info().Msg("system prompt initialized")
	return nil
}

// RunTurn runs one full turn for input and returns its record. Gateway calls
// are not cancelled by ctx; each finishes within its own retry bound. A panic
// anywhere in the turn is recovered, logged and stored in Turn.Err.
func (s *Session) RunTurn(ctx context.Context, input string) (turn model.Turn) {
	s.turns++
	turn = model.Turn{
		Number:    s.turns,
		Input:     input,
		State:     model.StateAwaitInput,
		StartedAt: time.Now(),
	}
	logger := s.logger.With().Int("turn", turn.Number).Logger()

	defer func() {
		if r := recover(); r != nil {
			turn.Err = errors.Errorf("turn panicked in %s: %v", turn.State, r)
			logger.Error().
				Err(turn.Err).
				Str("stack", string(debug.Stack())).
				Msg("unexpected error, continuing session")
		}
		turn.Duration = time.Since(turn.StartedAt)
		s.state = model.StateAwaitInput
		logger.Debug().
			Str("last_state", turn.State.String()).
			Bool("tool_call", turn.HasCall()).
			Dur("elapsed", turn.Duration).
			Msg("turn finished")
	}()

	callCtx := context.WithoutCancel(ctx)

	s.enter(&turn, model.StatePrompted, logger)
	text, err := s.deps.Model.Complete(callCtx, ReinforcedPrompt(input))
	if err != nil {
		logger.Warn().Err(err).Msg("model unavailable, resolving from user input")
	}
	turn.ModelText = text
	logger.Debug().Str("model_text", text).Msg("model replied")

	res, ok := s.deps.Resolver.Resolve(input, text)
	s.enter(&turn, model.StateResolved, logger)
	if !ok {
		turn.Err = model.ErrNoToolCall
		logger.Info().Err(turn.Err).Msg("nothing to dispatch")
		s.deps.Presenter.NoToolCall()
		return turn
	}
	call := s.deps.Catalog.Normalize(res.Call)
	if err := s.deps.Catalog.Validate(call); err != nil {
		logger.Warn().Err(err).Msg("tool call breaks its argument contract, dispatching anyway")
	}
	turn.Call = &call
	turn.Source = res.Source
	if res.Source == model.SourceHeuristic {
		logger.Info().Str("tool", call.Name).Msg("model ignored the tool contract, using input heuristics")
	}
	logger.Info().Str("tool", call.Name).Str("call", call.String()).Str("source", string(res.Source)).Msg("tool call resolved")

	turn.Result = s.deps.Tools.CallTool(callCtx, call.Name, call.Arguments)
	s.enter(&turn, model.StateDispatched, logger)
	switch {
	case turn.Result.Failed():
		logger.Warn().Str("tool", call.Name).Str("error", turn.Result.Err).Msg("tool call failed")
		return turn
	case !turn.Result.OK():
		logger.Warn().Str("tool", call.Name).Msg("empty tool result received")
		return turn
	}
	s.deps.Presenter.ToolResult(turn.Result.Text)

	if call.Name == model.ToolGetWeather {
		outcome := s.deps.Alerts.CheckAndFire(callCtx, call.Name, turn.Result.Text)
		if outcome.Fired {
			turn.AlertFired = true
			turn.Notification = outcome.Notification.Text
			if outcome.Notification.Failed() {
				turn.Notification = outcome.Notification.Err
			}
			s.enter(&turn, model.StateAlerted, logger)
		}
	}

	summary, err := s.deps.Model.Complete(callCtx, SummaryPrompt(turn.Result.Text))
	if err != nil {
		// The tool result is already on screen; a gateway failure stays in the log.
		logger.Warn().Err(err).Msg("summary unavailable")
		return turn
	}
	turn.Summary = summary
	s.enter(&turn, model.StateSummarized, logger)
	s.deps.Presenter.Summary(summary)

	return turn
}

func (s *Session) enter(turn *model.Turn, state model.State, logger zerolog.Logger) {
	turn.State = state
	s.state = state
	logger.Debug().Str("state", state.String()).Msg("state changed")
}

// Run reads lines from in and runs a turn for each until an exit command,
// end of input or ctx cancellation. Blank lines are ignored.
//
// Lines are read on a separate goroutine so cancellation can interrupt a
// pending read. When in blocks forever (a terminal), that goroutine stays
// parked in Read until the process exits.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.logger.Info().Msg("session started")

	for {
		s.deps.Presenter.Prompt()

		select {
		case <-ctx.Done():
			s.end("Session ended by user.")
			return nil

		case line, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-readErr:
				default:
				}
				s.end("Goodbye!")
				if err != nil {
					return errors.Wrap(err, "failed to read input")
				}
				return nil
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if IsExitCommand(line) {
				s.end("Goodbye!")
				return nil
			}

			s.RunTurn(ctx, line)

			if ctx.Err() != nil {
				s.end("Session ended by user.")
				return nil
			}
		}
	}
}

func (s *Session) end(reason string) {
	s.state = model.StateSessionEnded
	s.deps.Presenter.Goodbye(reason)
	s.logger.Info().Int("turns", s.turns).Str("state", s.state.String()).Msg("session ended")
}
