package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mcpbridge/alert"
	"mcpbridge/intent"
	"mcpbridge/mcp"
	"mcpbridge/model"
	"mcpbridge/provider"
	"mcpbridge/provider/testutil"
)

var testKeywords = []string{"rain", "drizzle", "shower", "storm"}

type recordingPresenter struct {
	mu        sync.Mutex
	prompts   int
	results   []string
	summaries []string
	noCalls   int
	goodbyes  []string
}

func (p *recordingPresenter) Prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts++
}

func (p *recordingPresenter) ToolResult(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, text)
}

func (p *recordingPresenter) Summary(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, text)
}

func (p *recordingPresenter) NoToolCall() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.noCalls++
}

func (p *recordingPresenter) Goodbye(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goodbyes = append(p.goodbyes, reason)
}

type harness struct {
	session   *Session
	model     *testutil.MockProvider
	tools     *testutil.MockToolCaller
	presenter *recordingPresenter
}

func newHarness(completer model.Completer, tools model.ToolCaller) (*Session, *recordingPresenter) {
	presenter := &recordingPresenter{}
	logger := zerolog.Nop()
	s := NewSession(Deps{
		Model:     completer,
		Tools:     tools,
		Resolver:  intent.NewResolver("Chennai"),
		Catalog:   mcp.NewCatalog(nil, "Chennai", logger),
		Alerts:    alert.NewPolicy(testKeywords, tools, logger),
		Presenter: presenter,
	}, logger)
	return s, presenter
}

// newMockHarness wires a session to a scripted model and a tool caller that
// answers each tool by name.
func newMockHarness(modelReplies []string, toolReplies map[string]string) *harness {
	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = testutil.ScriptedReplies(modelReplies...)

	tools := &testutil.MockToolCaller{
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) model.ToolResponse {
			return model.TextResponse(toolReplies[name])
		},
	}

	s, p := newHarness(m, tools)
	return &harness{session: s, model: m, tools: tools, presenter: p}
}

func TestScenarioWeatherHeuristic(t *testing.T) {
	h := newMockHarness(
		[]string{"I'm sorry, I can only chat.", "Paris is clear and 21°C."},
		map[string]string{model.ToolGetWeather: testutil.SunnyWeather},
	)

	turn := h.session.RunTurn(context.Background(), "weather in Paris")

	require.NotNil(t, turn.Call)
	assert.Equal(t, model.NewWeatherCall("Paris"), *turn.Call)
	assert.Equal(t, model.SourceHeuristic, turn.Source)
	assert.Equal(t, []model.ToolCall{model.NewWeatherCall("Paris")}, h.tools.Calls())
	assert.False(t, turn.AlertFired)
	assert.Equal(t, model.StateSummarized, turn.State)
	assert.Equal(t, model.StateAwaitInput, h.session.State())

	assert.Equal(t, []string{
		ReinforcedPrompt("weather in Paris"),
		SummaryPrompt(testutil.SunnyWeather),
	}, h.model.Prompts())
	assert.Equal(t, []string{testutil.SunnyWeather}, h.presenter.results)
	assert.Equal(t, []string{"Paris is clear and 21°C."}, h.presenter.summaries)
}

func TestScenarioRainAlert(t *testing.T) {
	h := newMockHarness(
		[]string{testutil.WeatherCallReply, "Rainy in Chennai."},
		map[string]string{
			model.ToolGetWeather:       testutil.RainyWeather,
			model.ToolSendNotification: "Notification sent to weather_alerts",
		},
	)

	turn := h.session.RunTurn(context.Background(), "how is Chennai today")

	assert.Equal(t, model.SourceStructured, turn.Source)
	assert.True(t, turn.AlertFired)
	assert.Equal(t, "Notification sent to weather_alerts", turn.Notification)

	calls := h.tools.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, model.NewWeatherCall("Chennai"), calls[0])
	assert.Equal(t, model.ToolSendNotification, calls[1].Name)
	assert.Equal(t, testutil.RainyWeather+"|weather_alerts", calls[1].Arguments[model.ArgNotificationInput])

	assert.Equal(t, "Rainy in Chennai.", turn.Summary)
	assert.Equal(t, model.StateSummarized, turn.State)
}

func TestScenarioNotifyHeuristic(t *testing.T) {
	h := newMockHarness(
		[]string{"Okay! I'll tell them.", "The team was notified."},
		map[string]string{model.ToolSendNotification: "Notification sent to general_alerts"},
	)

	turn := h.session.RunTurn(context.Background(), "notify the team")

	calls := h.tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, model.ToolSendNotification, calls[0].Name)
	assert.Equal(t, map[string]any{
		model.ArgNotificationInput: "notify the team|general_alerts",
	}, calls[0].Arguments)
	assert.False(t, turn.AlertFired)
}

func TestScenarioToolServerDown(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := mcp.NewClient(mcp.Options{
		Endpoint:    server.URL + "/mcp",
		MaxAttempts: 2,
		Delay:       time.Second,
		Timeout:     5 * time.Second,
		Sleep:       testutil.NoSleep,
	}, zerolog.Nop())
	require.NoError(t, err)

	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = testutil.ScriptedReplies(testutil.WeatherCallReply)
	s, presenter := newHarness(m, client)

	turn := s.RunTurn(context.Background(), "weather please")

	assert.True(t, turn.Result.Failed())
	assert.Equal(t, "MCP call failed for get_weather", turn.Result.Err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, model.StateDispatched, turn.State)
	assert.Equal(t, model.StateAwaitInput, s.State())
	assert.Nil(t, turn.Err)
	assert.Empty(t, presenter.results)
	assert.Empty(t, presenter.summaries)
	// Only the request prompt; no summary for a failed call.
	assert.Equal(t, 1, m.Calls())
}

func TestNoToolCall(t *testing.T) {
	h := newMockHarness([]string{testutil.ChattyReply}, nil)

	turn := h.session.RunTurn(context.Background(), "tell me a joke")

	assert.Nil(t, turn.Call)
	assert.Empty(t, h.tools.Calls())
	assert.Equal(t, 1, h.presenter.noCalls)
	assert.Equal(t, model.StateResolved, turn.State)
	assert.Equal(t, 1, h.model.Calls())
	assert.ErrorIs(t, turn.Err, model.ErrNoToolCall)
	assert.Equal(t, model.KindNoMatch, model.KindOf(turn.Err))
	assert.False(t, turn.HasCall())
}

func TestEmptyToolResultSkipsSummary(t *testing.T) {
	h := newMockHarness([]string{testutil.WeatherCallReply}, map[string]string{})

	turn := h.session.RunTurn(context.Background(), "weather")

	assert.False(t, turn.Result.OK())
	assert.False(t, turn.Result.Failed())
	assert.Empty(t, h.presenter.results)
	assert.Equal(t, 1, h.model.Calls())
}

func TestNotificationCallIsNormalized(t *testing.T) {
	h := newMockHarness(
		[]string{testutil.NotifyCallReply, "Sent."},
		map[string]string{model.ToolSendNotification: "ok"},
	)

	h.session.RunTurn(context.Background(), "remind everyone")

	calls := h.tools.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Meeting at 5|general_alerts", calls[0].Arguments[model.ArgNotificationInput])
}

func TestModelExhaustionFallsBackToHeuristics(t *testing.T) {
	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("connection refused")
	}
	gw := provider.NewGateway(m, provider.GatewayOptions{MaxAttempts: 3, Sleep: testutil.NoSleep}, zerolog.Nop())
	tools := testutil.NewMockToolCaller(testutil.SunnyWeather)
	s, presenter := newHarness(gw, tools)

	turn := s.RunTurn(context.Background(), "weather in Paris")

	assert.Equal(t, provider.SentinelText, turn.ModelText)
	assert.Equal(t, []model.ToolCall{model.NewWeatherCall("Paris")}, tools.Calls())
	assert.Empty(t, turn.Summary)
	assert.Empty(t, presenter.summaries)
	assert.Equal(t, []string{testutil.SunnyWeather}, presenter.results)
	assert.Equal(t, model.StateDispatched, turn.State)
	// Three attempts for the request, three for the summary.
	assert.Equal(t, 6, m.Calls())
}

func TestSummaryFailureIsNotShown(t *testing.T) {
	m := testutil.NewMockProvider("phi3:mini")
	var replies int32
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if atomic.AddInt32(&replies, 1) == 1 {
			return testutil.WrappedWeatherCallReply, nil
		}
		return "", errors.New("connection reset")
	}
	gw := provider.NewGateway(m, provider.GatewayOptions{MaxAttempts: 2, Sleep: testutil.NoSleep}, zerolog.Nop())
	tools := testutil.NewMockToolCaller(testutil.SunnyWeather)
	s, presenter := newHarness(gw, tools)

	turn := s.RunTurn(context.Background(), "weather in Paris")

	require.True(t, turn.HasCall())
	assert.Equal(t, []string{testutil.SunnyWeather}, presenter.results)
	assert.Empty(t, presenter.summaries)
	assert.Empty(t, turn.Summary)
	assert.NoError(t, turn.Err)
	assert.Equal(t, model.StateDispatched, turn.State)
	assert.Equal(t, model.StateAwaitInput, s.State())
	assert.Equal(t, 3, m.Calls())
}

func TestPanicIsRecoveredAtTurnBoundary(t *testing.T) {
	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = testutil.ScriptedReplies(testutil.WeatherCallReply)

	var calls int32
	tools := &testutil.MockToolCaller{
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) model.ToolResponse {
			if atomic.AddInt32(&calls, 1) == 1 {
				panic("tool exploded")
			}
			return model.TextResponse(testutil.SunnyWeather)
		},
	}
	s, _ := newHarness(m, tools)

	first := s.RunTurn(context.Background(), "weather")
	require.Error(t, first.Err)
	assert.Contains(t, first.Err.Error(), "tool exploded")
	assert.Contains(t, first.Err.Error(), "RESOLVED")
	assert.Equal(t, model.StateAwaitInput, s.State())

	second := s.RunTurn(context.Background(), "weather")
	assert.NoError(t, second.Err)
	assert.Equal(t, testutil.SunnyWeather, second.Result.Text)
	assert.Equal(t, 2, second.Number)
}

func TestGatewayCallsIgnoreCancellation(t *testing.T) {
	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return testutil.WeatherCallReply, nil
	}
	tools := &testutil.MockToolCaller{
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) model.ToolResponse {
			if ctx.Err() != nil {
				return model.ErrorResponse("cancelled")
			}
			return model.TextResponse(testutil.SunnyWeather)
		},
	}
	s, _ := newHarness(m, tools)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn := s.RunTurn(ctx, "weather")
	assert.Equal(t, testutil.SunnyWeather, turn.Result.Text)
}

func TestPrimeSendsInstruction(t *testing.T) {
	h := newMockHarness([]string{"OK"}, nil)

	require.NoError(t, h.session.Prime(context.Background()))

	prompts := h.model.Prompts()
	require.Len(t, prompts, 1)
	assert.True(t, strings.HasPrefix(prompts[0], "SYSTEM INSTRUCTION:"))
	assert.Contains(t, prompts[0], "get_weather(city: string)")
}

func TestPrimeFailureIsNotFatal(t *testing.T) {
	m := testutil.NewMockProvider("phi3:mini")
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("down")
	}
	s, _ := newHarness(m, testutil.NewMockToolCaller(""))

	assert.Error(t, s.Prime(context.Background()))
	assert.Equal(t, model.StateAwaitInput, s.State())
}

func TestRunEndsOnExitCommand(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newMockHarness([]string{testutil.ChattyReply}, nil)
	in := strings.NewReader("\n   \nhello\nQUIT\nnever read\n")

	err := h.session.Run(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 1, h.session.Turns())
	assert.Equal(t, model.StateSessionEnded, h.session.State())
	assert.Equal(t, []string{"Goodbye!"}, h.presenter.goodbyes)
	assert.Equal(t, 4, h.presenter.prompts)
}

func TestRunEndsAtEndOfInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newMockHarness([]string{testutil.ChattyReply}, nil)

	err := h.session.Run(context.Background(), strings.NewReader("hello\nhi again"))

	require.NoError(t, err)
	assert.Equal(t, 2, h.session.Turns())
	assert.Equal(t, model.StateSessionEnded, h.session.State())
}

func TestRunReportsReadError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newMockHarness(nil, nil)

	err := h.session.Run(context.Background(), iotest.ErrReader(errors.New("tty gone")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tty gone")
	assert.Equal(t, model.StateSessionEnded, h.session.State())
}

func TestRunEndsOnCancellation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := newMockHarness(nil, nil)
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() { result <- h.session.Run(ctx, pr) }()

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Equal(t, model.StateSessionEnded, h.session.State())
	assert.Equal(t, []string{"Session ended by user."}, h.presenter.goodbyes)

	// Unblock the reader goroutine.
	require.NoError(t, pw.Close())
}

func TestIsExitCommand(t *testing.T) {
	for _, line := range []string{"exit", "QUIT", " Exit ", "quit\n"} {
		assert.True(t, IsExitCommand(line), line)
	}
	for _, line := range []string{"", "exit now", "bye"} {
		assert.False(t, IsExitCommand(line), line)
	}
}

func TestPrompts(t *testing.T) {
	assert.Equal(t, "Reminder: Never show code. Use MCP tools only.\n\nUser request: weather", ReinforcedPrompt("weather"))
	assert.Equal(t, "Summarize in one line, clearly and concisely: sunny", SummaryPrompt("sunny"))
}
