package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dkoutsos/lexroom/internal/llm"
	"github.com/dkoutsos/lexroom/internal/observability"
	"github.com/dkoutsos/lexroom/internal/protocol"
	"github.com/dkoutsos/lexroom/internal/session"
	"github.com/dkoutsos/lexroom/internal/tools"
	"github.com/dkoutsos/lexroom/internal/transcript"
)

// State names the positions of the per-message conversation machine.
type State string

const (
	StateAwaitingLLM   State = "awaiting_llm"
	StateLLMResponded  State = "llm_responded"
	StateToolRequested State = "tool_requested"
	StateToolExecuted  State = "tool_executed"
	StateFinalAnswer   State = "final_answer"
	StateAborted       State = "aborted"
)

// ErrToolCallLimitExceeded marks a message aborted by the round cap.
var ErrToolCallLimitExceeded = errors.New("tool call limit exceeded")

// Config bounds one user-message processing run.
type Config struct {
	MaxToolRounds int
	LLMTimeout    time.Duration
	ToolTimeout   time.Duration
}

// Orchestrator drives the tool-calling loop for one user message at a time.
// The caller must hold the session acquired; the orchestrator stages turns
// locally and commits them to the registry only when the run completes, so a
// timed-out gateway call leaves the committed history untouched.
type Orchestrator struct {
	sessions    *session.Registry
	tools       *tools.Registry
	adapter     llm.Adapter
	transcripts transcript.Store
	metrics     *observability.Metrics
	cfg         Config
}

func New(
	sessions *session.Registry,
	registry *tools.Registry,
	adapter llm.Adapter,
	transcripts transcript.Store,
	metrics *observability.Metrics,
	cfg Config,
) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 30 * time.Second
	}
	return &Orchestrator{
		sessions:    sessions,
		tools:       registry,
		adapter:     adapter,
		transcripts: transcripts,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// Result is the outcome of one processed user message.
type Result struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	State     State  `json:"state"`
	Rounds    int    `json:"rounds"`
	TurnCount int    `json:"turns"`
}

// HandleMessage runs the state machine for one user message against an
// acquired session snapshot.
func (o *Orchestrator) HandleMessage(ctx context.Context, sess session.Session, message string) (Result, error) {
	userTurn := protocol.UserTurn(message)

	run := &messageRun{
		history: append(append([]protocol.Turn(nil), sess.Turns...), userTurn),
		pending: []protocol.Turn{userTurn},
		state:   StateAwaitingLLM,
	}

	for {
		switch run.state {
		case StateAwaitingLLM:
			resp, err := o.complete(ctx, run.history)
			if err != nil {
				// Nothing staged this run is committed: the session keeps
				// the turn history it had before the message arrived.
				return Result{}, err
			}
			run.resp = resp
			run.state = StateLLMResponded

		case StateLLMResponded:
			if len(run.resp.ToolCalls) == 0 {
				run.append(protocol.AssistantTurn(run.resp.Text))
				run.answer = run.resp.Text
				run.state = StateFinalAnswer
				break
			}
			run.rounds++
			if run.rounds > o.cfg.MaxToolRounds {
				run.answer = fmt.Sprintf("%s: stopped after %d tool-call rounds", ErrToolCallLimitExceeded, o.cfg.MaxToolRounds)
				run.append(protocol.AssistantTurn(run.answer))
				run.state = StateAborted
				break
			}
			run.state = StateToolRequested

		case StateToolRequested:
			// Tool calls within one response run independently and in
			// request order; one failing never blocks the rest.
			for _, call := range run.resp.ToolCalls {
				if call.ID == "" {
					call.ID = uuid.NewString()
				}
				run.append(protocol.ToolCallTurn(call))
				out, err := o.invokeTool(ctx, call)
				if err != nil {
					run.append(protocol.ToolErrorTurn(call, err.Error()))
				} else {
					run.append(protocol.ToolResultTurn(call, out))
				}
			}
			run.state = StateToolExecuted

		case StateToolExecuted:
			run.state = StateAwaitingLLM

		case StateFinalAnswer, StateAborted:
			return o.finish(ctx, sess, run), nil
		}
	}
}

// messageRun is the mutable state of one in-flight user message.
type messageRun struct {
	history []protocol.Turn
	pending []protocol.Turn
	resp    llm.Response
	answer  string
	state   State
	rounds  int
}

func (r *messageRun) append(turn protocol.Turn) {
	r.history = append(r.history, turn)
	r.pending = append(r.pending, turn)
}

func (o *Orchestrator) complete(ctx context.Context, history []protocol.Turn) (llm.Response, error) {
	cctx, cancel := context.WithTimeout(ctx, o.cfg.LLMTimeout)
	defer cancel()

	resp, err := o.adapter.Complete(cctx, llm.Request{Turns: history, Tools: o.tools.Specs()})
	if err != nil {
		if errors.Is(err, llm.ErrGatewayTimeout) || errors.Is(err, context.DeadlineExceeded) {
			o.metrics.LLMRequests.WithLabelValues("timeout").Inc()
			if !errors.Is(err, llm.ErrGatewayTimeout) {
				err = fmt.Errorf("%w: %v", llm.ErrGatewayTimeout, err)
			}
			return llm.Response{}, err
		}
		o.metrics.LLMRequests.WithLabelValues("error").Inc()
		return llm.Response{}, fmt.Errorf("llm completion: %w", err)
	}
	o.metrics.LLMRequests.WithLabelValues("ok").Inc()
	return resp, nil
}

func (o *Orchestrator) invokeTool(ctx context.Context, call protocol.ToolCall) (json.RawMessage, error) {
	tctx, cancel := context.WithTimeout(ctx, o.cfg.ToolTimeout)
	defer cancel()

	out, err := o.tools.Invoke(tctx, call.Name, call.Arguments)
	switch {
	case err == nil:
		o.metrics.ToolCalls.WithLabelValues(call.Name, "ok").Inc()
		return out, nil
	case errors.Is(err, tools.ErrUnknownTool):
		o.metrics.ToolCalls.WithLabelValues(call.Name, "unknown_tool").Inc()
	case errors.Is(err, tools.ErrInvalidArguments):
		o.metrics.ToolCalls.WithLabelValues(call.Name, "invalid_arguments").Inc()
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		o.metrics.ToolCalls.WithLabelValues(call.Name, "timeout").Inc()
		err = fmt.Errorf("tool %s: execution timed out", call.Name)
	default:
		o.metrics.ToolCalls.WithLabelValues(call.Name, "error").Inc()
	}
	return nil, err
}

// finish commits the staged turns and reports the outcome. Commit failures
// (a session ended mid-run) are logged, not fatal: the answer already exists.
func (o *Orchestrator) finish(ctx context.Context, sess session.Session, run *messageRun) Result {
	if err := o.sessions.Append(sess.ID, run.pending...); err != nil {
		log.Printf("session %s: commit turns failed: %v", sess.ID, err)
	}
	o.record(ctx, sess, run.pending)
	o.metrics.ToolRounds.Observe(float64(run.rounds))

	return Result{
		SessionID: sess.ID,
		Answer:    run.answer,
		State:     run.state,
		Rounds:    run.rounds,
		TurnCount: len(sess.Turns) + len(run.pending),
	}
}

func (o *Orchestrator) record(ctx context.Context, sess session.Session, turns []protocol.Turn) {
	if o.transcripts == nil {
		return
	}
	for _, turn := range turns {
		err := o.transcripts.SaveTurn(ctx, transcript.TurnRecord{
			ID:        turn.ID,
			Subject:   sess.Subject,
			SessionID: sess.ID,
			Role:      string(turn.Role),
			Content:   turn.Text(),
			CreatedAt: turn.CreatedAt,
		})
		if err != nil {
			log.Printf("session %s: transcript write failed: %v", sess.ID, err)
			return
		}
	}
}
