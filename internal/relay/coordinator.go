package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Dropkick0/ai-call-agent/internal/audio"
	"github.com/Dropkick0/ai-call-agent/internal/dialog"
	"github.com/Dropkick0/ai-call-agent/internal/engine"
	"github.com/Dropkick0/ai-call-agent/internal/guardrail"
	"github.com/Dropkick0/ai-call-agent/internal/metrics"
	"github.com/Dropkick0/ai-call-agent/internal/session"
	"github.com/Dropkick0/ai-call-agent/internal/telephony"
)

// TelephonyConn is the media-stream side of the relay.
type TelephonyConn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// EngineConn is the speech-engine side of the relay.
type EngineConn interface {
	ReadEvent() (*engine.Event, error)
	SendSessionUpdate(instructions, state string) error
	AppendAudio(payload string) error
	CancelResponse() error
	Close() error
}

// Config contains the collaborators one Coordinator needs.
type Config struct {
	Logger     *slog.Logger
	Registry   *session.Registry
	Metrics    *metrics.Metrics
	Validator  *guardrail.Validator
	Codec      audio.Transcoder
	Instructor *Instructor
	// Finalize receives the completed session after both pumps have
	// stopped, on every exit path.
	Finalize func(*session.CallSession)
}

// Coordinator bridges exactly one call. It owns the CallSession: identifiers
// and start time are written once by the inbound pump before the session is
// published; everything else is mutated only by the outbound pump.
type Coordinator struct {
	cfg       Config
	logger    *slog.Logger
	telephony TelephonyConn
	engine    EngineConn

	sess *session.CallSession

	// started is closed by the inbound pump once the stream-start message
	// has populated the session identifiers.
	started     chan struct{}
	startedOnce sync.Once

	// lastTurnAt is touched only by the outbound pump: set on each
	// conversational turn, consumed by the first following audio delta.
	lastTurnAt time.Time
}

// New creates a Coordinator for one call.
func New(cfg Config, tel TelephonyConn, eng EngineConn) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		logger:    cfg.Logger,
		telephony: tel,
		engine:    eng,
		sess:      session.New(),
		started:   make(chan struct{}),
	}
}

// Run pumps both directions until either peer's connection closes, then
// joins the pumps and finalizes the session. It always returns with both
// connections closed and the session handed to the finalizer.
func (c *Coordinator) Run(ctx context.Context) {
	defer c.finalize()

	if err := c.sendInstructions(ctx, dialog.AwaitingGreeting); err != nil {
		c.logger.Error("initial session update failed", slog.String("error", err.Error()))
		c.teardown()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.inboundPump()
	}()
	go func() {
		defer wg.Done()
		c.outboundPump(ctx)
	}()
	wg.Wait()
}

// ids returns the published call identifiers, or empty strings until the
// stream-start message has been observed. The identifier fields are written
// by the inbound pump; reading them from the outbound pump is only ordered
// after the started channel is closed.
func (c *Coordinator) ids() (callID, streamID string) {
	select {
	case <-c.started:
		return c.sess.CallID, c.sess.StreamID
	default:
		return "", ""
	}
}

// teardown closes both connections, ending whichever pump is still blocked
// on its source. Both Close implementations are idempotent.
func (c *Coordinator) teardown() {
	_ = c.engine.Close()
	_ = c.telephony.Close()
}

// inboundPump reads telephony control/media messages and feeds caller audio
// to the engine.
func (c *Coordinator) inboundPump() {
	for {
		data, err := c.telephony.ReadMessage()
		if err != nil {
			terr := &TransportError{Side: "telephony", Err: err}
			c.logger.Info("telephony disconnected",
				slog.String("call_id", c.sess.CallID),
				slog.String("error", terr.Error()),
			)
			c.teardown()
			return
		}

		msg, err := telephony.ParseMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed telephony frame", slog.String("error", err.Error()))
			continue
		}

		switch msg.Event {
		case telephony.EventStart:
			c.handleStreamStart(msg.Start)

		case telephony.EventMedia:
			if msg.Media == nil || msg.Media.Payload == "" {
				continue
			}
			payload, err := c.recode(msg.Media.Payload)
			if err != nil {
				c.cfg.Metrics.CodecErrors.Inc()
				c.logger.Warn("dropping malformed caller frame",
					slog.String("call_id", c.sess.CallID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := c.engine.AppendAudio(payload); err != nil {
				terr := &TransportError{Side: "engine", Err: err}
				c.logger.Error("forwarding caller audio failed", slog.String("error", terr.Error()))
				c.teardown()
				return
			}
			c.cfg.Metrics.FramesInbound.Inc()

		case telephony.EventStop:
			c.logger.Info("stream stopped",
				slog.String("call_id", c.sess.CallID),
				slog.String("stream_sid", c.sess.StreamID),
			)
			c.teardown()
			return

		case telephony.EventConnected:
			c.logger.Debug("telephony connected")

		default:
			c.logger.Debug("ignoring telephony event", slog.String("event", msg.Event))
		}
	}
}

func (c *Coordinator) handleStreamStart(start *telephony.StartPayload) {
	if start == nil {
		c.logger.Warn("start message missing payload")
		return
	}

	c.startedOnce.Do(func() {
		c.sess.Begin(start.CallSID, start.StreamSID, time.Now())
		if err := c.cfg.Registry.Register(c.sess); err != nil {
			c.logger.Warn("session registration failed", slog.String("error", err.Error()))
		}
		c.cfg.Metrics.RecordCallStarted()
		close(c.started)

		c.logger.Info("stream started",
			slog.String("call_id", c.sess.CallID),
			slog.String("stream_sid", c.sess.StreamID),
			slog.Time("start_time", c.sess.StartTime),
		)
	})
}

// outboundPump reads engine events, forwards audio to the caller, and
// drives guardrail validation and the state machine. Clear/cancel on
// barge-in runs on this same goroutine, so no audio delta queued before a
// flush can be delivered after it.
func (c *Coordinator) outboundPump(ctx context.Context) {
	for {
		ev, err := c.engine.ReadEvent()
		if err != nil {
			terr := &TransportError{Side: "engine", Err: err}
			callID, _ := c.ids()
			c.logger.Info("engine disconnected",
				slog.String("call_id", callID),
				slog.String("error", terr.Error()),
			)
			c.teardown()
			return
		}
		c.cfg.Metrics.RecordEngineEvent(ev.Type)

		var fatal error
		switch ev.Type {
		case engine.EventSessionCreated:
			if ev.Session != nil {
				c.sess.EngineSessionID = ev.Session.ID
			}
			callID, _ := c.ids()
			c.logger.Info("engine session created",
				slog.String("call_id", callID),
				slog.String("engine_session_id", c.sess.EngineSessionID),
			)

		case engine.EventSessionUpdated:
			callID, _ := c.ids()
			c.logger.Info("engine session updated", slog.String("call_id", callID))

		case engine.EventAudioDelta:
			fatal = c.handleAudioDelta(ev)

		case engine.EventItemCreated:
			fatal = c.handleTurn(ctx, ev)

		case engine.EventSpeechStarted:
			fatal = c.handleBargeIn()

		default:
			if _, ok := engine.LoggedEventTypes[ev.Type]; ok {
				callID, _ := c.ids()
				c.logger.Info("engine event",
					slog.String("call_id", callID),
					slog.String("event", ev.Type),
				)
			} else {
				c.logger.Debug("ignoring engine event", slog.String("event", ev.Type))
			}
		}

		if fatal != nil {
			c.logger.Error("outbound pump failed", slog.String("error", fatal.Error()))
			c.teardown()
			return
		}
	}
}

// handleAudioDelta forwards one engine audio frame to the caller.
func (c *Coordinator) handleAudioDelta(ev *engine.Event) error {
	if ev.Delta == "" {
		return nil
	}

	if !c.lastTurnAt.IsZero() {
		c.sess.Latencies = append(c.sess.Latencies, time.Since(c.lastTurnAt))
		c.lastTurnAt = time.Time{}
	}

	select {
	case <-c.started:
	default:
		// No stream id yet: the frame cannot be addressed.
		c.logger.Debug("dropping audio delta before stream start")
		return nil
	}

	payload, err := c.recode(ev.Delta)
	if err != nil {
		c.cfg.Metrics.CodecErrors.Inc()
		c.logger.Warn("dropping malformed engine frame",
			slog.String("call_id", c.sess.CallID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := c.telephony.WriteJSON(telephony.MediaMessage(c.sess.StreamID, payload)); err != nil {
		return &TransportError{Side: "telephony", Err: err}
	}
	c.cfg.Metrics.FramesOutbound.Inc()
	return nil
}

// handleTurn validates one conversational turn and advances the state
// machine on accepted intents.
func (c *Coordinator) handleTurn(ctx context.Context, ev *engine.Event) error {
	now := time.Now()
	res := c.cfg.Validator.Validate(ev.ItemText())
	callID, _ := c.ids()

	c.sess.AppendTranscript(session.TranscriptEvent{
		Raw:       ev.Raw,
		Intent:    res.Intent,
		Verdict:   res.Verdict,
		Timestamp: now,
	})
	c.lastTurnAt = now

	switch res.Verdict {
	case guardrail.RejectedByPolicy:
		c.sess.PolicyRejects++
		c.cfg.Metrics.PolicyRejects.Inc()
		c.logger.Warn("turn rejected by policy",
			slog.String("call_id", callID),
			slog.String("reason", res.Reason),
		)
		if err := c.engine.CancelResponse(); err != nil {
			return &TransportError{Side: "engine", Err: err}
		}
		return nil

	case guardrail.RejectedByGuardrail:
		c.sess.GuardrailRejects++
		c.cfg.Metrics.GuardrailRejects.Inc()
		c.logger.Warn("turn rejected by guardrail",
			slog.String("call_id", callID),
			slog.String("reason", res.Reason),
		)
		return nil
	}

	c.cfg.Metrics.TurnsAccepted.Inc()
	if res.Intent == nil {
		return nil
	}

	next, advanced, err := dialog.Advance(c.sess.State, res.Intent.Intent)
	var violation *dialog.ViolationError
	if errors.As(err, &violation) {
		c.sess.StateViolations++
		c.cfg.Metrics.StateViolations.Inc()
		c.logger.Warn("state violation",
			slog.String("call_id", callID),
			slog.String("state", c.sess.State.String()),
			slog.String("intent", res.Intent.Intent),
		)
		return nil
	}
	if !advanced {
		return nil
	}

	c.sess.State = next
	c.logger.Info("conversation advanced",
		slog.String("call_id", callID),
		slog.String("state", next.String()),
		slog.String("intent", res.Intent.Intent),
	)
	if err := c.sendInstructions(ctx, next); err != nil {
		return &TransportError{Side: "engine", Err: err}
	}
	return nil
}

// handleBargeIn flushes queued playback and cancels the in-flight
// generation, in that order. Call-scoped: both connections stay open.
func (c *Coordinator) handleBargeIn() error {
	callID, streamID := c.ids()
	c.logger.Info("caller barge-in",
		slog.String("call_id", callID),
		slog.String("stream_sid", streamID),
	)

	if streamID != "" {
		if err := c.telephony.WriteJSON(telephony.ClearMessage(streamID)); err != nil {
			return &TransportError{Side: "telephony", Err: err}
		}
	}
	// Nothing is queued on an unstarted stream; generation is still
	// canceled below.

	if err := c.engine.CancelResponse(); err != nil {
		return &TransportError{Side: "engine", Err: err}
	}
	c.cfg.Metrics.BargeIns.Inc()
	return nil
}

// sendInstructions issues a session.update for the given state.
func (c *Coordinator) sendInstructions(ctx context.Context, state dialog.State) error {
	instructions, calendarFailed := c.cfg.Instructor.Instructions(ctx, state)
	if calendarFailed {
		c.sess.CalendarErrors++
		c.cfg.Metrics.CalendarErrors.Inc()
	}

	if err := c.engine.SendSessionUpdate(instructions, state.String()); err != nil {
		return err
	}
	c.cfg.Metrics.SessionUpdates.Inc()
	callID, _ := c.ids()
	c.logger.Info("session update sent",
		slog.String("call_id", callID),
		slog.String("state", state.String()),
	)
	return nil
}

// recode runs one base64 audio payload through the codec seam and returns
// it re-encoded for the opposite side.
func (c *Coordinator) recode(payload string) (string, error) {
	wire, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", &audio.CodecError{Op: "decode", Reason: "invalid base64 payload"}
	}
	samples, err := c.cfg.Codec.Decode(wire)
	if err != nil {
		return "", err
	}
	out, err := c.cfg.Codec.Encode(samples)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// finalize computes the end timestamp, removes the session from the
// registry, and hands it to the finalizer with whatever data was collected.
func (c *Coordinator) finalize() {
	c.sess.EndTime = time.Now()

	if c.sess.CallID != "" {
		c.cfg.Registry.Remove(c.sess.CallID)
		c.cfg.Metrics.RecordCallCompleted(c.sess.Duration().Seconds())
	}

	c.logger.Info("call completed",
		slog.String("call_id", c.sess.CallID),
		slog.Time("start_time", c.sess.StartTime),
		slog.Time("stop_time", c.sess.EndTime),
		slog.String("final_state", c.sess.State.String()),
		slog.Int("transcripts", len(c.sess.Transcripts)),
		slog.Uint64("guardrail_rejects", c.sess.GuardrailRejects),
		slog.Uint64("policy_rejects", c.sess.PolicyRejects),
	)

	if c.cfg.Finalize != nil {
		c.cfg.Finalize(c.sess)
	}
}
