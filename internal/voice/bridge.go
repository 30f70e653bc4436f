package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
	"google.golang.org/api/option"
)

const (
	// Dialogflow prefixes synthesized mulaw with a WAV header that Twilio
	// must not hear.
	mulawHeaderSize = 58
	sampleRateHertz = 8000

	gameOverMark = "endOfInteraction"
)

var agentAudioOut = &dialogflowpb.OutputAudioConfig{
	AudioEncoding:   dialogflowpb.OutputAudioEncoding_OUTPUT_AUDIO_ENCODING_MULAW,
	SampleRateHertz: sampleRateHertz,
}

// CallUpdater is the slice of the Twilio REST API the bridge needs to move a
// finished call off the media stream.
type CallUpdater interface {
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

type Config struct {
	ProjectID    string
	WelcomeEvent string
	LanguageCode string
	HandoffURL   string
	Credentials  option.ClientOption
}

// Bridge relays one phone call between a Twilio media stream and a
// Dialogflow audio session, so a caller can play the memory game by voice.
// A Bridge is single-use: one per websocket connection.
type Bridge struct {
	cfg   Config
	log   *slog.Logger
	calls CallUpdater

	ctx         context.Context
	sessionPath string
	sessions    *dialogflow.SessionsClient
	stream      dialogflowpb.Sessions_StreamingDetectIntentClient

	conn *websocket.Conn

	callSid   string
	streamSid string

	finalResult *dialogflowpb.QueryResult

	stopped     bool
	interrupted bool
	inputPaused bool
}

func NewBridge(cfg Config, calls CallUpdater, log *slog.Logger) (*Bridge, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("voice: project id must not be empty")
	}
	if calls == nil {
		return nil, errors.New("voice: call updater must not be nil")
	}
	if log == nil {
		return nil, errors.New("voice: logger must not be nil")
	}
	if cfg.WelcomeEvent == "" {
		cfg.WelcomeEvent = "Welcome"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	return &Bridge{cfg: cfg, calls: calls, log: log}, nil
}

// Connect opens the Dialogflow sessions client under a fresh game session.
func (b *Bridge) Connect(ctx context.Context) error {
	var opts []option.ClientOption
	if b.cfg.Credentials != nil {
		opts = append(opts, b.cfg.Credentials)
	}

	sessions, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("voice: create sessions client: %w", err)
	}

	b.ctx = ctx
	b.sessions = sessions
	b.sessionPath = fmt.Sprintf("projects/%s/agent/sessions/%s", b.cfg.ProjectID, uuid.NewString())

	return nil
}

// Serve pumps the websocket until the caller hangs up or a relay step fails.
func (b *Bridge) Serve(conn *websocket.Conn) error {
	b.conn = conn

	for !b.stopped {
		var env StreamEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			// Twilio closed the stream.
			return nil
		}
		if err := b.dispatch(&env); err != nil {
			return err
		}
	}

	return nil
}

func (b *Bridge) dispatch(env *StreamEnvelope) error {
	switch env.Event {
	case "start":
		b.callSid = env.Start.CallSid
		b.streamSid = env.Start.StreamSid
		b.log.Info("call started", "call_sid", b.callSid)
		return b.welcome()

	case "media":
		if b.inputPaused {
			return nil
		}
		return b.relayCallerAudio(env.Media.Payload)

	case "mark":
		if env.Mark.Name == gameOverMark {
			b.handoff()
		}

	case "stop":
		b.Close()
	}

	return nil
}

// welcome kicks the agent with the configured welcome event and plays its
// greeting before any caller audio is accepted.
func (b *Bridge) welcome() error {
	stream, err := b.sessions.StreamingDetectIntent(b.ctx)
	if err != nil {
		return fmt.Errorf("voice: open welcome stream: %w", err)
	}

	req := &dialogflowpb.StreamingDetectIntentRequest{
		Session:           b.sessionPath,
		OutputAudioConfig: agentAudioOut,
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Event{
				Event: &dialogflowpb.EventInput{
					Name:         b.cfg.WelcomeEvent,
					LanguageCode: b.cfg.LanguageCode,
				},
			},
		},
	}
	if err := stream.Send(req); err != nil {
		return fmt.Errorf("voice: send welcome event: %w", err)
	}

	b.stream = stream
	b.pumpAgent()

	return nil
}

// gameStream returns the long-lived audio stream, opening it lazily after
// the welcome stream has drained.
func (b *Bridge) gameStream() (dialogflowpb.Sessions_StreamingDetectIntentClient, error) {
	if b.stream != nil {
		return b.stream, nil
	}

	stream, err := b.sessions.StreamingDetectIntent(b.ctx)
	if err != nil {
		return nil, fmt.Errorf("voice: open audio stream: %w", err)
	}

	req := &dialogflowpb.StreamingDetectIntentRequest{
		Session:           b.sessionPath,
		OutputAudioConfig: agentAudioOut,
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_AudioConfig{
				AudioConfig: &dialogflowpb.InputAudioConfig{
					SingleUtterance: true,
					AudioEncoding:   dialogflowpb.AudioEncoding_AUDIO_ENCODING_MULAW,
					SampleRateHertz: sampleRateHertz,
					LanguageCode:    b.cfg.LanguageCode,
				},
			},
		},
	}
	if err := stream.Send(req); err != nil {
		return nil, fmt.Errorf("voice: configure audio stream: %w", err)
	}

	b.stream = stream
	go b.pumpAgent()

	return stream, nil
}

func (b *Bridge) relayCallerAudio(audio []byte) error {
	stream, err := b.gameStream()
	if err != nil {
		return err
	}

	if err := stream.Send(&dialogflowpb.StreamingDetectIntentRequest{InputAudio: audio}); err != nil {
		return fmt.Errorf("voice: send caller audio: %w", err)
	}

	return nil
}

// pumpAgent drains one Dialogflow stream, forwarding synthesized audio and
// recognition events back to Twilio. It returns when the stream ends; the
// next caller utterance opens a new one.
func (b *Bridge) pumpAgent() {
	for {
		resp, err := b.stream.Recv()
		if err != nil {
			b.stream = nil
			b.interrupted = false
			b.inputPaused = false
			break
		}

		if len(resp.OutputAudio) > mulawHeaderSize {
			b.sendAgentAudio(resp.OutputAudio[mulawHeaderSize:])
		}

		if transcript := resp.GetRecognitionResult().GetTranscript(); transcript != "" {
			b.log.Debug("caller transcript", "text", transcript)
			if !b.interrupted {
				b.interrupt()
			}
		}

		if resp.GetRecognitionResult().GetMessageType() == dialogflowpb.StreamingRecognitionResult_END_OF_SINGLE_UTTERANCE {
			b.inputPaused = true
		}

		if qr := resp.GetQueryResult(); qr.GetIntent() != nil {
			if qr.GetIntent().GetEndInteraction() {
				b.log.Info("game finished", "intent", qr.GetIntent().GetDisplayName())
				b.finalResult = qr
			} else {
				b.log.Debug("intent detected", "intent", qr.GetIntent().GetDisplayName())
			}
		}
	}

	if b.finalResult != nil {
		b.markGameOver()
	}
}

func (b *Bridge) sendAgentAudio(audio []byte) {
	if err := b.send(mediaFrame(b.streamSid, audio)); err != nil {
		b.log.Error("failed to forward agent audio", "err", err)
	}
}

// interrupt clears Twilio's playback buffer so the caller talks over the
// agent instead of waiting it out.
func (b *Bridge) interrupt() {
	if err := b.send(clearFrame(b.streamSid)); err != nil {
		b.log.Error("failed to clear playback buffer", "err", err)
	}
	b.interrupted = true
}

// markGameOver asks Twilio to echo a mark back once all queued agent audio
// has been played, which is when the call can be handed off.
func (b *Bridge) markGameOver() {
	if err := b.send(markFrame(b.streamSid, gameOverMark)); err != nil {
		b.log.Error("failed to mark game over", "err", err)
	}
}

// handoff moves the finished call onto the handoff TwiML and tears the
// bridge down.
func (b *Bridge) handoff() {
	b.log.Info("handing call off", "call_sid", b.callSid, "url", b.cfg.HandoffURL)
	if err := b.redirectCall(); err != nil {
		b.log.Error("failed to hand off call", "err", err)
	}
	b.Close()
}

func (b *Bridge) redirectCall() error {
	redirect := &twiml.VoiceRedirect{Url: b.cfg.HandoffURL}

	xml, err := twiml.Voice([]twiml.Element{redirect})
	if err != nil {
		return fmt.Errorf("voice: build redirect twiml: %w", err)
	}

	if _, err := b.calls.UpdateCall(b.callSid, &openapi.UpdateCallParams{Twiml: &xml}); err != nil {
		return fmt.Errorf("voice: update call: %w", err)
	}

	return nil
}

func (b *Bridge) send(frame outFrame) error {
	j, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, j)
}

// Close releases the Dialogflow session. Safe to call more than once.
func (b *Bridge) Close() {
	if b.stopped {
		return
	}

	b.log.Info("closing voice session", "call_sid", b.callSid)

	if b.stream != nil {
		if err := b.stream.CloseSend(); err != nil {
			b.log.Debug("close send failed", "err", err)
		}
		b.stream = nil
	}

	if b.sessions != nil {
		if err := b.sessions.Close(); err != nil {
			b.log.Debug("close sessions client failed", "err", err)
		}
		b.sessions = nil
	}

	b.stopped = true
}
