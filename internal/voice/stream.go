package voice

// Twilio media-stream wire format. One envelope per websocket message; the
// event field selects which payload is populated. Audio payloads are
// base64-encoded mulaw, which encoding/json handles through []byte.

type StreamStart struct {
	AccountSid  string      `json:"accountSid"`
	StreamSid   string      `json:"streamSid"`
	CallSid     string      `json:"callSid"`
	Tracks      []string    `json:"tracks"`
	MediaFormat MediaFormat `json:"mediaFormat"`
}

type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

type StreamMedia struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   []byte `json:"payload"`
}

type StreamMark struct {
	Name string `json:"name"`
}

type StreamEnvelope struct {
	Event     string       `json:"event"`
	Start     *StreamStart `json:"start"`
	Media     *StreamMedia `json:"media"`
	Mark      *StreamMark  `json:"mark"`
	StreamSid *string      `json:"streamSid"`
}

type mediaPayload struct {
	Payload []byte `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

type outFrame struct {
	StreamSid string        `json:"streamSid"`
	Event     string        `json:"event"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

func mediaFrame(streamSid string, audio []byte) outFrame {
	return outFrame{StreamSid: streamSid, Event: "media", Media: &mediaPayload{Payload: audio}}
}

func markFrame(streamSid, name string) outFrame {
	return outFrame{StreamSid: streamSid, Event: "mark", Mark: &markPayload{Name: name}}
}

// clearFrame tells Twilio to drop buffered agent audio, used when the caller
// barges in over the agent.
func clearFrame(streamSid string) outFrame {
	return outFrame{StreamSid: streamSid, Event: "clear"}
}
