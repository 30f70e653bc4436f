package webhook

import (
	"encoding/json"
	"strings"
)

type Intent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Context is a Dialogflow conversation context. Name is the full resource
// path ("projects/.../agent/sessions/.../contexts/<short name>"); a lifespan
// of zero on an output context deletes it.
type Context struct {
	Name          string         `json:"name"`
	LifespanCount int            `json:"lifespanCount"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

type QueryResult struct {
	QueryText           string            `json:"queryText"`
	Parameters          map[string]any    `json:"parameters"`
	FulfillmentText     string            `json:"fulfillmentText"`
	Intent              *Intent           `json:"intent"`
	FulfillmentMessages []json.RawMessage `json:"fulfillmentMessages"`
	OutputContexts      []Context         `json:"outputContexts"`
	LanguageCode        string            `json:"languageCode"`
}

type Request struct {
	ResponseID  string       `json:"responseId"`
	Session     string       `json:"session"`
	QueryResult *QueryResult `json:"queryResult"`
}

// IntentDisplayName walks queryResult.intent.displayName without assuming
// any link of the chain is present.
func (r *Request) IntentDisplayName() (string, bool) {
	if r == nil || r.QueryResult == nil || r.QueryResult.Intent == nil {
		return "", false
	}
	if r.QueryResult.Intent.DisplayName == "" {
		return "", false
	}
	return r.QueryResult.Intent.DisplayName, true
}

// Messages returns the platform-resolved fulfillment messages. An empty list
// is present; only a truly absent field reports false.
func (r *Request) Messages() ([]json.RawMessage, bool) {
	if r == nil || r.QueryResult == nil || r.QueryResult.FulfillmentMessages == nil {
		return nil, false
	}
	return r.QueryResult.FulfillmentMessages, true
}

// Query returns the raw utterance text, or "" when the query result is absent.
func (r *Request) Query() string {
	if r == nil || r.QueryResult == nil {
		return ""
	}
	return r.QueryResult.QueryText
}

// ContextNamed finds an active input context by its short name, matching the
// trailing segment of the context path case-insensitively.
func (r *Request) ContextNamed(name string) (Context, bool) {
	if r == nil || r.QueryResult == nil {
		return Context{}, false
	}
	for _, c := range r.QueryResult.OutputContexts {
		if strings.EqualFold(shortName(c.Name), name) {
			return c, true
		}
	}
	return Context{}, false
}

func shortName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// WordList pulls a string list out of the untyped context parameters.
// Anything that is not a list defaults to empty; non-string elements are
// dropped.
func (c Context) WordList(key string) []string {
	raw, ok := c.Parameters[key].([]any)
	if !ok {
		return nil
	}
	words := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			words = append(words, s)
		}
	}
	return words
}

type Text struct {
	Text []string `json:"text"`
}

type Message struct {
	Text *Text `json:"text"`
}

// Response is the fulfillment reply for a handled game turn.
type Response struct {
	FulfillmentMessages []Message `json:"fulfillmentMessages"`
	OutputContexts      []Context `json:"outputContexts,omitempty"`
}

// echoResponse hands the platform back its own messages untouched.
type echoResponse struct {
	FulfillmentMessages []json.RawMessage `json:"fulfillmentMessages"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func textMessages(lines []string) []Message {
	msgs := make([]Message, len(lines))
	for i, line := range lines {
		msgs[i] = Message{Text: &Text{Text: []string{line}}}
	}
	return msgs
}

// SetContext builds an output context entry that keeps name alive for
// lifespan more turns.
func SetContext(session, name string, lifespan int, params map[string]any) Context {
	return Context{
		Name:          session + "/contexts/" + name,
		LifespanCount: lifespan,
		Parameters:    params,
	}
}

// ClearContext builds an output context entry that deletes name.
func ClearContext(session, name string) Context {
	return Context{Name: session + "/contexts/" + name}
}
