package webhook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"bringgame/internal/game"
)

const (
	playingContext = "playing"
	wordsParam     = "words"
)

// Handler serves the Dialogflow fulfillment callback for the memory game.
type Handler struct {
	log *slog.Logger
}

func NewHandler(log *slog.Logger) (*Handler, error) {
	if log == nil {
		return nil, errors.New("webhook: logger must not be nil")
	}
	return &Handler{log: log}, nil
}

// Fulfillment handles one game turn. Payloads that don't look like a
// Dialogflow callback get a 400, turns without a running game echo the
// agent's scripted messages, and everything else goes through the
// accumulation rule.
func (h *Handler) Fulfillment(c *fiber.Ctx) error {
	req := &Request{}
	if err := c.BodyParser(req); err != nil {
		h.log.Warn("failed to parse fulfillment body", "err", err)
	}

	intent, ok := req.IntentDisplayName()
	if !ok {
		return badRequest(c, "missing intent display name, this does not look like a Dialogflow webhook call")
	}

	messages, ok := req.Messages()
	if !ok {
		return badRequest(c, fmt.Sprintf("intent %q is missing its fulfillment messages", intent))
	}

	playing, ok := req.ContextNamed(playingContext)
	if !ok {
		// No game in progress, the agent's own script answers.
		return c.JSON(echoResponse{FulfillmentMessages: messages})
	}

	query := strings.ToLower(strings.TrimSpace(req.Query()))
	prior := playing.WordList(wordsParam)
	next := game.Normalize(query)

	res := game.Advance(prior, next, query)

	resp := Response{FulfillmentMessages: textMessages(res.Lines)}
	switch {
	case res.Continue:
		params := mergeWords(playing.Parameters, res.Words)
		resp.OutputContexts = []Context{SetContext(req.Session, playingContext, 1, params)}
	case res.Rearm:
		resp.OutputContexts = []Context{SetContext(req.Session, playingContext, 1, playing.Parameters)}
	}

	h.log.Info("game turn",
		"intent", intent,
		"prior_words", len(prior),
		"accepted", res.Continue,
	)

	return c.JSON(resp)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msg})
}

// mergeWords replaces the word list while keeping whatever else the platform
// stored in the context parameters.
func mergeWords(params map[string]any, words []string) map[string]any {
	merged := make(map[string]any, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged[wordsParam] = words
	return merged
}
