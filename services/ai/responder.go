package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/realtime"
	log "github.com/sirupsen/logrus"
)

// PromptMention is the chat convention that addresses the assistant.
const PromptMention = "@ai"

// TextGenerator is the external text-generation service boundary.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// HTTPTextGenerator POSTs the prompt as JSON to a configured endpoint and
// expects {"text": "..."} back.
type HTTPTextGenerator struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPTextGenerator(endpoint string) *HTTPTextGenerator {
	return &HTTPTextGenerator{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *HTTPTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generation service returned %s", resp.Status)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// IsPrompt reports whether a message body addresses the assistant.
func IsPrompt(body string) bool {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, PromptMention) {
		return false
	}
	rest := trimmed[len(PromptMention):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\n'
}

// Responder is the AI participant: it answers prompt messages by
// publishing a ChatMessage from the sentinel "AI" identity, with the body
// prefixed by the markdown marker.
type Responder struct {
	generator TextGenerator
	channel   *realtime.EventChannel
	store     db.Store
}

func NewResponder(generator TextGenerator, channel *realtime.EventChannel, store db.Store) *Responder {
	return &Responder{
		generator: generator,
		channel:   channel,
		store:     store,
	}
}

// HandleMessage generates and publishes a reply if the message is a
// prompt. The generation runs asynchronously so chat fan-out is never
// blocked on the external service.
func (r *Responder) HandleMessage(message db.ChatMessage) {
	if r == nil || !IsPrompt(message.Body) {
		return
	}

	prompt := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(message.Body), PromptMention))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		text, err := r.generator.GenerateText(ctx, prompt)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"project": message.ProjectID,
				"context": "ai_responder",
			}).Error("text generation failed")
			return
		}

		reply := db.ChatMessage{
			ProjectID: message.ProjectID,
			Sender:    db.AiSenderName,
			Body:      db.AiMessagePrefix + " " + text,
			Created:   time.Now(),
		}

		stored, err := r.store.CreateChatMessage(reply)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"project": message.ProjectID,
				"context": "ai_responder",
			}).Warn("could not persist AI reply")
			stored = reply
		}

		r.channel.Publish(realtime.NewChatEvent(stored), "")
	}()
}
