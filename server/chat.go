package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/axsaucedo/agentrun/core"
)

// chatRequest is the accepted subset of the OpenAI chat completions
// request. session_id is an extension tying the conversation to one
// memory session; the standard user field works as a fallback key.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	User      string        `json:"user"`
	SessionID string        `json:"session_id"`
}

// omitempty keeps streaming delta frames minimal: the terminal frame
// carries an empty delta object, content-only frames omit the role.
type chatMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type chatChoice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	Delta        *chatMessage `json:"delta,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "messages must not be empty"})
		return
	}

	// The turn input is the latest user message; earlier turns live in
	// session memory, not in the request payload.
	var userMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			userMessage = req.Messages[i].Content
			break
		}
	}
	if userMessage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no user message in request"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.User
	}
	modelName := req.Model
	if modelName == "" {
		modelName = s.agent.ModelInfo().Name
	}

	if req.Stream {
		s.streamChatCompletion(w, r, sessionID, userMessage, modelName)
		return
	}

	_, response, err := s.agent.ProcessMessageSync(r.Context(), sessionID, userMessage)
	if err != nil && response == "" {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	stop := "stop"
	writeJSON(w, http.StatusOK, chatCompletion{
		ID:      "chatcmpl-" + core.NewID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   modelName,
		Choices: []chatChoice{{
			Message:      &chatMessage{Role: "assistant", Content: response},
			FinishReason: &stop,
		}},
		// Token counts are not tracked at this surface.
		Usage: &chatUsage{},
	})
}

// streamChatCompletion relays the agent's chunk channel as server-sent
// events. Every frame is a chat.completion.chunk; the stream closes with a
// finish_reason "stop" frame followed by the literal [DONE] sentinel.
func (s *Server) streamChatCompletion(w http.ResponseWriter, r *http.Request, sessionID, userMessage, modelName string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming not supported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id := "chatcmpl-" + core.NewID()
	created := time.Now().Unix()
	writeFrame := func(delta *chatMessage, finishReason *string) {
		frame := chatCompletion{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   modelName,
			Choices: []chatChoice{{Delta: delta, FinishReason: finishReason}},
		}
		data, err := json.Marshal(frame)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	_, chunks, errCh := s.agent.ProcessMessage(r.Context(), sessionID, userMessage, true)
	for chunk := range chunks {
		writeFrame(&chatMessage{Content: chunk}, nil)
	}
	if err := <-errCh; err != nil {
		s.logger.Warn("chat completion stream aborted", "error", err.Error())
		return
	}

	stop := "stop"
	writeFrame(&chatMessage{}, &stop)
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func isPeerNotFound(err error) bool {
	var notFound *core.PeerNotFoundError
	return errors.As(err, &notFound)
}
