// Package captions proxies chat-completion requests to an OpenAI-compatible
// API so the editor can suggest overlay text for the current image.
package captions

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	ChatMessage struct {
		Role    string `json:"role"`
		Content any    `json:"content"` // String, or multi-part content for image prompts.
		Name    string `json:"name,omitempty"`
	}

	ChatCompletionRequest struct {
		Model     string        `json:"model"`
		Messages  []ChatMessage `json:"messages"`
		MaxTokens *int          `json:"max_tokens,omitempty"`
		Stream    *bool         `json:"stream"`
	}
)

// Proxy forwards caption-suggestion requests upstream, streaming the
// response back when the client asked for a stream.
type Proxy struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewProxy reads upstream credentials from the environment.
func NewProxy() *Proxy {
	p := &Proxy{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: os.Getenv("OPENAI_BASE_URL"),
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.openai.com" // Default value
	}
	if p.apiKey == "" {
		logrus.Warn("OPENAI_API_KEY environment variable not set. Caption suggestions will not work.")
	}
	return p
}

// flusherWriter flushes after every write so streamed tokens reach the
// client promptly.
type flusherWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw *flusherWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	fw.f.Flush()
	return n, err
}

// HandleCompletion proxies one chat-completion request.
func (p *Proxy) HandleCompletion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p.apiKey == "" {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"error": "Caption suggestions are not configured"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		var req ChatCompletionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}

		proxyURL := p.baseURL + "/v1/chat/completions"
		proxyReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, proxyURL, bytes.NewReader(body))
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create proxy request"})
			return
		}
		proxyReq.Header.Set("Authorization", "Bearer "+p.apiKey)
		proxyReq.Header.Set("Content-Type", "application/json")
		proxyReq.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(proxyReq)
		if err != nil {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, map[string]string{"error": "Failed to reach the completions API"})
			return
		}
		defer resp.Body.Close()

		if req.Stream != nil && *req.Stream {
			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(resp.StatusCode)

			fw := &flusherWriter{w: w, f: flusher}
			if _, err := io.Copy(fw, resp.Body); err != nil {
				// The response is likely already sent/broken; just log.
				logrus.WithError(err).Warn("Error streaming completion response")
			}
			return
		}

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)
		io.Copy(w, resp.Body)
	}
}
