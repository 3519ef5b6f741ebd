package handler

import (
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"civic-chat/internal/logging"
)

const maxBodyBytes = 1 << 20

// ServeHTTP runs Handle behind a plain net/http server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logging.From(r.Context()).Warn("read request body failed", "err", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	event := events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
		Body:       string(body),
	}

	resp, err := h.Handle(r.Context(), event)
	if err != nil {
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
