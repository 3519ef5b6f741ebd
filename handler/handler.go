package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"civic-chat/internal/logging"
	"civic-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const (
	msgMissingFields  = "userId and message are required"
	msgInternal       = "Internal server error"
	msgMethodNotAllow = "method not allowed"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

type UseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type Handler struct {
	useCase UseCase
}

type chatRequest struct {
	UserID  ownerID `json:"userId"`
	Message string  `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ownerID accepts a JSON string or number; anything else decodes to "".
type ownerID string

func (o *ownerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = ownerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("userId must be a string or number")
	}
	*o = ownerID(n.String())
	return nil
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{useCase: uc}, nil
}

// Handle serves one API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := logging.From(ctx).With("correlation_id", correlationID)
	ctx = logging.With(ctx, logger)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return textResponse(http.StatusOK, "ok", correlationID), nil
	case http.MethodPost:
	default:
		logger.Warn("method not allowed", "method", req.HTTPMethod)
		return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: msgMethodNotAllow}, correlationID), nil
	}

	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			logger.Warn("invalid base64 body", "err", err)
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: msgMissingFields}, correlationID), nil
		}
		body = string(decoded)
	}

	var in chatRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		logger.Warn("invalid request body", "err", err)
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: msgMissingFields}, correlationID), nil
	}

	logger.Info("chat request accepted")
	out, err := h.useCase.Chat(ctx, usecase.ChatInput{UserID: string(in.UserID), Message: in.Message})
	if err != nil {
		status, msg := mapError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("chat request failed", "err", err)
		} else {
			logger.Warn("chat request rejected", "err", err)
		}
		return jsonResponse(status, errorResponse{Error: msg}, correlationID), nil
	}

	return jsonResponse(http.StatusOK, chatResponse{Response: out.Response}, correlationID), nil
}

func mapError(err error) (int, string) {
	var ue *usecase.Error
	if errors.As(err, &ue) && ue.Code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest, msgMissingFields
	}
	return http.StatusInternalServerError, msgInternal
}

func baseHeaders(correlationID string) map[string]string {
	h := make(map[string]string, len(corsHeaders)+2)
	for k, v := range corsHeaders {
		h[k] = v
	}
	h[correlationHeader] = correlationID
	return h
}

func jsonResponse(status int, v any, correlationID string) events.APIGatewayProxyResponse {
	headers := baseHeaders(correlationID)
	headers["Content-Type"] = "application/json"
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"` + msgInternal + `"}`)
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(b)}
}

func textResponse(status int, body, correlationID string) events.APIGatewayProxyResponse {
	headers := baseHeaders(correlationID)
	headers["Content-Type"] = "text/plain"
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: body}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
