package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"civic-chat/internal/usecase"
)

type stubUseCase struct {
	out   usecase.ChatOutput
	err   error
	in    usecase.ChatInput
	calls int
}

func (s *stubUseCase) Chat(_ context.Context, in usecase.ChatInput) (usecase.ChatOutput, error) {
	s.calls++
	s.in = in
	return s.out, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/chats",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func newTestHandler(t *testing.T, uc *stubUseCase) *Handler {
	t.Helper()
	h, err := NewHandler(uc)
	require.NoError(t, err)
	return h
}

func requireCORS(t *testing.T, headers map[string]string) {
	t.Helper()
	require.Equal(t, "*", headers["Access-Control-Allow-Origin"])
	require.Equal(t, "authorization, x-client-info, apikey, content-type", headers["Access-Control-Allow-Headers"])
	require.Equal(t, "POST, OPTIONS", headers["Access-Control-Allow-Methods"])
	require.NotEmpty(t, headers["X-Correlation-Id"])
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Response: "hello", Source: usecase.SourceFAQ}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"userId":"user-1","message":"How does this work?"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.ChatInput{UserID: "user-1", Message: "How does this work?"}, uc.in)
	requireCORS(t, resp.Headers)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])

	out := parseBody[chatResponse](t, resp.Body)
	require.Equal(t, "hello", out.Response)
}

func TestHandle_NumericUserID(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Response: "ok"}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"userId":42,"message":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "42", uc.in.UserID)
}

func TestHandle_Base64Body(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Response: "ok"}}
	h := newTestHandler(t, uc)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(`{"userId":"u","message":"m"}`)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.ChatInput{UserID: "u", Message: "m"}, uc.in)
}

func TestHandle_Options(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	event := makeEvent("")
	event.HTTPMethod = http.MethodOptions
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", resp.Body)
	requireCORS(t, resp.Headers)
	require.Zero(t, uc.calls)
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	event := makeEvent("")
	event.HTTPMethod = http.MethodGet
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	requireCORS(t, resp.Headers)
	require.Equal(t, "method not allowed", parseBody[errorResponse](t, resp.Body).Error)
	require.Zero(t, uc.calls)
}

func TestHandle_InvalidBody(t *testing.T) {
	cases := map[string]events.APIGatewayProxyRequest{
		"not json":     makeEvent(`not-json`),
		"object id":    makeEvent(`{"userId":{"id":1},"message":"hi"}`),
		"bad base64":   func() events.APIGatewayProxyRequest { e := makeEvent("%%%"); e.IsBase64Encoded = true; return e }(),
		"boolean user": makeEvent(`{"userId":true,"message":"hi"}`),
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			uc := &stubUseCase{}
			h := newTestHandler(t, uc)

			resp, err := h.Handle(context.Background(), event)
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			requireCORS(t, resp.Headers)
			require.Equal(t, "userId and message are required", parseBody[errorResponse](t, resp.Body).Error)
			require.Zero(t, uc.calls)
		})
	}
}

func TestHandle_MissingFieldsPassThroughToUseCase(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_required_fields"}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"message":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, usecase.ChatInput{UserID: "", Message: "hi"}, uc.in)

	resp, err = h.Handle(context.Background(), makeEvent(`{"userId":null,"message":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_required_fields"}, status: http.StatusBadRequest, msg: "userId and message are required"},
		{name: "configuration", err: &usecase.Error{Code: usecase.ErrorConfiguration, Reason: "gemini_credential_missing"}, status: http.StatusInternalServerError, msg: "Internal server error"},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "gemini_error"}, status: http.StatusInternalServerError, msg: "Internal server error"},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "store_user_message_error"}, status: http.StatusInternalServerError, msg: "Internal server error"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, msg: "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h := newTestHandler(t, uc)

			resp, err := h.Handle(context.Background(), makeEvent(`{"userId":"u","message":"hi"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			requireCORS(t, resp.Headers)
			require.Equal(t, tc.msg, parseBody[errorResponse](t, resp.Body).Error)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Response: "ok"}}
	h := newTestHandler(t, uc)

	event := makeEvent(`{"userId":"u","message":"hi"}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
