package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// maxGatewayBody bounds both the relayed request and the relayed response
const maxGatewayBody = 64 << 20

// GatewayHandler relays build requests to the orchestration service so a
// browser can reach it from the same origin
type GatewayHandler struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGatewayHandler creates a gateway relaying to endpoint
func NewGatewayHandler(endpoint string, httpClient *http.Client, logger *zap.Logger) *GatewayHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayHandler{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Build handles POST /build and POST /api/build. The upstream status,
// content type and body are passed back unchanged.
func (h *GatewayHandler) Build(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxGatewayBody))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read request body")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusInternalServerError, "Request body is not valid JSON")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn("Gateway relay failed", zap.String("endpoint", h.endpoint), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		h.logger.Warn("Gateway failed to read upstream body", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)
}
