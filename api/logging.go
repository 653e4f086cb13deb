package api

import (
	"vitaai.com/prontuario/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"net/http"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	Method    string `json:"method"`
	Url       string `json:"url"`
	RequestID string `json:"request_id"`
}

const (
	RequestInfoFieldsKey = "request_info"
	RequestIDHeader      = "X-Request-Id"
)

// makeRequestLogger tags the logger with the caller's request id, or a new one.
func makeRequestLogger(request *http.Request) (zerolog.Logger, string) {
	requestID := request.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.New().String()
	}
	fields := endpointLoggerFields{
		Method:    request.Method,
		Url:       request.URL.String(),
		RequestID: requestID,
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger(), requestID
}
