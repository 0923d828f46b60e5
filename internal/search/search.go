package search

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

// виды ошибок адаптера; наружу все они уходят как {"error": "..."}
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrCredentialMissing = errors.New("credential not configured")
	ErrTransport         = errors.New("transport failure")
	ErrUpstreamStatus    = errors.New("upstream status failure")
	ErrDecode            = errors.New("failed to decode response")
	ErrUpstreamReported  = errors.New("upstream reported error")
	ErrUnexpectedShape   = errors.New("unexpected response format")
)

type Client interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.ProductRecord, error)
}

// Error - ошибка поиска с дискриминатором Kind.
// Payload заполнен только для ErrUpstreamReported: это исходный документ апстрима.
type Error struct {
	Kind    error
	Message string
	Payload json.RawMessage
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf возвращает короткую метку для логов и метрик
func KindOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrCredentialMissing):
		return "credential_missing"
	case errors.Is(err, ErrTransport):
		return "transport_failure"
	case errors.Is(err, ErrUpstreamStatus):
		return "upstream_status_failure"
	case errors.Is(err, ErrDecode):
		return "decode_failure"
	case errors.Is(err, ErrUpstreamReported):
		return "upstream_reported_error"
	case errors.Is(err, ErrUnexpectedShape):
		return "unexpected_response_shape"
	}
	return "unknown"
}

// Encode превращает результат поиска в JSON-строку для агента.
// Ошибка апстрима отдаётся как есть, остальные ошибки - как ErrorPayload.
func Encode(products []domain.ProductRecord, err error) string {
	if err != nil {
		var serr *Error
		if errors.As(err, &serr) && len(serr.Payload) > 0 {
			return string(serr.Payload)
		}
		return encodeError(err.Error())
	}

	if products == nil {
		products = []domain.ProductRecord{}
	}
	data, merr := json.Marshal(products)
	if merr != nil {
		return encodeError("failed to encode results")
	}
	return string(data)
}

func encodeError(msg string) string {
	data, _ := json.Marshal(domain.ErrorPayload{Error: msg})
	return string(data)
}
