package newsapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Failure modes returned by Client methods. Every error a Client returns is
// either wrapped around one of these sentinels or is an *ErrorResponse.
var (
	ErrInvalidURL    = errors.New("newsapi: invalid url")
	ErrFailedRequest = errors.New("newsapi: request failed")
	ErrDecoding      = errors.New("newsapi: decoding error")
)

// statusOK is the status the API sends alongside successful payloads.
const statusOK = "ok"

// ErrorResponse is an error reported by the API itself.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *ErrorResponse) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("newsapi: %s: %s", e.Code, e.Message)
	case e.Code != "":
		return "newsapi: " + e.Code
	case e.Message != "":
		return "newsapi: " + e.Message
	default:
		return "newsapi: error response with status " + e.Status
	}
}

func (e *ErrorResponse) decode(data []byte) error {
	var wire struct {
		Status  *string `json:"status"`
		Code    *string `json:"code"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Status == nil {
		return errMissingField
	}
	*e = ErrorResponse{Status: *wire.Status}
	if wire.Code != nil {
		e.Code = *wire.Code
	}
	if wire.Message != nil {
		e.Message = *wire.Message
	}
	return nil
}

// Kind labels an error returned by a Client method.
type Kind string

const (
	KindInvalidURL    Kind = "invalid_url"
	KindFailedRequest Kind = "failed_request"
	KindDecoding      Kind = "decoding_error"
	KindErrorResponse Kind = "error_response"
)

// KindOf classifies err into one of the client's failure kinds. It returns
// an empty Kind for nil and for errors the client never produces.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *ErrorResponse
	switch {
	case errors.As(err, &apiErr):
		return KindErrorResponse
	case errors.Is(err, ErrInvalidURL):
		return KindInvalidURL
	case errors.Is(err, ErrFailedRequest):
		return KindFailedRequest
	case errors.Is(err, ErrDecoding):
		return KindDecoding
	default:
		return ""
	}
}
