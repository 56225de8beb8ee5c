package gateway

import (
	"github.com/gorilla/websocket"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

// Reason is why a gateway connection terminated; it selects the close frame.
type Reason int

const (
	ReasonClosed Reason = iota
	ReasonError
	ReasonInvalidData
	ReasonTimedOut
)

// closeTimedOut has no gorilla constant.
const closeTimedOut = 1014

// Code is the websocket close code sent to the client.
func (r Reason) Code() int {
	switch r {
	case ReasonError:
		return websocket.CloseInternalServerErr
	case ReasonInvalidData:
		return websocket.CloseInvalidFramePayloadData
	case ReasonTimedOut:
		return closeTimedOut
	default:
		return websocket.CloseNormalClosure
	}
}

// Text is the human readable close reason.
func (r Reason) Text() string {
	switch r {
	case ReasonError:
		return "Error"
	case ReasonInvalidData:
		return "Invalid Data"
	case ReasonTimedOut:
		return "Timed Out"
	default:
		return "Closed"
	}
}

// String is the metrics label.
func (r Reason) String() string {
	switch r {
	case ReasonError:
		return "error"
	case ReasonInvalidData:
		return "invalid_data"
	case ReasonTimedOut:
		return "timed_out"
	default:
		return "closed"
	}
}

// Err classifies abnormal terminations; nil for Closed and Error.
func (r Reason) Err() error {
	switch r {
	case ReasonInvalidData:
		return svcErr.ErrProtocolViolation
	case ReasonTimedOut:
		return svcErr.ErrTimeout
	default:
		return nil
	}
}
