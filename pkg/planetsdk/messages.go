package planetsdk

import (
	"errors"
	"net/http"
)

// UserMessage picks the message an end user should see for err. It mirrors
// the alerts the mobile screens showed, chosen by status code.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrEvidence) {
		return "The evidence image could not be processed."
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Something went wrong: " + err.Error()
	}

	switch apiErr.Kind {
	case KindTimeout:
		return "The request timed out. Please check your network connection."
	case KindNetwork:
		return "Could not reach the server. Please check your internet connection."
	case KindNotAuthenticated:
		return "You are not signed in. Please log in."
	case KindUnknown:
		return "An unknown error occurred."
	}

	switch apiErr.StatusCode {
	case http.StatusBadRequest:
		return "The submitted information is not valid."
	case http.StatusUnauthorized:
		return "Authentication is required. Please log in again."
	case http.StatusForbidden:
		return "You do not have permission to do that."
	case http.StatusNotFound:
		return "The requested item could not be found."
	case http.StatusConflict:
		if msg := apiErr.ServerMessage(); msg != "" {
			return msg
		}
		return "That already exists."
	case http.StatusTooManyRequests:
		return "Too many attempts. Please wait a moment and try again."
	}

	if msg := apiErr.ServerMessage(); msg != "" {
		return msg
	}
	return "An error occurred while talking to the server."
}
