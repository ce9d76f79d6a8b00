package foyer

import (
	"encoding/json"
	"net/http"
)

// Response is the structured result of a handler invocation, a status code and a JSON body
type Response struct {
	Status int
	Body   any
}

type okBody struct {
	OK bool `json:"ok"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewOKResponse creates a new success acknowledgement response
func NewOKResponse() *Response {
	return &Response{Status: http.StatusOK, Body: &okBody{OK: true}}
}

// NewDataResponse creates a new success response with the passed in body
func NewDataResponse(body any) *Response {
	return &Response{Status: http.StatusOK, Body: body}
}

// NewErrorResponse creates a new error response with the passed in status and message
func NewErrorResponse(status int, message string) *Response {
	return &Response{Status: status, Body: &errorBody{Error: message}}
}

// WriteResponse writes the passed in response to the response writer as JSON
func WriteResponse(w http.ResponseWriter, resp *Response) error {
	return writeJSONResponse(w, resp.Status, resp.Body)
}

// WriteServerError writes a JSON response for the passed in error
func WriteServerError(w http.ResponseWriter, err error) error {
	return writeJSONResponse(w, http.StatusInternalServerError, &errorBody{Error: err.Error()})
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}
