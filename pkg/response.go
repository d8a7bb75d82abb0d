package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

// apiResponse is the envelope shape every JSON endpoint responds with,
// kept stable for the frontend client
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeEnvelope(w, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	}, http.StatusOK)
}

func WriteSuccessWithStatus(w http.ResponseWriter, message string, data interface{}, statusCode int) {
	writeEnvelope(w, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	}, statusCode)
}

func WriteFail(w http.ResponseWriter, message string, statusCode int) {
	writeEnvelope(w, apiResponse{
		Success: false,
		Message: message,
	}, statusCode)
}

func writeEnvelope(w http.ResponseWriter, resp apiResponse, statusCode int) {
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal response envelope [%s]: %s", resp.Message, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respBytes, statusCode)
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}
