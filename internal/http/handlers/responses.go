package handlers

import (
	"net/http"

	"github.com/hongminglow/cinevault-be/internal/http/respond"
)

// upstreamError mirrors the OMDb error envelope so the client has a single
// error path for everything behind the proxy.
type upstreamError struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func respondUpstreamError(w http.ResponseWriter, status int, message string) {
	respond.JSON(w, status, upstreamError{Response: "False", Error: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
