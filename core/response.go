package core

import (
	"encoding/json"
	"net/http"
)

type jsonResponse struct {
	status int
	body   []byte
}

// JsonBasic contains the fields every envelope response carries.
type JsonBasic struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// headersJson are the default headers for API JSON responses.
var headersJson = map[string]string{
	"Content-Type": "application/json; charset=utf-8",

	// Do not let browsers sniff a different content type out of the body.
	"X-Content-Type-Options": "nosniff",

	// Auth responses carry credentials; nothing here may be cached.
	"Cache-Control": "no-store, no-cache, must-revalidate",

	"X-Frame-Options": "DENY",
}

func setHeaders(w http.ResponseWriter, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
}

// writeJsonResponse writes a precomputed response. The body bytes were
// marshaled once at init, so the handler hot path does no encoding.
func writeJsonResponse(w http.ResponseWriter, resp jsonResponse) {
	setHeaders(w, headersJson)
	w.WriteHeader(resp.status)
	_, _ = w.Write(resp.body)
}

// writeJsonData writes a dynamic JSON body with the given status.
func writeJsonData(w http.ResponseWriter, status int, data any) {
	setHeaders(w, headersJson)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJsonDetail writes a {"detail": ...} body, the shape used by the
// project endpoints for explanatory failures.
func writeJsonDetail(w http.ResponseWriter, status int, detail string) {
	writeJsonData(w, status, map[string]string{"detail": detail})
}
