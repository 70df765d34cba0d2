package engine

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/PDOK/gokoala-ogc/ogcerr"
)

// Problem is the application/problem+json envelope (spec.md §6, "Errors
// use application/problem+json with fields {type, title, status, detail}").
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// WriteError maps err through the ogcerr.Kind -> HTTP status table and
// writes the problem+json body, logging at the level the error kind
// dictates (spec.md §7, "Propagation policy" / "User-visible body").
func (e *Engine) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	oe := ogcerr.As(err)
	status := oe.Kind.Status()

	if oe.Kind.LogLevel() == "error" {
		log.Printf("error: %s %s: %v", r.Method, r.URL.Path, oe.Error())
	} else {
		log.Printf("debug: %s %s: %v", r.Method, r.URL.Path, oe.Error())
	}

	problem := Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: oe.Detail,
	}
	w.Header().Set("Content-Type", e.CN.MediaType(FormatProblem))
	w.WriteHeader(status)
	body, marshalErr := json.Marshal(problem)
	if marshalErr != nil {
		log.Printf("failed to marshal problem body: %v", marshalErr)
		return
	}
	SafeWrite(w.Write, body)
}

// WriteJSON writes v as a JSON body with the given format's media type and
// status code.
func (e *Engine) WriteJSON(w http.ResponseWriter, status int, format Format, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal response body: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", e.CN.MediaType(format))
	w.WriteHeader(status)
	SafeWrite(w.Write, body)
}
