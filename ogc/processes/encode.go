package processes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/PDOK/gokoala-ogc/domain"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/process"
)

// writeResult encodes a process Result per spec.md §4.7 "Result encoding":
// document mode is always a JSON {results: {...}} object; raw mode varies
// by output count (0 -> 204, 1 -> bare body, N>1 -> multipart/related).
func writeResult(w http.ResponseWriter, e *engine.Engine, mode domain.ResponseMode, result *process.Result) {
	if mode == domain.ResponseDocument {
		writeDocumentResult(w, e, result)
		return
	}
	writeRawResult(w, result)
}

func writeDocumentResult(w http.ResponseWriter, e *engine.Engine, result *process.Result) {
	results := make(map[string]interface{}, len(result.Outputs))
	for _, out := range result.Outputs {
		if out.Link != nil {
			results[out.Name] = out.Link
			continue
		}
		var v interface{}
		if err := json.Unmarshal(out.Value, &v); err != nil {
			results[out.Name] = string(out.Value)
		} else {
			results[out.Name] = v
		}
	}
	e.WriteJSON(w, http.StatusOK, engine.FormatJSON, map[string]interface{}{"results": results})
}

func writeRawResult(w http.ResponseWriter, result *process.Result) {
	switch len(result.Outputs) {
	case 0:
		w.WriteHeader(http.StatusNoContent)
	case 1:
		out := result.Outputs[0]
		if out.Link != nil {
			w.Header().Set("Link", "<"+out.Link.Href+">; rel=\""+out.Link.Rel+"\"")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", out.ContentType)
		w.WriteHeader(http.StatusOK)
		engine.SafeWrite(w.Write, out.Value)
	default:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, out := range result.Outputs {
			header := make(map[string][]string)
			header["Content-ID"] = []string{out.Name}
			header["Content-Type"] = []string{out.ContentType}
			part, err := mw.CreatePart(header)
			if err != nil {
				continue
			}
			if out.Link != nil {
				_, _ = part.Write([]byte(out.Link.Href))
				continue
			}
			_, _ = part.Write(out.Value)
		}
		boundary := mw.Boundary()
		_ = mw.Close()
		w.Header().Set("Content-Type", "multipart/related; boundary="+boundary)
		w.WriteHeader(http.StatusOK)
		engine.SafeWrite(w.Write, buf.Bytes())
	}
}
