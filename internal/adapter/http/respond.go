package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// writeResponse encodes v as JSON, or as MessagePack when the request asks
// for format=msgpack. Both encodings carry the same field names: the value
// goes through its JSON form first, so types with custom JSON encoders keep
// their persisted layout.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "msgpack" {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-msgpack")
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.Encode(generic) //nolint:errcheck // headers already sent
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck // best-effort response
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeResponse(w, r, status, errorResponse{Error: err.Error()})
}
