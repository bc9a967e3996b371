package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	ws "github.com/coder/websocket"
)

// Handler upgrades GET requests and streams changes until the client
// disconnects. The optional resource parameter, a comma-separated list of
// names from known, narrows the feed; unknown names are a 400.
func Handler(hub *Hub, logger *slog.Logger, known []string) http.HandlerFunc {
	valid := make(map[string]bool, len(known))
	for _, name := range known {
		valid[name] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resources, err := parseResources(r.URL.Query().Get("resource"), valid)
		if err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			// Public read-only feed, same as the GET endpoints.
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("accept websocket", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("feed client connected", "remote", r.RemoteAddr, "resources", resources)
		NewClient(hub, conn, resources...).Run(r.Context())
	}
}

func parseResources(raw string, valid map[string]bool) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if !valid[name] {
			return nil, fmt.Errorf("unknown resource %q", name)
		}
		out = append(out, name)
	}
	return out, nil
}

var actions = map[string]string{
	http.MethodPost:   "created",
	http.MethodPut:    "updated",
	http.MethodPatch:  "updated",
	http.MethodDelete: "deleted",
}

// Notify broadcasts a change for resource after a write succeeds. The id
// comes from the {id} path value, or from the Location header of a create.
func Notify(hub *Hub, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, ok := actions[r.Method]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status < 200 || rec.status >= 300 {
				return
			}

			uri := rec.Header().Get("Location")
			if uri == "" {
				uri = strings.TrimSuffix(r.URL.Path, "/") + "/"
			}
			id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
			if id == 0 {
				id = lastID(uri)
			}
			hub.Broadcast(NewMessage(resource, action, id, uri))
		})
	}
}

func lastID(uri string) int64 {
	trimmed := strings.TrimSuffix(uri, "/")
	id, _ := strconv.ParseInt(trimmed[strings.LastIndex(trimmed, "/")+1:], 10, 64)
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
