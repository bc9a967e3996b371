// Package render negotiates the response format of a request and encodes
// resource representations as JSON, XML, YAML or iCalendar. It also
// decodes request bodies in the same formats.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/emersion/go-ical"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	XML  Format = "xml"
	YAML Format = "yaml"
	ICS  Format = "ics"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

var contentTypes = map[Format]string{
	JSON: "application/json",
	XML:  "application/xml",
	YAML: "text/yaml",
	ICS:  "text/calendar",
}

// mediaTypes maps accepted media types to formats.
var mediaTypes = map[string]Format{
	"application/json":   JSON,
	"text/javascript":    JSON,
	"application/xml":    XML,
	"text/xml":           XML,
	"text/yaml":          YAML,
	"application/yaml":   YAML,
	"application/x-yaml": YAML,
	"text/calendar":      ICS,
}

// Object is a single resource representation. It is encoded as the
// "object" root element in XML.
type Object map[string]any

// Response is a top-level document that is not a resource, such as an
// error body or the schema root. It is encoded as the "response" root
// element in XML.
type Response map[string]any

type Meta struct {
	Limit      int     `json:"limit" yaml:"limit"`
	Next       *string `json:"next" yaml:"next"`
	Offset     int     `json:"offset" yaml:"offset"`
	Previous   *string `json:"previous" yaml:"previous"`
	TotalCount int     `json:"total_count" yaml:"total_count"`
}

// List is a page of a collection.
type List struct {
	Meta    Meta     `json:"meta" yaml:"meta"`
	Objects []Object `json:"objects" yaml:"objects"`
}

// Negotiate picks the response format. The format query parameter wins
// over the Accept header; no preference means JSON.
func Negotiate(r *http.Request) (Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		f := Format(strings.ToLower(f))
		if _, ok := contentTypes[f]; !ok {
			return JSON, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
		}
		return f, nil
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if f, ok := mediaTypes[mt]; ok {
			return f, nil
		}
	}
	return JSON, nil
}

// ContentType returns the response Content-Type for f.
func ContentType(f Format) string {
	return contentTypes[f] + "; charset=utf-8"
}

// Encode writes v to w in format f. ICS accepts only *ical.Calendar.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		return json.NewEncoder(w).Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case XML:
		return encodeXML(w, v)
	case ICS:
		cal, ok := v.(*ical.Calendar)
		if !ok {
			return errNoCalendar
		}
		return ical.NewEncoder(w).Encode(cal)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// Write negotiates the format for r and writes v with status. Format
// errors become a 400 in JSON.
func Write(w http.ResponseWriter, r *http.Request, status int, v any) {
	f, err := Negotiate(r)
	if err != nil {
		writeBuffered(w, JSON, http.StatusBadRequest, Response{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, v); err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			writeBuffered(w, JSON, http.StatusBadRequest, Response{"error": err.Error()})
			return
		}
		slog.Error("encode response", "format", f, "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType(f))
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// errNoCalendar is returned when ICS is requested from a route that does
// not serve a calendar.
var errNoCalendar = fmt.Errorf("%w: ics is only available for calendar feeds", ErrUnsupportedFormat)

// RequireFormat answers 400 before next runs when the requested format
// cannot be served. ICS passes only when calendar is set.
func RequireFormat(calendar bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f, err := Negotiate(r)
			if err == nil && f == ICS && !calendar {
				err = errNoCalendar
			}
			if err != nil {
				writeBuffered(w, JSON, http.StatusBadRequest, Response{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Error writes {"error": msg} in the negotiated format. Error bodies are
// never calendars, so ICS falls back to JSON.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	f, err := Negotiate(r)
	if err != nil || f == ICS {
		f = JSON
	}
	writeBuffered(w, f, status, Response{"error": msg})
}

func writeBuffered(w http.ResponseWriter, f Format, status int, v any) {
	var buf bytes.Buffer
	if err := Encode(&buf, f, v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType(f))
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
