package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

var ErrInvalidBody = errors.New("invalid request body")

// DecodeBody reads a request body into a field map according to its
// Content-Type. JSON is assumed when none is given. Numbers decode as
// json.Number (JSON) or int (YAML, XML integer elements); XML lists
// decode as []any.
func DecodeBody(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if len(data) > MaxBodyBytes {
		return nil, fmt.Errorf("%w: body too large", ErrInvalidBody)
	}

	f := JSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: content type %q", ErrInvalidBody, ct)
		}
		var ok bool
		if f, ok = mediaTypes[mt]; !ok || f == ICS {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mt)
		}
	}

	fields := map[string]any{}
	switch f {
	case JSON:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	case XML:
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		root := doc.Root()
		if root == nil {
			return nil, fmt.Errorf("%w: no root element", ErrInvalidBody)
		}
		for _, child := range root.ChildElements() {
			fields[child.Tag] = xmlValue(child)
		}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func xmlValue(el *etree.Element) any {
	switch el.SelectAttrValue("type", "string") {
	case "null":
		return nil
	case "integer":
		if n, err := strconv.Atoi(strings.TrimSpace(el.Text())); err == nil {
			return n
		}
	case "boolean":
		return strings.EqualFold(strings.TrimSpace(el.Text()), "true")
	case "list":
		items := []any{}
		for _, child := range el.ChildElements() {
			items = append(items, xmlValue(child))
		}
		return items
	}
	return el.Text()
}
