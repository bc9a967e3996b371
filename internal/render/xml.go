package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/beevik/etree"
)

// encodeXML renders v in the classic typed-element layout:
// <response><objects type="list"><object type="hash">...</object></objects></response>.
// Strings carry no type attribute; everything else is tagged.
func encodeXML(w io.Writer, v any) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	switch x := v.(type) {
	case List:
		root := doc.CreateElement("response")
		appendFields(root, listFields(x))
	case Object:
		root := doc.CreateElement("object")
		appendFields(root, x)
	case Response:
		root := doc.CreateElement("response")
		appendFields(root, x)
	default:
		return fmt.Errorf("%w: xml cannot encode %T", ErrUnsupportedFormat, v)
	}

	_, err := doc.WriteTo(w)
	return err
}

func listFields(l List) map[string]any {
	objects := l.Objects
	if objects == nil {
		objects = []Object{}
	}
	return map[string]any{
		"meta":    metaFields(l.Meta),
		"objects": objects,
	}
}

func metaFields(m Meta) Object {
	return Object{
		"limit":       m.Limit,
		"next":        m.Next,
		"offset":      m.Offset,
		"previous":    m.Previous,
		"total_count": m.TotalCount,
	}
}

func appendFields(parent *etree.Element, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		appendValue(parent.CreateElement(k), fields[k])
	}
}

func appendValue(el *etree.Element, v any) {
	switch x := v.(type) {
	case nil:
		el.CreateAttr("type", "null")
	case string:
		el.SetText(x)
	case *string:
		if x == nil {
			el.CreateAttr("type", "null")
			return
		}
		el.SetText(*x)
	case bool:
		el.CreateAttr("type", "boolean")
		if x {
			el.SetText("True")
		} else {
			el.SetText("False")
		}
	case int:
		el.CreateAttr("type", "integer")
		el.SetText(strconv.Itoa(x))
	case int64:
		el.CreateAttr("type", "integer")
		el.SetText(strconv.FormatInt(x, 10))
	case float64:
		el.CreateAttr("type", "float")
		el.SetText(strconv.FormatFloat(x, 'f', -1, 64))
	case []string:
		el.CreateAttr("type", "list")
		for _, s := range x {
			el.CreateElement("value").SetText(s)
		}
	case []Object:
		el.CreateAttr("type", "list")
		for _, o := range x {
			child := el.CreateElement("object")
			child.CreateAttr("type", "hash")
			appendFields(child, o)
		}
	case Object:
		el.CreateAttr("type", "hash")
		appendFields(el, x)
	case map[string]any:
		el.CreateAttr("type", "hash")
		appendFields(el, x)
	default:
		el.SetText(fmt.Sprint(x))
	}
}
