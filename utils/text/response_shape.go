package text

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/iancoleman/orderedmap"
)

// responseKind tags the shapes a webhook reply is known to take.
type responseKind int

const (
	responseUnknown responseKind = iota
	responsePlainString
	responseKeyed
	responseStringArray
)

// responseShape is the decoded reply. Only the field matching kind is set.
type responseShape struct {
	kind   responseKind
	str    string
	object orderedmap.OrderedMap
	raw    any
}

// messageFields lists the keys that may hold the reply text, highest
// precedence first. The same list is searched one level under "data".
var messageFields = []string{"output", "response", "message", "text", "content", "result", "answer", "data"}

// minLooseStringLen is the length a string must exceed to be taken from an
// unknown object shape.
const minLooseStringLen = 20

const stringifiedLabel = "Response: "

// decodeResponse parses trimmed as JSON. Objects keep key order so that
// the loose string search is deterministic.
func decodeResponse(trimmed string) (responseShape, error) {
	if strings.HasPrefix(trimmed, "{") {
		obj := orderedmap.New()
		if err := obj.UnmarshalJSON([]byte(trimmed)); err != nil {
			return responseShape{}, err
		}
		return responseShape{kind: responseKeyed, object: *obj, raw: obj}, nil
	}

	var v any
	if err := sonic.UnmarshalString(trimmed, &v); err != nil {
		return responseShape{}, err
	}
	return classify(v), nil
}

func classify(v any) responseShape {
	switch t := v.(type) {
	case string:
		return responseShape{kind: responsePlainString, str: t, raw: v}
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return responseShape{kind: responseStringArray, str: s, raw: v}
			}
		}
	case orderedmap.OrderedMap:
		return responseShape{kind: responseKeyed, object: t, raw: v}
	case *orderedmap.OrderedMap:
		return responseShape{kind: responseKeyed, object: *t, raw: v}
	}
	return responseShape{kind: responseUnknown, raw: v}
}

// message extracts the reply text according to the shape.
func (r responseShape) message() string {
	switch r.kind {
	case responsePlainString, responseStringArray:
		return r.str
	case responseKeyed:
		if s, ok := fieldString(r.object); ok {
			return s
		}
		if nested, ok := nestedData(r.object); ok {
			if s, ok := fieldString(nested); ok {
				return s
			}
		}
		if s, ok := firstLooseString(r.object); ok {
			return s
		}
	}
	return stringifiedLabel + stringify(r.raw)
}

func fieldString(obj orderedmap.OrderedMap) (string, bool) {
	for _, key := range messageFields {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func nestedData(obj orderedmap.OrderedMap) (orderedmap.OrderedMap, bool) {
	v, ok := obj.Get("data")
	if !ok {
		return orderedmap.OrderedMap{}, false
	}
	switch t := v.(type) {
	case orderedmap.OrderedMap:
		return t, true
	case *orderedmap.OrderedMap:
		return *t, true
	}
	return orderedmap.OrderedMap{}, false
}

func firstLooseString(obj orderedmap.OrderedMap) (string, bool) {
	for _, key := range obj.Keys() {
		v, _ := obj.Get(key)
		if s, ok := v.(string); ok && len(s) > minLooseStringLen {
			return s, true
		}
	}
	return "", false
}

func stringify(v any) string {
	if v == nil {
		return "null"
	}
	// ConfigStd compacts the output of orderedmap's MarshalJSON
	s, err := sonic.ConfigStd.MarshalToString(v)
	if err != nil {
		return ""
	}
	return s
}
