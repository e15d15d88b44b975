package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind string

const (
	KindNil    Kind = "nil"
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindList   Kind = "list"
	KindURLMap Kind = "url_map"
	KindObject Kind = "object"
)

// Value is the single data type threaded between workflow steps. It is a
// tagged union over the shapes the pipeline actually produces: a scalar
// (URL, count), a keyword list, a keyword-to-URLs mapping, or an arbitrary
// structured analysis. Steps pick the variant apart with the As* accessors;
// the engine itself never inspects it.
type Value struct {
	kind   Kind
	text   string
	num    float64
	list   []string
	urlMap map[string][]string
	obj    map[string]any
}

// Text returns a Value holding a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a Value holding a float64.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// List returns a Value holding a list of strings.
func List(xs []string) Value { return Value{kind: KindList, list: xs} }

// URLMap returns a Value holding a keyword-to-URLs mapping.
func URLMap(m map[string][]string) Value { return Value{kind: KindURLMap, urlMap: m} }

// Object returns a Value holding an arbitrary structured result.
func Object(m map[string]any) Value { return Value{kind: KindObject, obj: m} }

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNil
	}
	return v.kind
}

// IsNil reports whether the Value holds nothing.
func (v Value) IsNil() bool { return v.Kind() == KindNil }

// VariantError reports an accessor applied to the wrong variant. Steps
// surface it as an ordinary step failure; nothing in the engine panics on a
// shape mismatch between adjacent steps.
type VariantError struct {
	Want Kind
	Got  Kind
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("value is %s, not %s", e.Got, e.Want)
}

// AsText returns the string variant.
func (v Value) AsText() (string, error) {
	if v.Kind() != KindText {
		return "", &VariantError{Want: KindText, Got: v.Kind()}
	}
	return v.text, nil
}

// AsNumber returns the numeric variant.
func (v Value) AsNumber() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, &VariantError{Want: KindNumber, Got: v.Kind()}
	}
	return v.num, nil
}

// AsList returns the string-list variant.
func (v Value) AsList() ([]string, error) {
	if v.Kind() != KindList {
		return nil, &VariantError{Want: KindList, Got: v.Kind()}
	}
	return v.list, nil
}

// AsURLMap returns the keyword-to-URLs variant.
func (v Value) AsURLMap() (map[string][]string, error) {
	if v.Kind() != KindURLMap {
		return nil, &VariantError{Want: KindURLMap, Got: v.Kind()}
	}
	return v.urlMap, nil
}

// AsObject returns the structured-object variant.
func (v Value) AsObject() (map[string]any, error) {
	if v.Kind() != KindObject {
		return nil, &VariantError{Want: KindObject, Got: v.Kind()}
	}
	return v.obj, nil
}

// Interface returns the underlying data untagged, for serialization and
// display.
func (v Value) Interface() any {
	switch v.Kind() {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindList:
		return v.list
	case KindURLMap:
		return v.urlMap
	case KindObject:
		return v.obj
	default:
		return nil
	}
}

// String renders the value for log output.
func (v Value) String() string {
	if v.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v.Interface())
}

// Len returns the element count for list-like variants, 0 otherwise.
func (v Value) Len() int {
	switch v.Kind() {
	case KindList:
		return len(v.list)
	case KindURLMap:
		return len(v.urlMap)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// MarshalJSON writes the underlying data without the variant tag, so cached
// step results and run records stay plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON sniffs the variant back out of plain JSON. Maps whose values
// are all string arrays become a URLMap; other maps become an Object. An
// empty JSON object is ambiguous between the two and always decodes as
// Object, so an empty URLMap does not survive a round-trip.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromInterface converts untyped decoded JSON into the matching variant.
func FromInterface(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return Text(t), nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case []string:
		return List(t), nil
	case []any:
		xs := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return Value{}, fmt.Errorf("unsupported list element %T, only string lists are representable", e)
			}
			xs = append(xs, s)
		}
		return List(xs), nil
	case map[string][]string:
		return URLMap(t), nil
	case map[string]any:
		if m, ok := asURLMap(t); ok {
			return URLMap(m), nil
		}
		return Object(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// asURLMap converts a generic map when every entry is a string array.
func asURLMap(raw map[string]any) (map[string][]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	out := make(map[string][]string, len(raw))
	for k, val := range raw {
		elems, ok := val.([]any)
		if !ok {
			return nil, false
		}
		urls := make([]string, 0, len(elems))
		for _, e := range elems {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			urls = append(urls, s)
		}
		out[k] = urls
	}
	return out, true
}

// SortedKeys returns map keys in stable order, for deterministic logs.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
