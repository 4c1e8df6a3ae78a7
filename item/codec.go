package item

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value-type tags. The tag set is the wire contract for the value field:
// decoding dispatches on the tag alone, so behavior stays enumerable and
// testable per kind instead of leaning on runtime reflection.
const (
	TagNull   = "null"
	TagBool   = "bool"
	TagInt    = "int"
	TagUint   = "uint"
	TagFloat  = "float"
	TagString = "string"
	TagBytes  = "bytes"
	TagList   = "list"
	TagMap    = "map"
)

// knownTag reports whether tag names a supported value kind.
func knownTag(tag string) bool {
	switch tag {
	case TagNull, TagBool, TagInt, TagUint, TagFloat, TagString, TagBytes, TagList, TagMap:
		return true
	}
	return false
}

// encodeValue encodes value into its payload form and picks the tag that
// reverses it. Scalars are stored directly; []byte rides JSON's base64
// string form; everything else must marshal to a JSON array or object and is
// tagged list or map. Unrepresentable values (channels, funcs, NaN floats,
// cycles, marshalers producing scalars) get ErrUnsupportedValue.
func encodeValue(value any) (json.RawMessage, string, error) {
	switch v := value.(type) {
	case nil:
		return json.RawMessage("null"), TagNull, nil
	case bool:
		return mustScalar(v, TagBool)
	case string:
		return mustScalar(v, TagString)
	case int, int8, int16, int32, int64:
		return mustScalar(v, TagInt)
	case uint, uint8, uint16, uint32, uint64:
		return mustScalar(v, TagUint)
	case float32, float64:
		return mustScalar(v, TagFloat)
	case []byte:
		return mustScalar(v, TagBytes)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, "", invalidValuef("%T: %v", value, err)
		}
		switch data[0] {
		case '[':
			return data, TagList, nil
		case '{':
			return data, TagMap, nil
		default:
			return nil, "", invalidValuef("%T encodes to a bare %s, not a structure", value, data)
		}
	}
}

// mustScalar marshals a scalar that can only fail for non-finite floats.
func mustScalar(v any, tag string) (json.RawMessage, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", invalidValuef("%T: %v", v, err)
	}
	return data, tag, nil
}

// decodeValue reverses encodeValue for a payload under its tag. Each branch
// parses strictly; a payload that does not fit its tag makes the whole
// record invalid.
func decodeValue(raw json.RawMessage, tag string) (any, error) {
	switch tag {
	case TagNull:
		if !bytes.Equal(raw, []byte("null")) {
			return nil, invalidf("null payload holds %s", raw)
		}
		return nil, nil
	case TagBool:
		var b bool
		return b, unmarshalPayload(raw, &b, tag)
	case TagInt:
		var n int64
		return n, unmarshalPayload(raw, &n, tag)
	case TagUint:
		var n uint64
		return n, unmarshalPayload(raw, &n, tag)
	case TagFloat:
		var f float64
		return f, unmarshalPayload(raw, &f, tag)
	case TagString:
		var s string
		return s, unmarshalPayload(raw, &s, tag)
	case TagBytes:
		var b []byte
		return b, unmarshalPayload(raw, &b, tag)
	case TagList:
		v, err := decodeStructured(raw)
		if err != nil {
			return nil, err
		}
		l, ok := v.([]any)
		if !ok {
			return nil, invalidf("list payload holds %T", v)
		}
		return l, nil
	case TagMap:
		v, err := decodeStructured(raw)
		if err != nil {
			return nil, err
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, invalidf("map payload holds %T", v)
		}
		return m, nil
	default:
		return nil, invalidf("unknown value_type %q", tag)
	}
}

// unmarshalPayload decodes raw into out, folding errors into ErrInvalidRecord.
func unmarshalPayload(raw json.RawMessage, out any, tag string) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return invalidf("%s payload: %v", tag, err)
	}
	return nil
}

// decodeStructured parses a list or map payload, keeping numbers exact:
// integral numbers come back as int64, the rest as float64, applied
// recursively. Without this, every round-trip through the cache would turn
// stored integers into floats.
func decodeStructured(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalidf("structured payload: %v", err)
	}
	return normalizeNumbers(v), nil
}

// normalizeNumbers rewrites json.Number leaves into int64 or float64.
func normalizeNumbers(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = normalizeNumbers(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalizeNumbers(e)
		}
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		// Out-of-range literal from a hand-crafted record; keep it readable.
		return string(v)
	default:
		return v
	}
}

// invalidValuef builds a wrapped ErrUnsupportedValue with detail.
func invalidValuef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedValue, fmt.Sprintf(format, args...))
}
