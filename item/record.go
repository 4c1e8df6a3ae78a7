package item

import (
	"encoding/json"
	"strconv"
)

// Record is the canonical on-disk representation of a cached value. The five
// JSON keys and their names are stable: they are the wire format, and every
// build of the engine must read what another build with the same
// SchemaVersion wrote.
type Record struct {
	Value     json.RawMessage `json:"value"`
	ValueType string          `json:"value_type"`
	ExpiresAt *int64          `json:"expires_at"`
	CreatedAt int64           `json:"created_at"`
	Version   int             `json:"version"`
}

// rawRecord mirrors Record with pointer fields so a missing key is
// distinguishable from a zero value. expires_at stays raw because it alone
// must tell apart absent (invalid), null (no expiry), and integer.
type rawRecord struct {
	Value     *json.RawMessage `json:"value"`
	ValueType *string          `json:"value_type"`
	ExpiresAt json.RawMessage  `json:"expires_at"`
	CreatedAt *int64           `json:"created_at"`
	Version   *int             `json:"version"`
}

// DecodeRecord strictly parses raw record bytes. It rejects, with a wrapped
// ErrInvalidRecord: malformed JSON, any missing key, a version other than
// SchemaVersion, an unknown value-type tag, and a non-null non-integer
// expires_at. A JSON null in a field that must not be null counts as missing.
func DecodeRecord(data []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, invalidf("not a record object: %v", err)
	}
	switch {
	case raw.Value == nil:
		return Record{}, invalidf("missing field %q", "value")
	case raw.ValueType == nil:
		return Record{}, invalidf("missing field %q", "value_type")
	case len(raw.ExpiresAt) == 0:
		return Record{}, invalidf("missing field %q", "expires_at")
	case raw.CreatedAt == nil:
		return Record{}, invalidf("missing field %q", "created_at")
	case raw.Version == nil:
		return Record{}, invalidf("missing field %q", "version")
	}
	if *raw.Version != SchemaVersion {
		return Record{}, invalidf("version %d, want %d", *raw.Version, SchemaVersion)
	}
	if !knownTag(*raw.ValueType) {
		return Record{}, invalidf("unknown value_type %q", *raw.ValueType)
	}

	rec := Record{
		Value:     *raw.Value,
		ValueType: *raw.ValueType,
		CreatedAt: *raw.CreatedAt,
		Version:   *raw.Version,
	}
	if string(raw.ExpiresAt) != "null" {
		n, err := strconv.ParseInt(string(raw.ExpiresAt), 10, 64)
		if err != nil {
			return Record{}, invalidf("expires_at %s is neither null nor an integer", raw.ExpiresAt)
		}
		rec.ExpiresAt = &n
	}
	return rec, nil
}

// encode validates the record and marshals it. Every key is always emitted;
// a nil ExpiresAt marshals as an explicit null.
func (r Record) encode() ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// validate re-checks the invariants DecodeRecord enforces, on the struct
// form. Encode runs it so a codec bug cannot emit a record a later decode
// would reject.
func (r Record) validate() error {
	if len(r.Value) == 0 {
		return invalidf("missing field %q", "value")
	}
	if r.Version != SchemaVersion {
		return invalidf("version %d, want %d", r.Version, SchemaVersion)
	}
	if !knownTag(r.ValueType) {
		return invalidf("unknown value_type %q", r.ValueType)
	}
	return nil
}
