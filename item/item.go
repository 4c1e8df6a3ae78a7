// Package item defines the canonical on-disk record for a cached value and
// the codec that moves values in and out of it.
//
// A record carries five fields: the encoded value, a value-type tag that
// reverses the encoding on read, an optional absolute expiry, the creation
// time, and a schema version. Validity is judged here and nowhere else: the
// engine asks this package whether raw bytes are worth returning and deletes
// the file when the answer is no.
//
// The codec is pure. Functions take explicit time arguments and the package
// holds no clock, which keeps expiry behavior trivially testable.
package item

import (
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is the record format version written by this build.
// A decoder accepts exactly this version; anything else is invalid and is
// treated as a miss by the engine. Bumping the constant therefore
// invalidates every previously written item. There is no migration path,
// by contract: a cache is never a source of truth.
const SchemaVersion = 1

var (
	// ErrInvalidRecord marks bytes that do not decode to a valid record:
	// malformed JSON, a missing field, a version mismatch, an unknown
	// value-type tag, or a payload that does not parse under its tag.
	ErrInvalidRecord = errors.New("item: invalid record")

	// ErrUnsupportedValue marks values the codec cannot represent at all,
	// such as channels, funcs, NaN floats, or cyclic structures.
	ErrUnsupportedValue = errors.New("item: unsupported value")
)

// Item is a cache entry in memory: the value plus the expiry metadata needed
// to judge freshness. Items are immutable once constructed.
type Item struct {
	value     any
	raw       []byte // encoded payload, as stored in the record
	valueType string
	expiresAt int64 // Unix seconds; meaningful only when hasExpiry
	hasExpiry bool
	createdAt int64 // Unix seconds
}

// New constructs an Item holding value, with expiry resolved from ttl as of
// now:
//
//   - ttl == 0: the item never expires.
//   - ttl != 0: the item expires at now+ttl. A negative ttl is legal and
//     yields an already-expired item.
//
// Expiry has one-second resolution; sub-second ttl components truncate.
// Values the codec cannot represent are rejected with ErrUnsupportedValue
// before any encoding output exists.
func New(value any, ttl time.Duration, now time.Time) (*Item, error) {
	raw, tag, err := encodeValue(value)
	if err != nil {
		return nil, err
	}
	it := &Item{
		value:     value,
		raw:       raw,
		valueType: tag,
		createdAt: now.Unix(),
	}
	if ttl != 0 {
		it.expiresAt = now.Add(ttl).Unix()
		it.hasExpiry = true
	}
	return it, nil
}

// Encode emits the five-field record for the item. The record is re-validated
// before marshalling: a codec bug must never silently produce bytes a later
// Decode would reject.
func (it *Item) Encode() ([]byte, error) {
	rec := Record{
		Value:     it.raw,
		ValueType: it.valueType,
		CreatedAt: it.createdAt,
		Version:   SchemaVersion,
	}
	if it.hasExpiry {
		at := it.expiresAt
		rec.ExpiresAt = &at
	}
	return rec.encode()
}

// Decode parses raw record bytes into an Item. It fails with a wrapped
// ErrInvalidRecord unless all five fields are present, the version matches
// SchemaVersion, expires_at is null or an integer, and the payload
// reconstructs under its value-type tag.
func Decode(data []byte) (*Item, error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	value, err := decodeValue(rec.Value, rec.ValueType)
	if err != nil {
		return nil, err
	}
	it := &Item{
		value:     value,
		raw:       rec.Value,
		valueType: rec.ValueType,
		createdAt: rec.CreatedAt,
	}
	if rec.ExpiresAt != nil {
		it.expiresAt = *rec.ExpiresAt
		it.hasExpiry = true
	}
	return it, nil
}

// ExpiredAt reports whether the item is expired as of t.
// An item with no expiry never expires; otherwise the item is expired once
// its deadline lies strictly in the past.
func (it *Item) ExpiredAt(t time.Time) bool {
	return it.hasExpiry && it.expiresAt < t.Unix()
}

// Value returns the decoded value, or def when the item is expired as of at.
func (it *Item) Value(def any, at time.Time) any {
	if it.ExpiredAt(at) {
		return def
	}
	return it.value
}

// ValueType returns the record's value-type tag.
func (it *Item) ValueType() string { return it.valueType }

// CreatedAt returns the write time in Unix seconds.
func (it *Item) CreatedAt() int64 { return it.createdAt }

// ExpiresAt returns the expiry deadline in Unix seconds and whether the item
// has one.
func (it *Item) ExpiresAt() (int64, bool) { return it.expiresAt, it.hasExpiry }

// InvalidOrExpired reports whether raw record bytes should be discarded as of
// now. A decode failure of any sort counts as invalid and is deliberately not
// propagated: this is the single predicate the engine uses to fold corrupt,
// outdated, and expired records into the miss path.
func InvalidOrExpired(data []byte, now time.Time) bool {
	it, err := Decode(data)
	return err != nil || it.ExpiredAt(now)
}

// invalidf builds a wrapped ErrInvalidRecord with detail.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}
