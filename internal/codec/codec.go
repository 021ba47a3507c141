// Package codec converts typed scalar values to and from the string wire
// representation used for hash fields. Encoding is deterministic and
// symmetric: Decode(Encode(v)) == v for every supported scalar, with
// time stored at second resolution (UTC) and durations as fractional
// seconds.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EncodeBool encodes a bool as "1" or "0".
func EncodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// DecodeBool decodes "1" as true; anything else is false.
func DecodeBool(s string) bool {
	return s == "1"
}

// EncodeInt encodes a signed integer as its decimal string.
func EncodeInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// DecodeInt parses a decimal integer. Malformed input is a hard error.
func DecodeInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode int %q: %w", s, err)
	}
	return n, nil
}

// EncodeFloat encodes a float with the minimum digits that round-trip.
func EncodeFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DecodeFloat parses a float. Malformed input is a hard error.
func DecodeFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("decode float %q: %w", s, err)
	}
	return f, nil
}

// EncodeTime encodes a timestamp as integer seconds since epoch, UTC.
func EncodeTime(t time.Time) string {
	return strconv.FormatInt(t.UTC().Unix(), 10)
}

// DecodeTime parses epoch seconds into a UTC timestamp.
func DecodeTime(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", s, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// EncodeDuration encodes a duration as fractional seconds.
func EncodeDuration(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'g', -1, 64)
}

// DecodeDuration parses fractional seconds into a duration.
func DecodeDuration(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("decode duration %q: %w", s, err)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// EncodeJSON serializes an opaque value through the generic object encoder.
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data), nil
}

// DecodeJSON deserializes an opaque value. Unlike the strictly typed
// scalar paths, callers are expected to treat a failure here as "no
// value" rather than aborting the whole read.
func DecodeJSON(s string, out any) error {
	return json.Unmarshal([]byte(s), out)
}
