package timeutil

import (
	"time"

	"github.com/fxamacker/cbor/v2"
)

// RFC3339Millis is RFC 3339 UTC with fixed millisecond precision, used for API timestamps.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision, used for log timestamps.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Time renders as an RFC 3339 millisecond string in both JSON and CBOR bodies,
// e.g. "2024-01-15T10:30:00.000Z". Decoding null keeps the existing value.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t Time) String() string {
	return t.UTC().Format(RFC3339Millis)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return t.parse(s)
}

// MarshalCBOR implements cbor.Marshaler so CBOR clients see the same text form as JSON clients.
func (t Time) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.String())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (t *Time) UnmarshalCBOR(data []byte) error {
	var s *string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	return t.parse(*s)
}

func (t *Time) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
