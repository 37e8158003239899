package codec

import (
	"context"
	"time"

	userfields "github.com/reoring/userfields"
)

// ISO8601Millis is the wire layout of record timestamps, e.g.
// 2024-01-21T13:47:25.123Z.
const ISO8601Millis = "2006-01-02T15:04:05.000Z07:00"

// Timestamp returns a Codec that converts between ISO-8601 strings with
// millisecond precision and time.Time. Encoding always renders UTC.
func Timestamp() Codec[string, time.Time] { return timestampCodec{} }

type timestampCodec struct{}

func (timestampCodec) Decode(ctx context.Context, a string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, a)
	if err != nil {
		return time.Time{}, userfields.Issues{{Path: "/", Code: userfields.CodeInvalidType, Message: "invalid ISO-8601 time"}}
	}
	return t.UTC(), nil
}

func (timestampCodec) Encode(ctx context.Context, b time.Time) (string, error) {
	return b.UTC().Format(ISO8601Millis), nil
}

// FormatTimestamp renders t with the Timestamp codec.
func FormatTimestamp(t time.Time) string {
	s, _ := timestampCodec{}.Encode(context.Background(), t)
	return s
}
