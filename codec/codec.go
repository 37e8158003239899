package codec

import "context"

// Codec performs bidirectional transformation between the wire
// representation A and the domain representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error) // A (wire) -> B (domain).
	Encode(ctx context.Context, b B) (A, error) // B (domain) -> A (wire).
}
