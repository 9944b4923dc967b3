package models

import "context"

// StreamClient is the model completion contract consumed by the agent loop.
// Implementations own transport, retries at the HTTP layer and token parsing.
type StreamClient interface {
	// Stream opens a streamed completion. In-band failures are delivered as
	// EventError events; the returned error covers failures to open the stream.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream yields events of a single completion.
type Stream interface {
	// Next returns the next event, or io.EOF when the stream is exhausted.
	Next() (StreamEvent, error)

	// Close releases resources.
	Close() error
}
