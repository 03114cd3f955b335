// Package speech defines the speech-service collaborators for voice input
// and output. The conversation core never inspects audio bytes itself; it
// only passes transcripts into the message-append path and hands reply text
// back out for synthesis.
package speech

import "context"

// Transcriber converts an audio buffer into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mediaType string) (string, error)
}

// Synthesizer converts reply text into an audio buffer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
