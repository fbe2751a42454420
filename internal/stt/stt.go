// Package stt declares the speech-to-text collaborator contract. STT is
// external to this system (spec §1 Non-goals): this package only
// specifies the interface the /transcribe handler depends on.
package stt

import "context"

// Engine transcribes an audio blob to text.
type Engine interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (transcript string, err error)
}
