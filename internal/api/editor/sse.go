// Package editor contains Datastar SSE handlers for the editor UI.
package editor

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// EmptyInput is a shared empty input struct for handlers with no parameters.
type EmptyInput struct{}

// SSE wraps a Datastar SSE generator with helpers for the patterns the
// editor uses: inner element patches and status signals.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(humaCtx huma.Context) SSE {
	r, w := humago.Unwrap(humaCtx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace the inner content at a selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html, datastar.WithSelector(selector), datastar.WithModeInner())
}

// Error sends an error signal to the client.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// Status sets the status line signal.
func (s SSE) Status(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"status": msg})
}

// Signals sends arbitrary signals to the client.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}
