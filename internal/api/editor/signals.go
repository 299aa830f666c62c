package editor

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// Signals is the flat JSON object of Datastar signals posted by the editor
// page. Signal names are camelCase; data-bind keys are written in kebab-case.
//
// Handlers take a *SignalsInput and read the values before streaming:
//
//	func (h *Handler) Click(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
//	    signals, err := input.MustParse()
//	    if err != nil {
//	        return nil, err
//	    }
//	    lat, ok := signals.Number("clickLat")
//	    // ...
//	}
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal value, or empty string if not found.
func (s Signals) String(key string) string {
	if str, ok := s[key].(string); ok {
		return str
	}
	return ""
}

// Int returns a whole-number signal such as mapGeneration, or 0 if not found.
func (s Signals) Int(key string) int {
	if n, ok := s[key].(float64); ok {
		return int(n)
	}
	return 0
}

// Number returns a numeric signal and whether it was set. A null signal
// counts as unset.
func (s Signals) Number(key string) (float64, bool) {
	f, ok := s[key].(float64)
	return f, ok
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Has reports whether the page sent the signal at all, even as null.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SignalsInput captures the request body before streaming starts.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses signals or returns a Huma 400 error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
