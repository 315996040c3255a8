package ir

// Direction is the data-flow direction of a pad.
type Direction string

const (
	DirectionSrc  Direction = "src"
	DirectionSink Direction = "sink"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionSrc || d == DirectionSink
}

// Opposite returns the direction a peer pad must have to link with d.
func (d Direction) Opposite() Direction {
	if d == DirectionSrc {
		return DirectionSink
	}
	return DirectionSrc
}

// Presence says when a pad built from a template exists.
type Presence string

const (
	PresenceAlways    Presence = "always"
	PresenceSometimes Presence = "sometimes"
	PresenceRequest   Presence = "request"
)

// ValidPresences lists the allowed presence values.
var ValidPresences = map[Presence]bool{
	PresenceAlways:    true,
	PresenceSometimes: true,
	PresenceRequest:   true,
}

// ElementSpec is a compiled element template: the pads an element exposes
// and the formats each pad accepts.
type ElementSpec struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Rank        int64         `json:"rank"`
	Pads        []PadTemplate `json:"pads"`
}

// PadTemplate describes one pad of an element. Caps holds the canonical
// text form of the accepted formats.
type PadTemplate struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Presence  Presence  `json:"presence"`
	Caps      string    `json:"caps"`
}

// Pad returns the pad template with the given name.
func (e *ElementSpec) Pad(name string) (PadTemplate, bool) {
	for _, p := range e.Pads {
		if p.Name == name {
			return p, true
		}
	}
	return PadTemplate{}, false
}

// PadsByDirection returns the pad templates with direction d, in
// declaration order.
func (e *ElementSpec) PadsByDirection(d Direction) []PadTemplate {
	var out []PadTemplate
	for _, p := range e.Pads {
		if p.Direction == d {
			out = append(out, p)
		}
	}
	return out
}

// Negotiation outcomes.
const (
	OutcomeNegotiated = "negotiated"
	OutcomeNoCommon   = "no_common_format"
	OutcomeNotFixable = "not_fixable"
)

// NegotiationRecord is the stored history entry of one negotiation. Seq is
// assigned by the registry and orders the history.
type NegotiationRecord struct {
	Seq        int64  `json:"seq"`
	SessionID  string `json:"session_id"`
	Key        string `json:"key"`
	Mode       string `json:"mode"`
	Upstream   string `json:"upstream"`
	Downstream string `json:"downstream"`
	Filter     string `json:"filter,omitempty"`
	Common     string `json:"common"`
	Fixed      string `json:"fixed"`
	Outcome    string `json:"outcome"`
	Cached     bool   `json:"cached"`
}

func (e *ElementSpec) canonicalObject() map[string]any {
	pads := make([]any, len(e.Pads))
	for i, p := range e.Pads {
		pads[i] = map[string]any{
			"name":      p.Name,
			"direction": string(p.Direction),
			"presence":  string(p.Presence),
			"caps":      p.Caps,
		}
	}
	return map[string]any{
		"name":        e.Name,
		"description": e.Description,
		"rank":        e.Rank,
		"pads":        pads,
	}
}
