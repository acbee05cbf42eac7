package events

import "encoding/json"

// Event name constants
const (
	BrightnessChanged    = "brightness_changed"
	TransitionStarted    = "transition_started"
	TransitionCompleted  = "transition_completed"
	TransitionSuperseded = "transition_superseded"
	TransitionFailed     = "transition_failed"
)

// Event is a generic daemon event, fanned out to websocket clients and the
// tray.
type Event struct {
	Name string          // event name
	Data json.RawMessage // raw JSON payload
}

// BrightnessChangedEvent is the typed payload for brightness_changed. It is
// published after every successful driver write, including each step of a
// smooth transition.
type BrightnessChangedEvent struct {
	Percent int   `json:"percent"`
	Ts      int64 `json:"ts"`
}

// TransitionEvent is the typed payload for the transition_* events.
type TransitionEvent struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Steps   int    `json:"steps,omitempty"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.BrightnessChangedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Percent)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
