package event

import json "github.com/goccy/go-json"

// SerializedSize returns the wire size in bytes of events as they would be
// submitted. The estimate is consistent and monotonic: adding an event never
// decreases it.
func SerializedSize(events []Event) int {
	if len(events) == 0 {
		return 0
	}
	data, err := json.Marshal(events)
	if err != nil {
		// Events hold only strings and finite floats; marshalling them
		// cannot fail once they passed validation.
		return 0
	}
	return len(data)
}
