package events

import (
	"encoding/json"
	"net/http"

	ginsse "github.com/gin-contrib/sse"
)

// WriteSSE drains an EventStream to w using gin-contrib/sse's Event
// framing, which already produces the `data: <json>\n\n` wire format
// the HTTP streaming surface requires. flusher is the ResponseWriter's http.Flusher so
// each event reaches the client as it is produced rather than batched.
func WriteSSE(w http.ResponseWriter, flusher http.Flusher, stream *EventStream) error {
	for {
		evt, ok := stream.Next()
		if !ok {
			return nil
		}
		payload, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		if err := ginsse.Encode(w, ginsse.Event{Data: json.RawMessage(payload)}); err != nil {
			return err
		}
		flusher.Flush()
		if evt.Step == StepEnd {
			return nil
		}
	}
}
