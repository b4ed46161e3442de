package messaging

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/fystack/trustcore/pkg/logger"
	"github.com/fystack/trustcore/pkg/types"
)

// TranscriptSubject is where completed DKG transcripts are announced.
const TranscriptSubject = "trustcore.dkg.transcripts"

// TranscriptEvent announces the public outcome of a completed DKG epoch.
type TranscriptEvent struct {
	DkgID           types.DkgID            `json:"dkg_id"`
	RegistryVersion types.RegistryVersion  `json:"registry_version"`
	Data            types.ThresholdSigData `json:"data"`
}

// SubscribeTranscripts delivers DKG transcript events to handler until the
// subscription is unsubscribed. Malformed events are logged and dropped; a
// bad event must not stall ingestion of the ones behind it.
func SubscribeTranscripts(nc *nats.Conn, handler func(TranscriptEvent)) (*nats.Subscription, error) {
	return nc.Subscribe(TranscriptSubject, func(msg *nats.Msg) {
		var event TranscriptEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to unmarshal DKG transcript event", err)
			return
		}
		handler(event)
	})
}

// PublishTranscript announces a completed DKG epoch.
func PublishTranscript(nc *nats.Conn, event TranscriptEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return nc.Publish(TranscriptSubject, payload)
}
