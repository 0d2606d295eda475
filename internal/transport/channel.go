package transport

import (
	"context"

	"github.com/dmitrijs2005/modelfetch/internal/model"
)

// MessageHandler consumes one raw inbound message from the event channel.
type MessageHandler func(data []byte)

// Channel is the host application's long-lived bidirectional event channel.
// The channel is owned by the host: the adapter may read and replace its
// handler but never opens, closes, or reconnects it.
type Channel interface {
	// Handler returns the currently installed message handler, or nil.
	Handler() MessageHandler

	// SetHandler installs a new message handler.
	SetHandler(h MessageHandler)
}

// ChannelSource yields the host's channel once it exists. Implementations
// return nil while the host has not exposed one yet.
type ChannelSource interface {
	Channel() Channel
}

// UpdateSink receives normalized progress updates from an adapter. Both
// adapters funnel into the same sink so reconciliation happens in exactly
// one place.
type UpdateSink func(ctx context.Context, u model.ProgressUpdate)
