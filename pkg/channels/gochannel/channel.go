// Package gochannel provides the in-process pub/sub used by single-node deployments and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Options tunes the in-process channel.
type Options struct {
	// Buffer is the per-subscriber output buffer. Zero uses 1000.
	Buffer int64

	// BlockUntilAck makes Publish wait for subscribers, which keeps tests deterministic.
	BlockUntilAck bool
}

// CreateChannel returns one GoChannel serving as both publisher and subscriber.
func CreateChannel(logger watermill.LoggerAdapter, opts Options) *gochannel.GoChannel {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 1000
	}

	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            buffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: opts.BlockUntilAck,
		},
		logger,
	)
}
