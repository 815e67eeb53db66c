package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/editorial/pkg/channels/gochannel"
	"github.com/dukex/editorial/pkg/channels/kafka"
	"github.com/dukex/editorial/pkg/eventbus"
)

const serviceName = "editorial"

// NewEventBus creates the domain event bus. Kafka brokers are read from
// KAFKA_BROKERS.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "", "none":
		return eventbus.NoopEventBus{}, nil
	case "gochannel":
		channel := gochannel.CreateChannel(watermill.NewSlogLogger(logger), gochannel.Options{})

		return eventbus.NewWatermillEventBus(channel, channel), nil
	case "kafka":
		brokers := kafka.ParseBrokers(os.Getenv("KAFKA_BROKERS"))

		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}
