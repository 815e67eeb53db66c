package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/editorial/pkg/channels/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: []string{}},
		{name: "single", value: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "list with blanks", value: " a:9092, ,b:9092,", want: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kafka.ParseBrokers(tt.value))
		})
	}
}

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, nil, "editorial")
	require.Error(t, err)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
