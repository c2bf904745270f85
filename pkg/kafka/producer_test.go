package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	_, err = encodeValue(func() {})
	assert.Error(t, err)
}

func TestMessageHeaders(t *testing.T) {
	assert.Nil(t, Message{}.headers())
	h := Message{Headers: map[string]string{"run_id": "abc"}}.headers()
	require.Len(t, h, 1)
	assert.Equal(t, "run_id", h[0].Key)
	assert.Equal(t, "abc", string(h[0].Value))
}

func TestProducerConfigValidate(t *testing.T) {
	base := func() ProducerConfig {
		return ProducerConfig{Brokers: []string{"localhost:9092"}, RequiredAcks: -1, MaxAttempts: 3}
	}

	cfg := base()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "gzip", cfg.Compression)

	cases := map[string]func(*ProducerConfig){
		"acks":        func(c *ProducerConfig) { c.RequiredAcks = 2 },
		"compression": func(c *ProducerConfig) { c.Compression = "brotli" },
		"broker":      func(c *ProducerConfig) { c.Brokers = []string{""} },
		"attempts":    func(c *ProducerConfig) { c.MaxAttempts = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestNewProducerRejectsUnknownCompression(t *testing.T) {
	_, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("brotli"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brotli")

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	require.NoError(t, p.Close())
}
