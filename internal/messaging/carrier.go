package messaging

import "github.com/segmentio/kafka-go"

// headerCarrier adapts kafka message headers to propagation.TextMapCarrier.
type headerCarrier struct {
	msg *kafka.Message
}

func newHeaderCarrier(msg *kafka.Message) headerCarrier {
	return headerCarrier{msg: msg}
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
