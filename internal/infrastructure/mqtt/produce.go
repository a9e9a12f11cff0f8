package mqtt

import (
	"context"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Produce publishes one keyed record to <topic>/<key> at the configured QoS.
//
// It returns immediately; done is called once from a separate goroutine when
// the broker acknowledges the publish (PUBACK/PUBCOMP), the publish fails, or
// ctx ends. MQTT has no partitions, so the position reported is partition 0
// and the packet identifier as offset (0 for QoS 0).
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte, done func(partition int32, offset int64, err error)) {
	if topic == "" || len(key) == 0 {
		done(-1, -1, ErrInvalidTopic)
		return
	}
	if len(value) > maxPayloadSize {
		done(-1, -1, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(value), maxPayloadSize))
		return
	}
	if !c.IsConnected() {
		done(-1, -1, ErrNotConnected)
		return
	}

	token := c.client.Publish(Topics{}.Record(topic, string(key)), byte(c.cfg.QoS), false, value)

	go func() {
		select {
		case <-token.Done():
		case <-ctx.Done():
			done(-1, -1, fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err()))
			return
		}
		if err := token.Error(); err != nil {
			done(-1, -1, fmt.Errorf("%w: %w", ErrPublishFailed, err))
			return
		}
		done(0, packetID(token), nil)
	}()
}

func packetID(token pahomqtt.Token) int64 {
	if pt, ok := token.(*pahomqtt.PublishToken); ok {
		return int64(pt.MessageID())
	}
	return 0
}
