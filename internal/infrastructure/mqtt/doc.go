// Package mqtt provides an MQTT record transport for batterygen.
//
// This package manages:
//   - Connection to an MQTT broker with auto-reconnect
//   - Asynchronous keyed publishing with QoS acknowledgement
//   - Last Will and Testament (LWT) for offline detection
//
// MQTT has no record key, so each record is published to <topic>/<key>.
// Subscribers use Topics{}.AllRecords(topic) and take the key from the
// last topic level.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	pub := publisher.New(client, cfg.Generator.Topic)
package mqtt
