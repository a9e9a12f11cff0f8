// Package kafka provides the Kafka producer used to publish battery status
// records, built on franz-go.
//
// The producer is tuned for durability: acks=all with idempotent writes,
// a very large retry budget and a per-record delivery timeout so that a
// stuck record still fails in bounded time. Connections use SASL/PLAIN over
// TLS when credentials are configured.
//
// # Usage
//
//	client, err := kafka.Connect(ctx, cfg.Kafka)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Produce(ctx, "picker_robot_battery_status", key, value,
//	    func(partition int32, offset int64, err error) { ... })
package kafka
