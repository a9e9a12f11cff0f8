// Package publisher tracks keyed records from submission to delivery
// outcome.
//
// Publish hands a record to a Transport (Kafka, MQTT or AMQP) and returns
// immediately. The transport reports the outcome asynchronously; Drain waits
// for all outstanding records, bounded by a timeout, and expires any that
// are stuck. Each record produces exactly one Outcome, which is logged with
// its key, topic and either its partition/offset or its failure class.
//
// Delivery is at-least-once from the broker's point of view (acks=all and
// transport retries), but the publisher itself never resubmits a failed
// record.
//
// # Usage
//
//	pub := publisher.New(transport, "picker_robot_battery_status",
//	    publisher.WithLogger(log.With("component", "publisher")))
//
//	if err := pub.Publish(ctx, publisher.NewKey(), payload); err != nil {
//	    return err
//	}
//	if stuck := pub.Drain(5 * time.Second); len(stuck) > 0 {
//	    log.Warn("records timed out", "keys", stuck)
//	}
package publisher
