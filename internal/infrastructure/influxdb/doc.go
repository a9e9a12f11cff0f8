// Package influxdb mirrors generator activity into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - battery_charge: one point per reading, tagged device_id and class,
//     timestamped with the reading's logical event time
//   - delivery: one point per publish outcome, tagged topic, status and
//     failure class, with latency and broker position
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // mirror switched off
//	}
//	defer client.Close()
//
//	client.WriteReading(reading)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Asynchronous write errors are delivered to SetOnError.
package influxdb
