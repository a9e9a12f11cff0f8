package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/batterygen/internal/device"
	"github.com/nerrad567/batterygen/internal/publisher"
)

// Measurement names.
const (
	measurementCharge   = "battery_charge"
	measurementDelivery = "delivery"
)

// WriteReading records a simulated reading at its logical event time.
func (c *Client) WriteReading(r device.Reading) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(r))
}

// WriteDelivery records the outcome of one published record.
func (c *Client) WriteDelivery(o publisher.Outcome) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(deliveryPoint(o, time.Now()))
}

func readingPoint(r device.Reading) *write.Point {
	charge, _ := r.Charge.Float64()
	return write.NewPoint(
		measurementCharge,
		map[string]string{
			"device_id": strconv.FormatInt(r.DeviceID, 10),
			"class":     strconv.FormatInt(int64(r.Class), 10),
		},
		map[string]any{
			"charge": charge,
		},
		time.UnixMilli(r.EventTime),
	)
}

func deliveryPoint(o publisher.Outcome, now time.Time) *write.Point {
	tags := map[string]string{
		"topic":  o.Topic,
		"status": "delivered",
	}
	fields := map[string]any{
		"latency_ms": o.Latency.Milliseconds(),
	}
	if o.Delivered() {
		fields["partition"] = int64(o.Partition)
		fields["offset"] = o.Offset
	} else {
		tags["status"] = "failed"
		tags["class"] = string(o.Class)
	}
	return write.NewPoint(measurementDelivery, tags, fields, now)
}
