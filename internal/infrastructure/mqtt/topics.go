package mqtt

import "fmt"

// TopicPrefixSystem is the base for the generator's own status topics.
const TopicPrefixSystem = "batterygen/system"

// Topics provides builders for batterygen MQTT topics.
//
// MQTT has no record key, so the key travels as the last topic level:
//
//	topics := mqtt.Topics{}
//	topics.Record("picker_robot_battery_status", "6f1c…")
//	// Returns: "picker_robot_battery_status/6f1c…"
//
// Consumers subscribe to AllRecords(topic) and read the key from the topic.
type Topics struct{}

// Record returns the topic a keyed record is published to.
func (Topics) Record(base, key string) string {
	return fmt.Sprintf("%s/%s", base, key)
}

// AllRecords returns the wildcard matching every record of base.
func (Topics) AllRecords(base string) string {
	return base + "/+"
}

// SystemStatus returns the topic for generator online/offline status.
//
// Example: batterygen/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
