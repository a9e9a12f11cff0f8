// Package schemaregistry resolves Avro schemas from a Confluent-compatible
// schema registry using the franz-go sr client.
//
// The generator treats the registry as read-only: it never registers a
// schema and always encodes against the latest registered version of the
// value subject (auto.register.schemas=false, use.latest.version=true).
//
// # Usage
//
//	client, err := schemaregistry.Connect(cfg.SchemaRegistry)
//	if err != nil {
//	    return err
//	}
//	schema, err := client.Latest(ctx, "picker_robot_battery_status-value")
package schemaregistry
