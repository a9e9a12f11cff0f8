// Package config handles loading and validating batterygen configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading cluster and schema registry credentials from a properties file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Credentials should live in the properties file or environment, never in config.yaml
//   - The properties file should have restricted permissions (0600)
//
// Credentials file format (one "key = value" per line):
//
//	cluster_bootstrap = pkc-xxxx.confluent.cloud:9092
//	cluster_api_key = KEY
//	cluster_api_secret = SECRET
//	schemaregistry_url = https://psrc-xxxx.confluent.cloud
//	schemaregistry_api_key = KEY
//	schemaregistry_api_secret = SECRET
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Generator.Topic)
package config
