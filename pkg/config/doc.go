// Package config loads the ecagent configuration file.
//
// Configuration is read from a YAML file (ecagent.yaml by default) laid on
// top of the built-in defaults, then environment overrides are applied and
// the result is validated. Every field error is collected and returned in a
// single ValidationError.
//
// # Sections
//
//   - rules: rule file location, watch mode and parser limits
//   - engine: default quantity and historical price lookup
//   - citations: resource directory and citation source policy
//   - pay_items: optional pay-item catalog
//   - pricing: bid-tab price history database
//   - evidence: run record storage, recorder, retention and export
//   - server: HTTP listener used by watch mode
//   - telemetry: logging, metrics, tracing and health endpoints
//
// # Environment Overrides
//
// Variables named ECAGENT_SECTION_FIELD take precedence over the file, for
// example ECAGENT_RULES_FILE or ECAGENT_TELEMETRY_LOGGING_LEVEL.
//
// # Usage
//
//	cfg, err := config.Load("ecagent.yaml")
//	if err != nil {
//	    return err
//	}
package config
