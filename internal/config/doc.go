// Package config provides configuration types and loading for the
// routing gateway.
//
// This package defines the configuration model, YAML and TOML loading
// with environment variable substitution, and validation. The
// configuration is read exactly once at startup; there is no reload.
//
// # Route Ordering
//
// Routes are matched in declaration order and the first match wins.
// Loaders and tooling that produce route lists must preserve the order
// written by the operator: moving a wildcard route above an exact one
// changes which upstream receives the traffic.
//
// # Configuration Loading
//
// Load configuration from a file; the format is chosen by extension
// (".toml" for TOML, anything else is YAML):
//
//	cfg, err := config.LoadConfig("configs/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
package config
