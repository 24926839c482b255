// Package config loads the agentops configuration.
//
// Load reads a YAML file, expands ${VAR} references strictly, layers the
// file over Default, applies AGENTOPS_* environment overrides and
// validates the result. Secret references in API keys are resolved
// separately by ResolveSecrets so that a configuration can be validated
// without access to the secrets it names.
//
// The section types convert to the option structs of the resilience,
// parallel and cache packages.
package config
