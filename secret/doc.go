// Package secret resolves credentials referenced from configuration.
//
// Configuration values are first expanded strictly against the environment
// (see ExpandEnvStrict) and then any secret reference is replaced by the
// value its provider returns. References have the form
//
//	secretref:<provider>:<ref>
//
// for example secretref:env:OPENAI_API_KEY or
// secretref:file:/run/secrets/anthropic_key. A reference may make up the
// whole value or appear inline, as in "Bearer secretref:env:TOKEN".
//
// Failures are faults errors with category configuration_error. Error
// messages name the provider and reference, never the resolved value.
package secret
