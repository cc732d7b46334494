// Package config loads and validates the jobhook configuration file.
//
// A configuration starts from NewDefault, is decoded from YAML on top of
// those defaults, then receives JOBHOOK_* environment overrides and is
// validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("jobhook.yaml")
//
// An empty path skips the file. Decoding over the defaults means an explicit
// zero in the file, such as page_limit: 0 or allow_hold_at_target: false, is
// kept rather than replaced.
//
// Environment variables are named JOBHOOK_<SECTION>_<FIELD>:
//
//	JOBHOOK_POLICY_PAGE_LIMIT            policy.page_limit
//	JOBHOOK_POLICY_HIGH_VOLUME_PRINTER   policy.high_volume_printer
//	JOBHOOK_TELEMETRY_LOGGING_LEVEL      telemetry.logging.level
//
// Validate collects every problem into a single *ValidationError so the
// validate command can list them together.
package config
