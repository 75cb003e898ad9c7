// Package config loads pidigits server configuration from YAML.
//
// Load reads the file, expands ${VAR} references strictly, decodes it over
// Default with unknown keys rejected, resolves secretref: values such as
// auth.signing_key, and validates the result.
//
//	server:
//	  addr: ":8080"
//	digits:
//	  max_digits: 500000
//	  max_batch: 5000
//	cache:
//	  derive_prefixes: true
//	  warm_digits: 10000
//	admission:
//	  max_inflight_digits: 1000000
//	  rate: 50
//	  burst: 100
//	auth:
//	  enabled: true
//	  signing_key: secretref:env:PIDIGITS_JWT_KEY
package config
