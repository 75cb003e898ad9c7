// Package secret resolves configuration values that hold secrets.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry), with env and file
//     providers registered by default
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:PIDIGITS_JWT_KEY
//   - File value:  secretref:file:/run/secrets/jwt_key
//   - Inline use:  Bearer secretref:env:PIDIGITS_TOKEN
package secret
