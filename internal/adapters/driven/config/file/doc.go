// Package file provides file-based configuration for the agent.
//
// Adapters:
//   - ConfigStore: TOML-backed key/value configuration with dot-notation keys
//   - LoadSettings: builds domain.Settings from a ConfigStore, an optional
//     .env file and SESSYNC_* environment variables
package file
