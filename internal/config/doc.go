// Package config loads, normalizes, and validates audiosrt configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUDIOSRT_MODEL_DIR and HF_TOKEN. The Config type centralizes every knob the
// CLI and queue workers need so conversion defaults, recognizer selection and
// directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
