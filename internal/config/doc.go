// Package config turns flags, environment variables and an optional .env
// file into the settings of one ocrprep run.
//
// Root directories come from exactly one source, checked in this order:
//   - directories named on the command line (--dir or positional arguments)
//   - a CSV manifest (--manifest, or DIRS_CSV)
//   - WORKING_DIR
//
// Directories named directly, and WORKING_DIR, must exist. Manifest entries
// that do not exist are logged and dropped; a manifest without a single
// usable entry is an error.
package config
