// Package config assembles the settings of the sync client and of the
// reference server.
//
// Three layers are read in order and merged field by field, the later one
// winning whenever it sets a non-zero value: environment variables, then
// command-line flags, then the JSON file named by CONFIG, -c or -config.
// Errors from every layer are collected and reported together, each
// prefixed with the layer it came from.
//
// Collection lists are trimmed and de-duplicated after merging. The default
// request policy must name a known policy; see [GetClientConfig] and
// [GetServerConfig] for the per-role views and their checks.
package config
