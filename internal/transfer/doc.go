// Package transfer moves task definitions in and out of a tracker as YAML
// or JSON files.
package transfer
