// Package command is the request layer between the outer surfaces (CLI,
// HTTP) and the tracker. Each request type validates its own fields and
// returns an *errors.ValidationError naming the offending field; Service
// fills in configured defaults, checks the owner against the configured
// users and forwards the call.
package command
