// Package view builds read-only listings of tasks for the CLI and HTTP
// surfaces: derived timer and due-date values, filtering and counts.
package view
