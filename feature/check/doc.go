// Package check verifies the filed romfiles of one or more systems.
//
// For each system the service plans a check, logs a short report, asks for
// confirmation and only then moves invalid files into the system's Trash
// directory. Missing files are reported but never moved. The combined plans
// can be exported as YAML for review.
package check
