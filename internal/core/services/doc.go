// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Beyond domain and the ports they
// only import small pure-Go libraries: validator for verdict and
// settings checks, and uuid for run identifiers.
package services
