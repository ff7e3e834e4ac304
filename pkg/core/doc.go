// Package core defines the shared language of the LeapGate system.
//
// This package contains:
//   - Domain entities (Dataset, Finding, Verdict, Report)
//   - The session state enum and its transition vocabulary
//   - Typed errors returned by session operations
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
