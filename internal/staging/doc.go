// Package staging manages the scratch directories used during optimization.
// Each run stages its intermediate files in a uniquely named session
// directory that is removed when the run finishes, and a stale sweep reclaims
// directories left behind by crashed runs.
package staging
