// Package resolver holds the booking rules: slot legality, conflict
// detection, price resolution and the platform fee split. Every function
// is pure; callers load the inputs and persist the outcome.
package resolver
