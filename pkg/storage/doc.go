// Package storage saves and loads collection results.
//
// Results are written as {"users": [...], "count": n} with two-space
// indentation and without HTML escaping. Writes go to a temporary file that
// is renamed into place.
package storage
