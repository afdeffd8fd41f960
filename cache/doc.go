// Package cache keeps recently resolved directory members around so repeated
// sign-in steps for the same username do not all hit the Espace Membre API.
//
// Lookup decorates any client.MemberLookup. Concurrent lookups for one
// username share a single request; successful results are written to a
// Store. Failures, not found included, are never cached.
package cache
