// Package util provides small parsing and sanitization helpers shared
// across the service: size-string parsing, secret masking, and string
// cleanup for untrusted input.
package util
