//go:build cgo

package devserver

// CGOEnabled reports whether the sqlite store is built with cgo support.
const CGOEnabled = true
