// Package fonts resolves scene font references to gg text faces, embedding the
// Go font family and loading additional families from a configured directory.
package fonts
