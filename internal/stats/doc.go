// Package stats defines the statistics payload the card engine renders and a
// small client that fetches it from the analytics backend.
package stats
