// Package settle gates capture on a panel's visual readiness.
//
// A panel is settled when every image node has loaded or errored (errored
// images paint their fallback tile), every referenced font face is resolved
// and a short quiet period has passed. Settle is bounded by a timeout and
// never fails; capture proceeds best effort when the bound is hit.
//
// Freeze suspends entry animations at their end state for the duration of a
// capture. WithSettled scopes freeze, settle and capture together so frozen
// timings cannot leak past an export attempt.
package settle
