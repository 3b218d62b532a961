// Package panels holds the session's ordered card registry and the renderers
// that turn statistics into scene trees. Each render call returns a fresh tree,
// so mounting a panel never shares load or animation state with an earlier
// mount.
package panels
