// Package rules holds the uniform transform contract used by the render
// pipeline and the insertion-ordered registry that stores named rules.
//
// A rule either resolves immediately or hands back a Deferred. The pipeline
// awaits deferred results before moving on, so rules always see the output of
// the rule registered before them.
package rules
