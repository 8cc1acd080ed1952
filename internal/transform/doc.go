// Package transform turns markdown source files into build artifacts: an
// HTML fragment, a JavaScript module exporting it, and metadata gathered from
// frontmatter and the rendered heading outline.
//
// The filters mirror a bundler plugin: a file is transformed only when its id
// matches an include pattern, matches no exclude pattern and carries one of
// the configured extensions.
package transform
