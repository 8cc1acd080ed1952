// Package markdown implements the rule-based markdown render engine.
//
// An Engine owns an ordered set of named rules that rewrite the markdown
// buffer one after another, a plugin manager through which extensions add or
// override rules, and a lazily built syntax highlighter used by the
// code_block rule.
package markdown
