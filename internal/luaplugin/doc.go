// Package luaplugin builds render engine plugins from Lua scripts.
//
// A script runs once when it is loaded and declares its rules through the
// global markdown table:
//
//	markdown.add_rule("shout", function(text)
//	  return string.upper(text)
//	end)
//	markdown.remove_rule("italic")
//
// Rules run inside a sandboxed gopher-lua state without the io, os, debug
// and package libraries. A state is not goroutine-safe, so every rule call
// is serialised on the script's mutex.
package luaplugin
