// Package corpus loads the command corpus from JSON or YAML files and keeps
// the store in sync with a file on disk.
//
// A corpus file is a list of commands, each with its arguments:
//
//	[
//	  {"id": 1, "arguments": [
//	    {"id": 10, "full_command_line": "tar xf a.tar", "context_lines": "line one\\nline two"}
//	  ]}
//	]
//
// Context blobs are kept escaped exactly as the corpus stores them; the store
// unescapes them on read.
//
// Watcher re-runs Sync whenever the file changes, collapsing bursts of
// filesystem events with a Debouncer.
package corpus
