// Package config loads execution context configuration from YAML or JSONC
// files.
//
// A minimal YAML file:
//
//	args: [app, --verbose]
//	env:
//	  HOME: /home
//	stdin: text:hello
//	stdout: capture
//	mounts:
//	  - guest: /home
//	    seed: ./testdata
//	    readonly: true
//	random:
//	  seed: fixed
//	snapshots: [wasi_snapshot_preview1]
//
// The same document in a .jsonc file may carry // comments and trailing
// commas. There is no discovery: callers name the file.
package config
