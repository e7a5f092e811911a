// Package script replays YAML navigation scripts against an in-memory history.
//
// A script seeds the entry list, then applies a sequence of commands and
// optionally checks the location after each one:
//
//	name: checkout
//	entries: [/, /cart]
//	current: 1
//	steps:
//	  - op: push
//	    path: /checkout
//	    expect: /checkout
//	  - op: back
//	    expect: /cart
package script
