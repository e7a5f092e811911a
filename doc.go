/*
Package history manages a navigation history: an ordered list of locations with a current
position, plus a transition engine that lets callers veto, confirm or observe each move.

It separates the engine (ordering, confirmation, bookkeeping) from the adapter that owns the
actual entries (an in-memory list, a browser bridge, a persisted session). The engine never
touches entries directly; it asks the adapter to push, replace or move, and it listens for
POP events the adapter raises on its own.

# Concept

Every Push, Replace or Go becomes a candidate transition. Before hooks run in registration
order and may answer:

  - nil: no opinion, ask the next hook.
  - false: reject.
  - a string: ask the Confirmer (for example, "You have unsaved changes. Leave?").
  - anything else: approve.

Hooks may answer later (AsyncHook). If a newer request arrives before the answer, the older
one is superseded and its answer is dropped. A rejected POP is rewound: the adapter is moved
back to where it was, using the key stack the engine keeps in step with the adapter.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/history"
	)

	func main() {
		h, err := history.NewMemory()
		if err != nil {
			log.Fatal(err)
		}

		h.Listen(func(loc history.Location) {
			fmt.Println(loc.Action, loc.Path())
		})

		unblock := h.ListenBefore(history.SyncHook(func(loc history.Location) any {
			if loc.Pathname == "/admin" {
				return false
			}
			return nil
		}))
		defer unblock()

		_ = h.Push("/profile")
		_ = h.Push("/admin") // rejected
		h.GoBack()
	}
*/
package history
