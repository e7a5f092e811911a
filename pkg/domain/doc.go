/*
Package domain contains the core models of the history engine.

It defines what a navigation entry is and how two entries compare. The package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Location: one addressable point in history (path, search, hash, state, key, action).
  - Action: how a Location was reached (PUSH, REPLACE, POP).
  - Snapshot: the serializable entry list of an adapter, used by persistence.
  - TransitionEvent / LifecycleHooks: observability callbacks for the engine.

# Equality

LocationsAreEqual ignores Action on purpose. StatesAreEqual is strict about types that
cannot round-trip through serialization and panics on functions and time.Time values.
*/
package domain
