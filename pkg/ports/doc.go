/*
Package ports defines the driven ports (interfaces) of the history engine.

These interfaces decouple the transition engine from concrete navigation substrates
and storage backends.

# Key Interfaces

  - Adapter: reads the current location and performs push/replace/go on a substrate.
  - PopNotifier: lets an adapter report navigation the engine did not initiate.
  - Confirmer: turns a veto message into a yes/no answer.
  - SnapshotStore: persists a session's entry list.
  - StateStorage: keyed side-storage for per-entry state.
  - DistributedLocker: serializes access to a session across instances.
*/
package ports
