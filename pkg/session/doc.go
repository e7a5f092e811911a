/*
Package session manages many live navigation histories keyed by session ID.

It serializes access to each session (locally, and across replicas when a distributed
locker is configured), keeps the live History in memory and persists its snapshot to a
ports.SnapshotStore after every operation.
*/
package session
