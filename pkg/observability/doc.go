/*
Package observability turns engine lifecycle events into Prometheus metrics and audit logs.

Both are plain domain.LifecycleHooks; combine them with LifecycleHooks.Merge and pass the
result to history.WithLifecycleHooks.
*/
package observability
