// Package session coordinates renewal of the server-managed login session.
//
// The credential itself is an HttpOnly cookie held by the HTTP client's jar.
// The client only tracks when the session was last renewed ([State]) so it can
// renew ahead of expiry.
//
// # Single-flight renewal
//
// [Manager] owns the renewal state: a refreshing flag, a FIFO list of waiters
// and a generation counter, all guarded by one mutex. The first caller that
// needs a renewal issues it through the injected [Renewer]; callers arriving
// while it is in flight block until it settles and then share its outcome.
// At most one renewal call is outstanding at any time.
//
// Callers pass the generation they observed before sending their request to
// [Manager.Renew]. If a cycle settled in the meantime they get its result
// instead of starting another one.
//
// # Proactive renewal
//
// [Manager.MaybeRenew] starts a background renewal once the session is older
// than [Options.Threshold]. It never blocks and its errors are only logged.
//
// # Termination
//
// A failed renewal that reactive callers were waiting on clears the [Store]
// and calls [Options.OnTerminated] once with [LoginRedirect], unless
// [Options.Route] reports one of [Options.PublicRoutes].
package session
