// Package server runs the short-lived local HTTP listener used for Google sign-in.
//
// # Routing
//
// [NewCallbackRouter] mounts a [Handler] on its routes behind [Middleware]
// such as [RequestLogger], and turns away anything that is not a GET.
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives Google's redirect on /auth/callback. It checks the
// state parameter against the one embedded in the authorization URL, hands the
// code to the API (which sets the session cookie) and sends the result through
// a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// `pathwise auth google` starts a [CallbackServer] on the configured host and
// port, opens the authorization URL in the browser, waits for the result and
// shuts the listener down.
package server
