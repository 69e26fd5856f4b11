// Package services is the request pipeline and typed client for the
// learning-pathway API.
//
// # Request Pipeline
//
// [Client.Do] wraps every outbound call:
//  1. it reads the session generation and asks the [Session] to renew ahead
//     of expiry (never blocking)
//  2. it sends the call on the shared [http.Client], whose cookie jar carries
//     the session cookie
//  3. on a 401 it waits for the [Session] to be renewed and re-issues the
//     identical call once, marked with the [RetryHeader]
//
// A marked call that is rejected again fails with [shared.ErrRetryExhausted]
// and never triggers another renewal. Callers cannot tell whether a renewal
// happened.
//
// # Renewal
//
// [Refresher] implements session.Renewer by POSTing to /auth/refresh-token on
// the same transport. It does not go through [Client.Do].
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrTransport] : the request never got a response
//   - [shared.ErrRenewalFailed] : the session could not be renewed
//   - [shared.ErrRetryExhausted] : 401 after a renewal
//   - [shared.ErrAPIRequest] : any other non-2xx, as an [*APIError]
//
// # Typed Calls
//
// Auth, pathway, topic and quiz endpoints decode into internal/models types.
package services
