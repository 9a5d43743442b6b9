// Package apicall runs remote operations behind a connectivity gate and
// classifies every attempt into a typed Result.
//
// # Overview
//
// Call is the only place where raw transport and HTTP outcomes are
// interpreted. Exactly one of the following produces the result:
//
//  1. connectivity is down: Failure of KindNoConnectivity, the operation is
//     never invoked;
//  2. the operation returns a 2xx response: Success carrying the body;
//  3. the operation returns any other status: Failure of KindHTTP with the
//     status code;
//  4. the operation returns an error: Failure of KindTransport wrapping it.
//
// # Cancellation
//
// Cancellation is not an error kind. If the caller's context is cancelled
// while the operation runs, Call returns context.Canceled as its Go error and
// a zero Result, so the caller's workflow observes its own cancellation.
// This is the only case in which Call returns a non-nil error.
//
// # Messages
//
// Every Failure carries a ready-to-display Message looked up from a Messages
// table keyed by Kind (see DefaultMessages).
package apicall
