// Package transport provides JSON-RPC 2.0 message types and an HTTP client
// for posting single requests to an agent's root endpoint.
//
// The client is deliberately thin: it reports network failures and
// undecodable bodies as distinct error codes and otherwise hands the decoded
// envelope back unjudged. Deciding what a JSON-RPC error means (try the next
// method candidate, surface it verbatim) is the caller's business; see the
// a2a package.
package transport
