// Package session keeps the backend-issued JWT and answers whether the user is
// logged in.
//
// The token is decoded without verifying its signature: the backend verifies
// it on every request, the client only needs the expiry and the role. An
// expired token is indistinguishable from a missing one, there is no refresh.
package session
