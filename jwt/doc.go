// Package jwt issues and verifies signed bearer tokens that carry a session
// id in a "sid" claim.
//
// A token is a transport for the session id only. Holding a valid token does
// not make a request authenticated: the id still goes through the session
// store and the authentication gate, so revoking the session revokes every
// token that names it.
//
// Ed25519 and HS256 are supported. Key rotation uses VerifyKeys keyed by the
// kid header.
package jwt
