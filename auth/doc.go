// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth turns bearer tokens into principals.

The service does not manage identities. An external signer issues HS256 JWTs
whose subject is the caller's principal (typically a wallet address), and
every request that acts on a campaign presents one:

	Authorization: Bearer <token>

# Issuing

	token, err := auth.IssueToken("0xabc", secret, 24*time.Hour, time.Now())

A zero ttl issues a token without expiry. The server binary can print one for
local testing with --issue-token.

# Verifying

	principal, err := auth.ParseToken(token, secret)

Only HS256 is accepted, the issuer must be "fundgate" and a 30 second leeway
is allowed on expiry. Expired tokens return ErrExpiredToken; anything else
that fails verification returns ErrInvalidToken.
*/
package auth
