package common

// AuthHeaderName is the HTTP header used to carry the session token on
// requests to protected endpoints.
const AuthHeaderName = "Authorization"

// AuthSchemePrefix is the scheme expected in AuthHeaderName values.
const AuthSchemePrefix = "Bearer "
