package models

import "time"

// User is a catalog owner. The Discogs personal access token is stored
// encrypted (AES-GCM); TokenCiphertext and TokenNonce hold the sealed value.
type User struct {
	ID              string
	DiscogsUsername string
	TokenCiphertext []byte
	TokenNonce      []byte
	CreatedAt       time.Time
}

// HasToken reports whether Discogs credentials are stored for the user.
func (u *User) HasToken() bool {
	return len(u.TokenCiphertext) > 0
}
