package refresh

import (
	"time"
)

// StoredRefreshToken is the server side record behind a refresh cookie. The
// browser only ever sees Token.
type StoredRefreshToken struct {
	Token      string    // Opaque random string sent as an HTTP-only cookie
	UserID     int64     // Owner of the token
	DeviceInfo string    // Free-form description supplied at login
	Iat        time.Time // Issued at
}

// Repo stores refresh token records keyed by the token string. A user holds
// at most one live refresh token.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID int64) (*StoredRefreshToken, error)
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
