package security

import (
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the claim set embedded in every SiteCrew session token.
type Identity struct {
	ID         int32  `json:"nameid"`
	CompanyID  int32  `json:"companyId"`
	Role       string `json:"role"`
	UniqueName string `json:"unique_name"`
	Email      string `json:"email"`
	DeviceID   string `json:"sid"`
}

type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

// CreateIdentityToken mints an HS256 session token. The secret is shared
// with the web middleware as a base64 string.
func CreateIdentityToken(identity *Identity, base64Secret string, expiresInSeconds int64) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return "", err
	}
	claims := IdentityClaims{
		Identity: *identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sitecrew",
			Audience:  []string{"*.sitecrew.com.au"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiresInSeconds) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretBytes)
}
