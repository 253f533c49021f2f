package auth

import (
	"time"

	"tms/config"

	"github.com/golang-jwt/jwt/v5"
)

// Identity lives with an external collaborator. This package only validates
// the tokens it issues at the route boundary.

const RoleAdmin = "admin"

type Claims struct {
	Subject     string   `json:"sub"`
	Permissions []string `json:"permissions"`
	Exp         int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) {
	permissions := []string{}
	mapClaims := jwtClaims.(jwt.MapClaims)
	if mapClaims["permissions"] != nil {
		for _, perm := range mapClaims["permissions"].([]interface{}) {
			permissions = append(permissions, perm.(string))
		}
	}
	claims.Permissions = permissions
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.Exp = int64(exp)
	}
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

func CreateToken(subject string, permissions []string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":         subject,
			"permissions": permissions,
			"exp":         time.Now().Add(time.Hour * 24 * 21).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}
	return token, nil
}
