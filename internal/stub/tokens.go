package stub

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// apiClaims mirrors the token payload the real backend issues.
type apiClaims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID int64  `json:"company_id,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *Server) mintToken(user *userRecord, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := apiClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   jwtSubject(user.ID),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.cfg.Secret))
}

func (s *Server) parseToken(tokenString string) (*apiClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &apiClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*apiClaims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
