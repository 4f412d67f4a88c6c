package jwt

import (
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claim keys carried by access tokens.
const (
	ClaimUserID     = "user_id"
	ClaimBusinessID = "business_id"
	ClaimRole       = "role"
	ClaimType       = "type"

	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(userID string, businessID string, role user.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, businessID string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		ClaimUserID:     userID,
		ClaimBusinessID: businessID,
		ClaimRole:       string(role),
		ClaimType:       TokenTypeAccess,
		"exp":           expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// PrincipalFromClaims extracts the caller identity from decoded token claims.
func PrincipalFromClaims(claims map[string]interface{}) (user.Principal, error) {
	if t, _ := claims[ClaimType].(string); t != TokenTypeAccess {
		return user.Principal{}, user.ErrInvalidToken
	}

	userID, _ := claims[ClaimUserID].(string)
	if userID == "" {
		return user.Principal{}, user.ErrUserIDRequired
	}
	businessID, _ := claims[ClaimBusinessID].(string)
	if businessID == "" {
		return user.Principal{}, user.ErrBusinessIDRequired
	}
	roleStr, _ := claims[ClaimRole].(string)
	role := user.Role(roleStr)
	if !role.IsValid() {
		return user.Principal{}, user.ErrInvalidRole
	}

	return user.Principal{UserID: userID, BusinessID: businessID, Role: role}, nil
}
