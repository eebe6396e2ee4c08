package helpers

import (
	"errors"
	"os"
	"time"

	"food-ordering-backend/models"

	"github.com/dgrijalva/jwt-go"
)

// SignedDetails are the claims carried by every bearer token.
type SignedDetails struct {
	UserID       string `json:"userId"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurantId,omitempty"`
	jwt.StandardClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")
var ErrChannelForbidden = errors.New("restaurant role required")

func secretKey() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken issues a signed token for a user. Restaurant owners carry
// their restaurant id so the dashboard can authenticate the live channel.
func GenerateToken(userID, role, restaurantID string) (string, error) {
	claims := SignedDetails{
		UserID:       userID,
		Role:         role,
		RestaurantID: restaurantID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(7 * 24 * time.Hour).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
}

// ValidateToken parses and verifies a bearer token.
func ValidateToken(signedToken string) (*SignedDetails, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secretKey(), nil
		},
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt < time.Now().Unix() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateChannelToken verifies a dashboard channel token. The claims must
// be valid, carry the restaurant role and identify the same user as the
// userId attach parameter.
func ValidateChannelToken(signedToken, userID string) (*SignedDetails, error) {
	claims, err := ValidateToken(signedToken)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleRestaurant {
		return nil, ErrChannelForbidden
	}
	if claims.UserID != userID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
