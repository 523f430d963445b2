package helpers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const creatorTokenLifetime = 365 * 24 * time.Hour

// IssueCreatorToken signs a management token bound to a ticket's internal
// identifier. It is the only credential for creator-side operations; there
// are no user accounts.
func IssueCreatorToken(secret string, ticketID uuid.UUID) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"ticket_id": ticketID.String(),
		"exp":       time.Now().Add(creatorTokenLifetime).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseCreatorToken validates a management token and returns the internal
// ticket identifier it is bound to.
func ParseCreatorToken(secret, tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid creator token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid creator token claims")
	}
	raw, ok := claims["ticket_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("creator token missing ticket_id claim")
	}

	ticketID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creator token carries a malformed ticket_id")
	}
	return ticketID, nil
}
