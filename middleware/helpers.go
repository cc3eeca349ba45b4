package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Имена JWT claims
const (
	jwtClaimSubject = "sub"
	jwtClaimRole    = "role"
)

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	return actor, ok
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	sub, ok := claims[jwtClaimSubject].(string)
	if !ok {
		return models.Actor{}, fmt.Errorf("missing '%s' claim in token", jwtClaimSubject)
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return models.Actor{}, fmt.Errorf("invalid user ID value in '%s' claim: %q", jwtClaimSubject, sub)
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return models.Actor{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	role := models.UserRole(roleStr)
	if !role.Valid() {
		return models.Actor{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	return models.Actor{UserID: userID, Role: role}, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
