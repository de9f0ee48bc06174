package middleware

import (
	"context"
	"net/http"
	"strings"

	"crm-backend/internal/domain/visibility"
	"crm-backend/internal/ports/auth"
)

type ctxKey string

const actorKey ctxKey = "actor"

// ActorResolver resuelve el actor vigente (rol y equipo actuales) a partir
// del subject del token. Lo implementa identity.Service.
type ActorResolver interface {
	Resolve(ctx context.Context, userID string) (visibility.Actor, error)
}

// ActorContext:
//   - verifier != nil: con Bearer token válido, resuelve el actor por store
//     y lo deja en el contexto.
//   - verifier == nil (modo dev/tests): header X-Debug-User-ID en lugar del
//     token; el actor igual sale del store.
//
// Si no hay actor el request sigue; cada handler decide si exige auth.
func ActorContext(verifier auth.AuthVerifier, resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""

			if verifier == nil {
				userID = strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
			} else {
				token := bearerToken(r.Header.Get("Authorization"))
				if token != "" {
					if claims, err := verifier.Verify(r.Context(), token); err == nil {
						userID = claims.UserID
					}
				}
			}

			if userID == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				// token válido pero usuario borrado: sigue sin actor
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(ctx context.Context) (visibility.Actor, bool) {
	v := ctx.Value(actorKey)
	if v == nil {
		return visibility.Actor{}, false
	}
	a, ok := v.(visibility.Actor)
	return a, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
