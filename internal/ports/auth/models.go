package auth

// Claims representa la información extraída del token de acceso.
// Role y TeamID viajan en el token pero el middleware re-resuelve el actor
// contra el store de usuarios: el rol vigente manda sobre el emitido.
type Claims struct {
	UserID string
	Email  string
	Role   string
	TeamID string
}
