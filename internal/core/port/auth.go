package port

type TokenPayload struct {
	ActorID uint64
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock

// TokenService verifies bearer tokens issued by the external auth
// collaborator. Issuance and refresh live outside this service; CreateToken
// exists for local tooling and tests.
type TokenService interface {
	CreateToken(actorID uint64) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}
