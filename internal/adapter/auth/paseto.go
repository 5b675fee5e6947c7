package auth

import (
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/antonkh/crmcore/internal/adapter/config"
	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/antonkh/crmcore/internal/core/port"
)

const tokenDuration = 24 * time.Hour

type PasetoToken struct {
	parser *paseto.Parser
	key    *paseto.V4SymmetricKey
}

func New(conf *config.Auth) (port.TokenService, error) {
	parser := paseto.NewParser()

	var key paseto.V4SymmetricKey
	if conf.TokenKey != "" {
		k, err := paseto.V4SymmetricKeyFromHex(conf.TokenKey)
		if err != nil {
			return nil, err
		}
		key = k
	} else {
		key = paseto.NewV4SymmetricKey()
	}

	s := PasetoToken{
		parser: &parser,
		key:    &key,
	}

	return &s, nil
}

func (p *PasetoToken) CreateToken(actorID uint64) (string, error) {
	token := paseto.NewToken()
	token.SetExpiration(time.Now().Add(tokenDuration))

	payload := port.TokenPayload{ActorID: actorID}
	err := token.Set("payload", payload)
	if err != nil {
		return "", domain.ErrInternal
	}

	return token.V4Encrypt(*p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(*p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.TokenPayload{}
	err = parsedToken.Get("payload", &payload)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}
