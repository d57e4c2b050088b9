package http

import (
	"github.com/hostly-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/hostly-api/internal/infrastructure/jwt"
	redisinfra "github.com/hostly-api/internal/infrastructure/redis"
	s3infra "github.com/hostly-api/internal/infrastructure/s3"
	"github.com/hostly-api/internal/infrastructure/smtp"
	"github.com/hostly-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	AvatarStore *s3infra.Store
	CodeStore   *redisinfra.CodeStore
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}
