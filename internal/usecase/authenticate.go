package usecase

import (
	"context"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/service"
)

// AuthenticateUseCase はベアラートークンの検証とスコープ判定を行うユースケース。
type AuthenticateUseCase struct {
	decoder    TokenDecoder
	authorizer *service.ScopeAuthorizer
}

// NewAuthenticateUseCase は新しい AuthenticateUseCase を作成する。
func NewAuthenticateUseCase(decoder TokenDecoder, authorizer *service.ScopeAuthorizer) *AuthenticateUseCase {
	return &AuthenticateUseCase{
		decoder:    decoder,
		authorizer: authorizer,
	}
}

// Execute はトークンを検証し、required のスコープがすべて付与されていることを確認する。
// 失敗は最初に失敗した段階で打ち切られ、*model.CredentialError として返る。
func (uc *AuthenticateUseCase) Execute(ctx context.Context, rawToken string, required model.ScopeSet) (*model.AccessToken, error) {
	if rawToken == "" {
		return nil, model.NewMalformedCredentials(model.ReasonMissingToken, "missing bearer token", nil)
	}

	token, err := uc.decoder.Decode(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if err := uc.authorizer.Authorize(token, required); err != nil {
		return nil, err
	}

	return token, nil
}
