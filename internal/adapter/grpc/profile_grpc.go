package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/middleware"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

// ProfileGRPCService は gRPC ProfileService の実装。
type ProfileGRPCService struct {
	auth             middleware.Authenticator
	authObserver     middleware.AuthFailureObserver
	getProfileUC     *usecase.GetProfileUseCase
	listProfilesUC   *usecase.ListProfilesUseCase
	createProfileUC  *usecase.CreateProfileUseCase
	editProfileUC    *usecase.EditProfileUseCase
	bestowAwardUC    *usecase.BestowAwardUseCase
	resolveProfileUC *usecase.ResolveProfileUseCase
}

// ProfileGRPCDeps は ProfileGRPCService の依存関係。
type ProfileGRPCDeps struct {
	Auth             middleware.Authenticator
	AuthObserver     middleware.AuthFailureObserver
	GetProfileUC     *usecase.GetProfileUseCase
	ListProfilesUC   *usecase.ListProfilesUseCase
	CreateProfileUC  *usecase.CreateProfileUseCase
	EditProfileUC    *usecase.EditProfileUseCase
	BestowAwardUC    *usecase.BestowAwardUseCase
	ResolveProfileUC *usecase.ResolveProfileUseCase
}

// NewProfileGRPCService は新しい ProfileGRPCService を作成する。
func NewProfileGRPCService(deps ProfileGRPCDeps) *ProfileGRPCService {
	return &ProfileGRPCService{
		auth:             deps.Auth,
		authObserver:     deps.AuthObserver,
		getProfileUC:     deps.GetProfileUC,
		listProfilesUC:   deps.ListProfilesUC,
		createProfileUC:  deps.CreateProfileUC,
		editProfileUC:    deps.EditProfileUC,
		bestowAwardUC:    deps.BestowAwardUC,
		resolveProfileUC: deps.ResolveProfileUC,
	}
}

// GetProfile は ID でプロフィールを取得する。
func (s *ProfileGRPCService) GetProfile(ctx context.Context, req *GetProfileRequest) (*GetProfileResponse, error) {
	profile, err := s.getProfileUC.Execute(ctx, req.Id)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &GetProfileResponse{Profile: toPbProfile(profile)}, nil
}

// GetOwnProfile は authorization メタデータのトークンから呼び出し元のプロフィールを解決する。
func (s *ProfileGRPCService) GetOwnProfile(ctx context.Context, _ *GetOwnProfileRequest) (*GetProfileResponse, error) {
	token, err := s.auth.Execute(ctx, bearerFromMetadata(ctx), model.NewScopeSet(scopeProfile))
	if err != nil {
		var credErr *model.CredentialError
		if s.authObserver != nil && errors.As(err, &credErr) {
			s.authObserver.ObserveAuthFailure(credErr.Kind.String(), string(credErr.Reason))
		}
		return nil, toStatusError(err)
	}

	profile, err := s.resolveProfileUC.Execute(ctx, token)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &GetProfileResponse{Profile: toPbProfile(profile)}, nil
}

// ListProfiles はプロフィール一覧を取得する。
func (s *ProfileGRPCService) ListProfiles(ctx context.Context, req *ListProfilesRequest) (*ListProfilesResponse, error) {
	input := usecase.ListProfilesInput{}
	if req.Pagination != nil {
		input.Page = int(req.Pagination.Page)
		input.PageSize = int(req.Pagination.PageSize)
	}

	output, err := s.listProfilesUC.Execute(ctx, input)
	if err != nil {
		return nil, toStatusError(err)
	}

	profiles := make([]*PbProfile, 0, len(output.Profiles))
	for _, p := range output.Profiles {
		profiles = append(profiles, toPbProfile(p))
	}
	return &ListProfilesResponse{
		Profiles: profiles,
		Pagination: &PaginationResult{
			TotalCount: int32(output.TotalCount),
			Page:       int32(output.Page),
			PageSize:   int32(output.PageSize),
			HasNext:    output.HasNext,
		},
	}, nil
}

// CreateProfile はプロフィールを作成する。
func (s *ProfileGRPCService) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*GetProfileResponse, error) {
	if req.Profile == nil {
		return nil, status.Error(codes.InvalidArgument, "profile is required")
	}
	profile, err := s.createProfileUC.Execute(ctx, toEditProfileInput(req.Profile))
	if err != nil {
		return nil, toStatusError(err)
	}
	return &GetProfileResponse{Profile: toPbProfile(profile)}, nil
}

// EditProfile はプロフィールを更新する。
func (s *ProfileGRPCService) EditProfile(ctx context.Context, req *EditProfileRequest) (*GetProfileResponse, error) {
	if req.Profile == nil {
		return nil, status.Error(codes.InvalidArgument, "profile is required")
	}
	profile, err := s.editProfileUC.Execute(ctx, req.Id, toEditProfileInput(req.Profile))
	if err != nil {
		return nil, toStatusError(err)
	}
	return &GetProfileResponse{Profile: toPbProfile(profile)}, nil
}

// BestowAward はプロフィールに受賞を追加する。
func (s *ProfileGRPCService) BestowAward(ctx context.Context, req *BestowAwardRequest) (*GetProfileResponse, error) {
	profile, err := s.bestowAwardUC.Execute(ctx, req.ProfileId, usecase.EditAwardInput{Title: req.Title})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &GetProfileResponse{Profile: toPbProfile(profile)}, nil
}

const scopeProfile = "profile"

func toEditProfileInput(in *PbProfileInput) usecase.EditProfileInput {
	return usecase.EditProfileInput{
		Username:      in.Username,
		Password:      in.Password,
		Gender:        in.Gender,
		FullName:      in.FullName,
		StreetAddress: in.StreetAddress,
		Email:         in.Email,
	}
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return middleware.BearerToken(values[0])
}

// toStatusError はドメインエラーを gRPC ステータスに変換する。
func toStatusError(err error) error {
	var credErr *model.CredentialError
	switch {
	case errors.As(err, &credErr):
		if credErr.IsScopeFailure() {
			return status.Error(codes.PermissionDenied, credErr.Error())
		}
		return status.Error(codes.Unauthenticated, credErr.Error())
	case errors.Is(err, repository.ErrProfileNotFound):
		return status.Error(codes.NotFound, "profile not found")
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrInvalidProfileID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, repository.ErrDuplicateUsername), errors.Is(err, repository.ErrDuplicateExternalID):
		return status.Error(codes.AlreadyExists, "profile already exists")
	case errors.Is(err, usecase.ErrIdentityUnavailable):
		return status.Error(codes.Unavailable, "identity provider unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
