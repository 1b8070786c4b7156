package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/middleware"
	"github.com/k1s0-platform/system-server-go-profile/internal/adapter/presenter"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

// プロフィール API のエラーコード。
const (
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeValidationFailed    = "PROFILE_VALIDATION_FAILED"
	CodeConflict            = "PROFILE_CONFLICT"
	CodeIdentityUnavailable = "PROFILE_AUTH_IDENTITY_UNAVAILABLE"
	CodeInternalError       = "PROFILE_INTERNAL_ERROR"
)

// ScopeProfile は自身のプロフィール取得に必要なスコープ。
const ScopeProfile = "profile"

// ProfileHandler はプロフィール関連の REST ハンドラー。
type ProfileHandler struct {
	getProfileUC     *usecase.GetProfileUseCase
	listProfilesUC   *usecase.ListProfilesUseCase
	createProfileUC  *usecase.CreateProfileUseCase
	editProfileUC    *usecase.EditProfileUseCase
	bestowAwardUC    *usecase.BestowAwardUseCase
	resolveProfileUC *usecase.ResolveProfileUseCase
}

// NewProfileHandler は新しい ProfileHandler を作成する。
func NewProfileHandler(
	getProfileUC *usecase.GetProfileUseCase,
	listProfilesUC *usecase.ListProfilesUseCase,
	createProfileUC *usecase.CreateProfileUseCase,
	editProfileUC *usecase.EditProfileUseCase,
	bestowAwardUC *usecase.BestowAwardUseCase,
	resolveProfileUC *usecase.ResolveProfileUseCase,
) *ProfileHandler {
	return &ProfileHandler{
		getProfileUC:     getProfileUC,
		listProfilesUC:   listProfilesUC,
		createProfileUC:  createProfileUC,
		editProfileUC:    editProfileUC,
		bestowAwardUC:    bestowAwardUC,
		resolveProfileUC: resolveProfileUC,
	}
}

// Index は GET /api/v1/ のハンドラー。
func (h *ProfileHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Kia ora te ao!"})
}

// GetOwnProfile は GET /api/v1/profile のハンドラー。
// RequireAuth を通過したトークンの subject に対応するプロフィールを返す。
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	token, ok := middleware.AccessTokenFrom(c)
	if !ok {
		WriteError(c, http.StatusUnauthorized, middleware.CodeUnauthenticated, "認証されていません")
		return
	}

	profile, err := h.resolveProfileUC.Execute(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, usecase.ErrIdentityUnavailable) {
			WriteError(c, http.StatusBadGateway, CodeIdentityUnavailable,
				"ID プロバイダーからユーザー情報を取得できませんでした")
			return
		}
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListProfiles は GET /api/v1/profiles のハンドラー。
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	output, err := h.listProfilesUC.Execute(c.Request.Context(), usecase.ListProfilesInput{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, presenter.NewProfileListResponse(
		output.Profiles, output.TotalCount, output.Page, output.PageSize))
}

// GetProfile は GET /api/v1/profile/:id のハンドラー。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := profileIDParam(c)
	if !ok {
		return
	}

	profile, err := h.getProfileUC.Execute(c.Request.Context(), id)
	if err != nil {
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// EditProfile は PUT /api/v1/profile/:id のハンドラー。
func (h *ProfileHandler) EditProfile(c *gin.Context) {
	id, ok := profileIDParam(c)
	if !ok {
		return
	}
	var input usecase.EditProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		WriteError(c, http.StatusBadRequest, CodeValidationFailed,
			"リクエストのバリデーションに失敗しました")
		return
	}

	profile, err := h.editProfileUC.Execute(c.Request.Context(), id, input)
	if err != nil {
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CreateProfile は POST /api/v1/profile のハンドラー。
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var input usecase.EditProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		WriteError(c, http.StatusBadRequest, CodeValidationFailed,
			"リクエストのバリデーションに失敗しました")
		return
	}

	profile, err := h.createProfileUC.Execute(c.Request.Context(), input)
	if err != nil {
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// BestowAward は POST /api/v1/profile/:id/award のハンドラー。
func (h *ProfileHandler) BestowAward(c *gin.Context) {
	id, ok := profileIDParam(c)
	if !ok {
		return
	}
	var input usecase.EditAwardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		WriteError(c, http.StatusBadRequest, CodeValidationFailed,
			"リクエストのバリデーションに失敗しました")
		return
	}

	profile, err := h.bestowAwardUC.Execute(c.Request.Context(), id, input)
	if err != nil {
		writeProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// RegisterRoutes はルートを登録する。
// requireProfile は scope "profile" を要求する認証ミドルウェア。
func (h *ProfileHandler) RegisterRoutes(r *gin.Engine, requireProfile gin.HandlerFunc) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/", h.Index)
		v1.GET("/profile", requireProfile, h.GetOwnProfile)
		v1.POST("/profile", h.CreateProfile)
		v1.GET("/profile/:id", h.GetProfile)
		v1.PUT("/profile/:id", h.EditProfile)
		v1.POST("/profile/:id/award", h.BestowAward)
		v1.GET("/profiles", h.ListProfiles)
	}
}

func profileIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(c, http.StatusBadRequest, CodeValidationFailed, "プロフィール ID が不正です")
		return 0, false
	}
	return id, true
}

func writeProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		WriteError(c, http.StatusNotFound, CodeProfileNotFound,
			"指定されたプロフィールが見つかりません")
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, usecase.ErrInvalidProfileID):
		WriteErrorWithDetails(c, http.StatusBadRequest, CodeValidationFailed,
			"リクエストのバリデーションに失敗しました", []string{err.Error()})
	case errors.Is(err, repository.ErrDuplicateUsername), errors.Is(err, repository.ErrDuplicateExternalID):
		WriteError(c, http.StatusConflict, CodeConflict,
			"プロフィールが既に存在します")
	default:
		WriteError(c, http.StatusInternalServerError, CodeInternalError,
			"プロフィールの処理に失敗しました")
	}
}
