package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
)

// MockProfileRepository は ProfileRepository のモック実装。
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Profile, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) AddAward(ctx context.Context, profileID int64, title string) (*model.Award, error) {
	args := m.Called(ctx, profileID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Award), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, params repository.ProfileListParams) ([]*model.Profile, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.Profile), args.Int(1), args.Error(2)
}

func (m *MockProfileRepository) Healthy(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIdentityFetcher は IdentityFetcher のモック実装。
type MockIdentityFetcher struct {
	mock.Mock
}

func (m *MockIdentityFetcher) FetchIdentity(ctx context.Context, token *model.AccessToken) (model.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.Identity), args.Error(1)
}

// MockProfileEventPublisher は ProfileEventPublisher のモック実装。
type MockProfileEventPublisher struct {
	mock.Mock
}

func (m *MockProfileEventPublisher) Publish(ctx context.Context, event *model.ProfileEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type recordingLinkRecorder struct {
	outcomes []string
}

func (r *recordingLinkRecorder) ObserveLink(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func strPtr(s string) *string { return &s }

func TestResolveProfileUseCase_Execute_NewDirectSubject(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	mockPublisher := new(MockProfileEventPublisher)
	recorder := &recordingLinkRecorder{}
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, mockPublisher, WithLinkRecorder(recorder))

	token := &model.AccessToken{Subject: "auth0|abc123", Raw: "raw-jwt"}
	identity := &model.DirectIdentity{
		Subject:   "auth0|abc123",
		EmailAddr: "kiri@example.com",
		Name:      "Kiri Te Awa",
		Nickname:  "kiri",
	}

	mockRepo.On("GetByExternalID", mock.Anything, "auth0|abc123").Return(nil, repository.ErrProfileNotFound)
	mockFetcher.On("FetchIdentity", mock.Anything, token).Return(identity, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Profile")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Profile).ID = 42
		}).Return(nil)
	mockPublisher.On("Publish", mock.Anything, mock.MatchedBy(func(e *model.ProfileEvent) bool {
		return e.Type == model.EventProfileLinked && e.ProfileID == 42 && e.ExternalID == "auth0|abc123"
	})).Return(nil)

	profile, err := uc.Execute(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.ID)
	require.NotNil(t, profile.ExternalID)
	assert.Equal(t, "auth0|abc123", *profile.ExternalID)
	assert.Equal(t, "kiri@example.com", profile.Email)
	assert.Equal(t, "kiri@example.com", profile.Username)
	assert.Equal(t, "kiri", profile.FullName)
	assert.Empty(t, profile.Password)
	assert.Empty(t, profile.Gender)
	assert.Empty(t, profile.StreetAddress)
	assert.Equal(t, []string{LinkOutcomeCreated}, recorder.outcomes)
	mockRepo.AssertExpectations(t)
	mockFetcher.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestResolveProfileUseCase_Execute_ExistingSubjectSkipsIdentityFetch(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, nil)

	existing := &model.Profile{ID: 7, Username: "aroha", ExternalID: strPtr("google-oauth2|xyz789")}
	mockRepo.On("GetByExternalID", mock.Anything, "google-oauth2|xyz789").Return(existing, nil)

	profile, err := uc.Execute(context.Background(), &model.AccessToken{Subject: "google-oauth2|xyz789"})

	require.NoError(t, err)
	assert.Same(t, existing, profile)
	mockFetcher.AssertNotCalled(t, "FetchIdentity", mock.Anything, mock.Anything)
}

func TestResolveProfileUseCase_Execute_IdempotentFetchesIdentityOnce(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, nil)

	token := &model.AccessToken{Subject: "auth0|abc123"}
	identity := &model.DirectIdentity{Subject: "auth0|abc123", EmailAddr: "a@example.com", Name: "A", Nickname: "a"}

	var stored *model.Profile
	mockRepo.On("GetByExternalID", mock.Anything, "auth0|abc123").Return(nil, repository.ErrProfileNotFound).Once()
	mockFetcher.On("FetchIdentity", mock.Anything, token).Return(identity, nil).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Profile")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*model.Profile)
			stored.ID = 1
		}).Return(nil).Once()

	first, err := uc.Execute(context.Background(), token)
	require.NoError(t, err)

	mockRepo.On("GetByExternalID", mock.Anything, "auth0|abc123").Return(stored, nil).Once()

	second, err := uc.Execute(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	mockFetcher.AssertNumberOfCalls(t, "FetchIdentity", 1)
	mockRepo.AssertExpectations(t)
}

func TestResolveProfileUseCase_Execute_ConcurrentInsertRereads(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	mockPublisher := new(MockProfileEventPublisher)
	recorder := &recordingLinkRecorder{}
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, mockPublisher, WithLinkRecorder(recorder))

	token := &model.AccessToken{Subject: "google-oauth2|xyz789"}
	identity := &model.GoogleIdentity{Subject: "google-oauth2|xyz789", EmailAddr: "g@example.com", Name: "G"}
	winner := &model.Profile{ID: 9, ExternalID: strPtr("google-oauth2|xyz789")}

	mockRepo.On("GetByExternalID", mock.Anything, "google-oauth2|xyz789").Return(nil, repository.ErrProfileNotFound).Once()
	mockFetcher.On("FetchIdentity", mock.Anything, token).Return(identity, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(repository.ErrDuplicateExternalID)
	mockRepo.On("GetByExternalID", mock.Anything, "google-oauth2|xyz789").Return(winner, nil).Once()

	profile, err := uc.Execute(context.Background(), token)

	require.NoError(t, err)
	assert.Same(t, winner, profile)
	assert.Equal(t, []string{LinkOutcomeConflictReread}, recorder.outcomes)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestResolveProfileUseCase_Execute_IdentityFetchFailure(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, nil)

	token := &model.AccessToken{Subject: "facebook|123"}
	mockRepo.On("GetByExternalID", mock.Anything, "facebook|123").Return(nil, repository.ErrProfileNotFound)
	mockFetcher.On("FetchIdentity", mock.Anything, token).Return(nil, model.ErrUnknownIdentityProvider)

	profile, err := uc.Execute(context.Background(), token)

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, ErrIdentityUnavailable)
	assert.ErrorIs(t, err, model.ErrUnknownIdentityProvider)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveProfileUseCase_Execute_LookupError(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, nil)

	dbErr := errors.New("connection refused")
	mockRepo.On("GetByExternalID", mock.Anything, "auth0|abc123").Return(nil, dbErr)

	profile, err := uc.Execute(context.Background(), &model.AccessToken{Subject: "auth0|abc123"})

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrIdentityUnavailable)
	mockFetcher.AssertNotCalled(t, "FetchIdentity", mock.Anything, mock.Anything)
}

func TestResolveProfileUseCase_Execute_PublishErrorIgnored(t *testing.T) {
	mockRepo := new(MockProfileRepository)
	mockFetcher := new(MockIdentityFetcher)
	mockPublisher := new(MockProfileEventPublisher)
	uc := NewResolveProfileUseCase(mockRepo, mockFetcher, mockPublisher)

	token := &model.AccessToken{Subject: "auth0|abc123"}
	identity := &model.DirectIdentity{Subject: "auth0|abc123", EmailAddr: "a@example.com", Name: "A", Nickname: "a"}

	mockRepo.On("GetByExternalID", mock.Anything, "auth0|abc123").Return(nil, repository.ErrProfileNotFound)
	mockFetcher.On("FetchIdentity", mock.Anything, token).Return(identity, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Profile")).Return(nil)
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	profile, err := uc.Execute(context.Background(), token)

	require.NoError(t, err)
	assert.NotNil(t, profile)
}
