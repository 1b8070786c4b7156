package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

func TestRegisterProfileServiceServer(t *testing.T) {
	s := grpc.NewServer()
	svc := newGRPCFixture().svc

	assert.NotPanics(t, func() {
		RegisterProfileServiceServer(s, svc)
	})

	info, ok := s.GetServiceInfo()[profileServiceName]
	require.True(t, ok, "ProfileService should be registered")
	assert.Len(t, info.Methods, 6)

	methodNames := make([]string, 0, len(info.Methods))
	for _, m := range info.Methods {
		methodNames = append(methodNames, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"GetProfile", "GetOwnProfile", "ListProfiles", "CreateProfile", "EditProfile", "BestowAward",
	}, methodNames)
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(&BestowAwardRequest{ProfileId: 1, Title: "Kaitiaki"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"profile_id":1,"title":"Kaitiaki"}`, string(data))

	var req BestowAwardRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, "Kaitiaki", req.Title)
}

func TestProfileService_OverBufconn(t *testing.T) {
	f := newGRPCFixture()
	f.repo.On("GetByID", mock.Anything, int64(1)).Return(sampleProfile(), nil)

	var intercepted []string
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		intercepted = append(intercepted, info.FullMethod)
		return handler(ctx, req)
	}))
	RegisterProfileServiceServer(s, f.svc)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var resp GetProfileResponse
	err = conn.Invoke(context.Background(), "/"+profileServiceName+"/GetProfile", &GetProfileRequest{Id: 1}, &resp)

	require.NoError(t, err)
	assert.Equal(t, "aroha@example.com", resp.Profile.Email)
	assert.Equal(t, []string{"/k1s0.system.profile.v1.ProfileService/GetProfile"}, intercepted)
}
