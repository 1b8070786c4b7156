package grpc

// proto 生成コードが未生成のため、gRPC サービス記述子を手動定義する。
// buf generate 後にこのファイルは生成コードの RegisterXxxServiceServer に置き換える。
//
// 手動型 (types.go) は proto.Message を実装していないため、
// encoding/json ベースのカスタムコーデックで手動型を直接やり取りする。

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const profileServiceName = "k1s0.system.profile.v1.ProfileService"

func init() {
	// クライアントが content-type: application/grpc+json を使う場合に有効。
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec は JSON ベースの gRPC コーデック。
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string { return "json" }

// ProfileServiceServer は gRPC ProfileService のサーバーインターフェース。
type ProfileServiceServer interface {
	GetProfile(ctx context.Context, req *GetProfileRequest) (*GetProfileResponse, error)
	GetOwnProfile(ctx context.Context, req *GetOwnProfileRequest) (*GetProfileResponse, error)
	ListProfiles(ctx context.Context, req *ListProfilesRequest) (*ListProfilesResponse, error)
	CreateProfile(ctx context.Context, req *CreateProfileRequest) (*GetProfileResponse, error)
	EditProfile(ctx context.Context, req *EditProfileRequest) (*GetProfileResponse, error)
	BestowAward(ctx context.Context, req *BestowAwardRequest) (*GetProfileResponse, error)
}

// RegisterProfileServiceServer は ProfileServiceServer を gRPC サーバーに登録する。
// proto 生成コードが揃った時点で生成コードの Register 関数に置き換えること。
func RegisterProfileServiceServer(s grpc.ServiceRegistrar, svc ProfileServiceServer) {
	s.RegisterService(&profileServiceDesc, svc)
}

var profileServiceDesc = grpc.ServiceDesc{
	ServiceName: profileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetProfile",
			Handler:    unaryHandler("GetProfile", ProfileServiceServer.GetProfile),
		},
		{
			MethodName: "GetOwnProfile",
			Handler:    unaryHandler("GetOwnProfile", ProfileServiceServer.GetOwnProfile),
		},
		{
			MethodName: "ListProfiles",
			Handler:    unaryHandler("ListProfiles", ProfileServiceServer.ListProfiles),
		},
		{
			MethodName: "CreateProfile",
			Handler:    unaryHandler("CreateProfile", ProfileServiceServer.CreateProfile),
		},
		{
			MethodName: "EditProfile",
			Handler:    unaryHandler("EditProfile", ProfileServiceServer.EditProfile),
		},
		{
			MethodName: "BestowAward",
			Handler:    unaryHandler("BestowAward", ProfileServiceServer.BestowAward),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "v1/profile.proto",
}

// unaryHandler は生成コードの _Service_Method_Handler と同じ手順でリクエストをデコードし、
// インターセプターを経由してメソッドを呼び出す。
func unaryHandler[Req, Resp any](
	method string,
	call func(ProfileServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + profileServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProfileServiceServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProfileServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}
