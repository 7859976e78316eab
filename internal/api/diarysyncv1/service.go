package diarysyncv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "diarysync.v1.DiaryStore"

const (
	DiaryStore_CreateOrGetUser_FullMethodName        = "/" + ServiceName + "/CreateOrGetUser"
	DiaryStore_UpsertDiaries_FullMethodName          = "/" + ServiceName + "/UpsertDiaries"
	DiaryStore_DeleteDiary_FullMethodName            = "/" + ServiceName + "/DeleteDiary"
	DiaryStore_DeleteDiaries_FullMethodName          = "/" + ServiceName + "/DeleteDiaries"
	DiaryStore_CountDiaries_FullMethodName           = "/" + ServiceName + "/CountDiaries"
	DiaryStore_DeleteUserDiaries_FullMethodName      = "/" + ServiceName + "/DeleteUserDiaries"
	DiaryStore_DeleteTestDiaries_FullMethodName      = "/" + ServiceName + "/DeleteTestDiaries"
	DiaryStore_RemoveDuplicateDiaries_FullMethodName = "/" + ServiceName + "/RemoveDuplicateDiaries"
)

// DiaryStoreServer is the server API for the DiaryStore service.
type DiaryStoreServer interface {
	CreateOrGetUser(context.Context, *CreateOrGetUserRequest) (*CreateOrGetUserResponse, error)
	UpsertDiaries(context.Context, *UpsertDiariesRequest) (*UpsertDiariesResponse, error)
	DeleteDiary(context.Context, *DeleteDiaryRequest) (*DeleteResponse, error)
	DeleteDiaries(context.Context, *DeleteDiariesRequest) (*DeleteResponse, error)
	CountDiaries(context.Context, *UserScopeRequest) (*CountDiariesResponse, error)
	DeleteUserDiaries(context.Context, *UserScopeRequest) (*DeleteResponse, error)
	DeleteTestDiaries(context.Context, *DeleteTestDiariesRequest) (*DeleteResponse, error)
	RemoveDuplicateDiaries(context.Context, *UserScopeRequest) (*DeleteResponse, error)
}

// UnimplementedDiaryStoreServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedDiaryStoreServer struct{}

func (UnimplementedDiaryStoreServer) CreateOrGetUser(context.Context, *CreateOrGetUserRequest) (*CreateOrGetUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateOrGetUser not implemented")
}
func (UnimplementedDiaryStoreServer) UpsertDiaries(context.Context, *UpsertDiariesRequest) (*UpsertDiariesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpsertDiaries not implemented")
}
func (UnimplementedDiaryStoreServer) DeleteDiary(context.Context, *DeleteDiaryRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteDiary not implemented")
}
func (UnimplementedDiaryStoreServer) DeleteDiaries(context.Context, *DeleteDiariesRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteDiaries not implemented")
}
func (UnimplementedDiaryStoreServer) CountDiaries(context.Context, *UserScopeRequest) (*CountDiariesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CountDiaries not implemented")
}
func (UnimplementedDiaryStoreServer) DeleteUserDiaries(context.Context, *UserScopeRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteUserDiaries not implemented")
}
func (UnimplementedDiaryStoreServer) DeleteTestDiaries(context.Context, *DeleteTestDiariesRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteTestDiaries not implemented")
}
func (UnimplementedDiaryStoreServer) RemoveDuplicateDiaries(context.Context, *UserScopeRequest) (*DeleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveDuplicateDiaries not implemented")
}

// RegisterDiaryStoreServer registers srv on s.
func RegisterDiaryStoreServer(s grpc.ServiceRegistrar, srv DiaryStoreServer) {
	s.RegisterService(&DiaryStore_ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(DiaryStoreServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DiaryStoreServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DiaryStoreServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// DiaryStore_ServiceDesc is the grpc.ServiceDesc for the DiaryStore service.
var DiaryStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiaryStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateOrGetUser", DiaryStoreServer.CreateOrGetUser),
		unary("UpsertDiaries", DiaryStoreServer.UpsertDiaries),
		unary("DeleteDiary", DiaryStoreServer.DeleteDiary),
		unary("DeleteDiaries", DiaryStoreServer.DeleteDiaries),
		unary("CountDiaries", DiaryStoreServer.CountDiaries),
		unary("DeleteUserDiaries", DiaryStoreServer.DeleteUserDiaries),
		unary("DeleteTestDiaries", DiaryStoreServer.DeleteTestDiaries),
		unary("RemoveDuplicateDiaries", DiaryStoreServer.RemoveDuplicateDiaries),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "diarysync/v1/diarystore",
}

// DiaryStoreClient is the client API for the DiaryStore service.
type DiaryStoreClient interface {
	CreateOrGetUser(ctx context.Context, in *CreateOrGetUserRequest, opts ...grpc.CallOption) (*CreateOrGetUserResponse, error)
	UpsertDiaries(ctx context.Context, in *UpsertDiariesRequest, opts ...grpc.CallOption) (*UpsertDiariesResponse, error)
	DeleteDiary(ctx context.Context, in *DeleteDiaryRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	DeleteDiaries(ctx context.Context, in *DeleteDiariesRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	CountDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*CountDiariesResponse, error)
	DeleteUserDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	DeleteTestDiaries(ctx context.Context, in *DeleteTestDiariesRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	RemoveDuplicateDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
}

type diaryStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewDiaryStoreClient returns a client that always speaks the JSON codec.
func NewDiaryStoreClient(cc grpc.ClientConnInterface) DiaryStoreClient {
	return &diaryStoreClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *diaryStoreClient) CreateOrGetUser(ctx context.Context, in *CreateOrGetUserRequest, opts ...grpc.CallOption) (*CreateOrGetUserResponse, error) {
	return invoke[CreateOrGetUserResponse](ctx, c.cc, DiaryStore_CreateOrGetUser_FullMethodName, in, opts)
}

func (c *diaryStoreClient) UpsertDiaries(ctx context.Context, in *UpsertDiariesRequest, opts ...grpc.CallOption) (*UpsertDiariesResponse, error) {
	return invoke[UpsertDiariesResponse](ctx, c.cc, DiaryStore_UpsertDiaries_FullMethodName, in, opts)
}

func (c *diaryStoreClient) DeleteDiary(ctx context.Context, in *DeleteDiaryRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DiaryStore_DeleteDiary_FullMethodName, in, opts)
}

func (c *diaryStoreClient) DeleteDiaries(ctx context.Context, in *DeleteDiariesRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DiaryStore_DeleteDiaries_FullMethodName, in, opts)
}

func (c *diaryStoreClient) CountDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*CountDiariesResponse, error) {
	return invoke[CountDiariesResponse](ctx, c.cc, DiaryStore_CountDiaries_FullMethodName, in, opts)
}

func (c *diaryStoreClient) DeleteUserDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DiaryStore_DeleteUserDiaries_FullMethodName, in, opts)
}

func (c *diaryStoreClient) DeleteTestDiaries(ctx context.Context, in *DeleteTestDiariesRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DiaryStore_DeleteTestDiaries_FullMethodName, in, opts)
}

func (c *diaryStoreClient) RemoveDuplicateDiaries(ctx context.Context, in *UserScopeRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, DiaryStore_RemoveDuplicateDiaries_FullMethodName, in, opts)
}
