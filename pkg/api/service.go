package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the full name of the file service.
const ServiceName = "efs.FileService"

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// FileServiceServer is the server API for the file service.
type FileServiceServer interface {
	OpenSession(context.Context, *OpenSessionRequest) (*OpenSessionResponse, error)
	CloseSession(context.Context, *CloseSessionRequest) (*CloseSessionResponse, error)
	Open(context.Context, *OpenRequest) (*OpenResponse, error)
	Close(context.Context, *CloseRequest) (*CloseResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	Write(context.Context, *WriteRequest) (*WriteResponse, error)
	Fstat(context.Context, *FstatRequest) (*FstatResponse, error)
	Link(context.Context, *LinkRequest) (*LinkResponse, error)
	Unlink(context.Context, *UnlinkRequest) (*UnlinkResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	StatFS(context.Context, *StatFSRequest) (*StatFSResponse, error)
}

// UnimplementedFileServiceServer answers every call with Unimplemented.
// Embed it to stay compatible when methods are added.
type UnimplementedFileServiceServer struct{}

func (UnimplementedFileServiceServer) OpenSession(context.Context, *OpenSessionRequest) (*OpenSessionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method OpenSession not implemented")
}

func (UnimplementedFileServiceServer) CloseSession(context.Context, *CloseSessionRequest) (*CloseSessionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CloseSession not implemented")
}

func (UnimplementedFileServiceServer) Open(context.Context, *OpenRequest) (*OpenResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Open not implemented")
}

func (UnimplementedFileServiceServer) Close(context.Context, *CloseRequest) (*CloseResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Close not implemented")
}

func (UnimplementedFileServiceServer) Read(context.Context, *ReadRequest) (*ReadResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Read not implemented")
}

func (UnimplementedFileServiceServer) Write(context.Context, *WriteRequest) (*WriteResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Write not implemented")
}

func (UnimplementedFileServiceServer) Fstat(context.Context, *FstatRequest) (*FstatResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Fstat not implemented")
}

func (UnimplementedFileServiceServer) Link(context.Context, *LinkRequest) (*LinkResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Link not implemented")
}

func (UnimplementedFileServiceServer) Unlink(context.Context, *UnlinkRequest) (*UnlinkResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Unlink not implemented")
}

func (UnimplementedFileServiceServer) List(context.Context, *ListRequest) (*ListResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method List not implemented")
}

func (UnimplementedFileServiceServer) StatFS(context.Context, *StatFSRequest) (*StatFSResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StatFS not implemented")
}

// unaryHandler adapts a FileServiceServer method to a grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
	Message
}, Resp any](method string, call func(FileServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(FileServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FileService_ServiceDesc describes the file service to grpc.Server.
var FileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "OpenSession", Handler: unaryHandler[OpenSessionRequest]("OpenSession", FileServiceServer.OpenSession)},
		{MethodName: "CloseSession", Handler: unaryHandler[CloseSessionRequest]("CloseSession", FileServiceServer.CloseSession)},
		{MethodName: "Open", Handler: unaryHandler[OpenRequest]("Open", FileServiceServer.Open)},
		{MethodName: "Close", Handler: unaryHandler[CloseRequest]("Close", FileServiceServer.Close)},
		{MethodName: "Read", Handler: unaryHandler[ReadRequest]("Read", FileServiceServer.Read)},
		{MethodName: "Write", Handler: unaryHandler[WriteRequest]("Write", FileServiceServer.Write)},
		{MethodName: "Fstat", Handler: unaryHandler[FstatRequest]("Fstat", FileServiceServer.Fstat)},
		{MethodName: "Link", Handler: unaryHandler[LinkRequest]("Link", FileServiceServer.Link)},
		{MethodName: "Unlink", Handler: unaryHandler[UnlinkRequest]("Unlink", FileServiceServer.Unlink)},
		{MethodName: "List", Handler: unaryHandler[ListRequest]("List", FileServiceServer.List)},
		{MethodName: "StatFS", Handler: unaryHandler[StatFSRequest]("StatFS", FileServiceServer.StatFS)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "efs.proto",
}

// RegisterFileServiceServer registers srv with s.
func RegisterFileServiceServer(s grpc.ServiceRegistrar, srv FileServiceServer) {
	s.RegisterService(&FileService_ServiceDesc, srv)
}

// FileServiceClient is the client API for the file service. Every call is
// sent with the efs content subtype.
type FileServiceClient interface {
	OpenSession(ctx context.Context, in *OpenSessionRequest, opts ...grpc.CallOption) (*OpenSessionResponse, error)
	CloseSession(ctx context.Context, in *CloseSessionRequest, opts ...grpc.CallOption) (*CloseSessionResponse, error)
	Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error)
	Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Fstat(ctx context.Context, in *FstatRequest, opts ...grpc.CallOption) (*FstatResponse, error)
	Link(ctx context.Context, in *LinkRequest, opts ...grpc.CallOption) (*LinkResponse, error)
	Unlink(ctx context.Context, in *UnlinkRequest, opts ...grpc.CallOption) (*UnlinkResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	StatFS(ctx context.Context, in *StatFSRequest, opts ...grpc.CallOption) (*StatFSResponse, error)
}

type fileServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFileServiceClient returns a client stub over cc.
func NewFileServiceClient(cc grpc.ClientConnInterface) FileServiceClient {
	return &fileServiceClient{cc}
}

func (c *fileServiceClient) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *fileServiceClient) OpenSession(ctx context.Context, in *OpenSessionRequest, opts ...grpc.CallOption) (*OpenSessionResponse, error) {
	out := new(OpenSessionResponse)
	if err := c.invoke(ctx, "OpenSession", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) CloseSession(ctx context.Context, in *CloseSessionRequest, opts ...grpc.CallOption) (*CloseSessionResponse, error) {
	out := new(CloseSessionResponse)
	if err := c.invoke(ctx, "CloseSession", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Open(ctx context.Context, in *OpenRequest, opts ...grpc.CallOption) (*OpenResponse, error) {
	out := new(OpenResponse)
	if err := c.invoke(ctx, "Open", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error) {
	out := new(CloseResponse)
	if err := c.invoke(ctx, "Close", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	out := new(ReadResponse)
	if err := c.invoke(ctx, "Read", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	out := new(WriteResponse)
	if err := c.invoke(ctx, "Write", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Fstat(ctx context.Context, in *FstatRequest, opts ...grpc.CallOption) (*FstatResponse, error) {
	out := new(FstatResponse)
	if err := c.invoke(ctx, "Fstat", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Link(ctx context.Context, in *LinkRequest, opts ...grpc.CallOption) (*LinkResponse, error) {
	out := new(LinkResponse)
	if err := c.invoke(ctx, "Link", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) Unlink(ctx context.Context, in *UnlinkRequest, opts ...grpc.CallOption) (*UnlinkResponse, error) {
	out := new(UnlinkResponse)
	if err := c.invoke(ctx, "Unlink", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	if err := c.invoke(ctx, "List", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fileServiceClient) StatFS(ctx context.Context, in *StatFSRequest, opts ...grpc.CallOption) (*StatFSResponse, error) {
	out := new(StatFSResponse)
	if err := c.invoke(ctx, "StatFS", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
