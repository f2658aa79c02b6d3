package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TaskServiceName is the fully qualified gRPC service name.
const TaskServiceName = "tasktracker.v1.TaskService"

// TaskServiceServer is the server API for tasktracker.v1.TaskService. Every
// message is a google.protobuf.Struct carrying the same fields as the REST API.
type TaskServiceServer interface {
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTaskReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCompletedReports(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTaskServiceServer registers srv on s.
func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&TaskServiceDesc, srv)
}

func unaryHandler(method string, call func(TaskServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := "/" + TaskServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaskServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TaskServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TaskServiceDesc is the grpc.ServiceDesc for tasktracker.v1.TaskService.
var TaskServiceDesc = grpc.ServiceDesc{
	ServiceName: TaskServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListTasks", TaskServiceServer.ListTasks),
		unaryHandler("GetTask", TaskServiceServer.GetTask),
		unaryHandler("GetTaskReport", TaskServiceServer.GetTaskReport),
		unaryHandler("ListCompletedReports", TaskServiceServer.ListCompletedReports),
		unaryHandler("CompleteTask", TaskServiceServer.CompleteTask),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tasktracker/v1/task.proto",
}
