package grpcserver

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"taskTracker/internal/auth"
	"taskTracker/internal/service"
)

// TaskServer implements TaskServiceServer on top of the task service.
type TaskServer struct {
	Tasks *service.TaskService
}

var _ TaskServiceServer = (*TaskServer)(nil)

// ListTasks returns the caller's visible tasks. Request fields: status, page_size, page_token.
func (s *TaskServer) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	size, err := optionalInt(req, "page_size")
	if err != nil {
		return nil, err
	}
	page, err := s.Tasks.List(ctx, p.Caller(), service.ListTasksInput{
		Status:    stringField(req, "status"),
		PageSize:  int(size),
		PageToken: stringField(req, "page_token"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(page)
}

// GetTask returns one task. Request fields: id.
func (s *TaskServer) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredID(req)
	if err != nil {
		return nil, err
	}
	v, err := s.Tasks.Get(ctx, p.Caller(), id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(v)
}

// GetTaskReport returns the completion report of one task. Request fields: id.
func (s *TaskServer) GetTaskReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredID(req)
	if err != nil {
		return nil, err
	}
	rep, err := s.Tasks.Report(ctx, p.Caller(), id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(rep)
}

// ListCompletedReports returns every completed task's report under "results".
func (s *TaskServer) ListCompletedReports(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	reps, err := s.Tasks.CompletedReports(ctx, p.Caller())
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"results": reps})
}

// CompleteTask marks a task completed. Request fields: id, completion_report, worked_hours.
func (s *TaskServer) CompleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredID(req)
	if err != nil {
		return nil, err
	}
	in := service.CompleteTaskInput{WorkedHours: hoursField(req, "worked_hours")}
	if v, ok := req.GetFields()["completion_report"]; ok {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); !isNull {
			report := v.GetStringValue()
			in.CompletionReport = &report
		}
	}
	v, err := s.Tasks.Complete(ctx, p.Caller(), id, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(v)
}

// toStatus maps a domain error to a gRPC status.
func toStatus(err error) error {
	msg := service.MessageOf(err)
	switch service.KindOf(err) {
	case service.KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case service.KindPermissionDenied, service.KindForbidden:
		return status.Error(codes.PermissionDenied, msg)
	case service.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case service.KindAuthentication:
		return status.Error(codes.Unauthenticated, msg)
	case service.KindConflict:
		return status.Error(codes.Aborted, msg)
	case service.KindTaskNotCompleted:
		return status.Error(codes.FailedPrecondition, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}

// toStruct converts a response value to a Struct through its JSON form so both
// transports share field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

// optionalInt reads a whole number sent either as a number or a numeric string.
func optionalInt(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) || math.Abs(k.NumberValue) > 1<<53 {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		return int64(k.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(k.StringValue), 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
}

func requiredID(req *structpb.Struct) (int64, error) {
	id, err := optionalInt(req, "id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, status.Error(codes.InvalidArgument, "id is required")
	}
	return id, nil
}

// hoursField keeps worked_hours as text so the service applies the same
// validation as for REST requests.
func hoursField(req *structpb.Struct, name string) service.RawHours {
	v, ok := req.GetFields()[name]
	if !ok {
		return service.RawHours{}
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return service.HoursText(strconv.FormatFloat(k.NumberValue, 'f', -1, 64))
	case *structpb.Value_StringValue:
		return service.HoursText(k.StringValue)
	case *structpb.Value_NullValue:
		return service.RawHours{}
	default:
		return service.HoursText(v.String())
	}
}
