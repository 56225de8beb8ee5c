package relation

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/presence-gateway/internal/presence"
	"github.com/oggyb/presence-gateway/internal/server/rpc"
)

const (
	RelationService_SetRelation_FullMethodName    = "/presence.v1.RelationService/SetRelation"
	RelationService_ListRelations_FullMethodName  = "/presence.v1.RelationService/ListRelations"
	RelationService_ListRequests_FullMethodName   = "/presence.v1.RelationService/ListRequests"
	RelationService_GetUser_FullMethodName        = "/presence.v1.RelationService/GetUser"
	RelationService_SetActivity_FullMethodName    = "/presence.v1.RelationService/SetActivity"
	RelationService_UpdateSettings_FullMethodName = "/presence.v1.RelationService/UpdateSettings"
	RelationService_GetRelation_FullMethodName    = "/presence.v1.RelationService/GetRelation"
	RelationService_Logout_FullMethodName         = "/presence.v1.RelationService/Logout"
)

type SetRelationRequest struct {
	TargetUserID string `json:"target_user_id"`
	Relation     string `json:"relation"`
}

type SetRelationResponse struct {
	Relation        string `json:"relation"`
	ReverseRelation string `json:"reverse_relation"`
	Changed         bool   `json:"changed"`
}

type ListRelationsRequest struct {
	Relation        string  `json:"relation"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int32   `json:"limit,omitempty"`
}

type ListRelationsResponse struct {
	UserIDs             []string `json:"user_ids"`
	NextPaginationToken *string  `json:"next_pagination_token,omitempty"`
}

type ListRequestsRequest struct{}

type ListRequestsResponse struct {
	Incoming []string `json:"in"`
	Outgoing []string `json:"out"`
}

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse carries either the online activity or, when offline,
// last_online in unix milliseconds. Both are omitted when hidden.
type GetUserResponse struct {
	UserID     string             `json:"user_id"`
	Username   string             `json:"username"`
	Online     bool               `json:"online"`
	Activity   *presence.Activity `json:"activity,omitempty"`
	LastOnline *int64             `json:"last_online,omitempty"`
}

type SetActivityRequest struct {
	Activity *presence.Activity `json:"activity,omitempty"`
}

type SetActivityResponse struct{}

type UpdateSettingsRequest struct {
	ShowLastOnline *bool `json:"show_last_online,omitempty"`
	ShowActivity   *bool `json:"show_activity,omitempty"`
}

type UpdateSettingsResponse struct{}

type GetRelationRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type GetRelationResponse struct {
	Relation        string `json:"relation"`
	ReverseRelation string `json:"reverse_relation"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// RelationServiceServer is the server API for presence.v1.RelationService.
// Every method acts on behalf of the authenticated caller.
type RelationServiceServer interface {
	SetRelation(context.Context, *SetRelationRequest) (*SetRelationResponse, error)
	ListRelations(context.Context, *ListRelationsRequest) (*ListRelationsResponse, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error)
	SetActivity(context.Context, *SetActivityRequest) (*SetActivityResponse, error)
	UpdateSettings(context.Context, *UpdateSettingsRequest) (*UpdateSettingsResponse, error)
	GetRelation(context.Context, *GetRelationRequest) (*GetRelationResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
}

var RelationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "presence.v1.RelationService",
	HandlerType: (*RelationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetRelation", Handler: rpc.Unary(RelationService_SetRelation_FullMethodName, RelationServiceServer.SetRelation)},
		{MethodName: "ListRelations", Handler: rpc.Unary(RelationService_ListRelations_FullMethodName, RelationServiceServer.ListRelations)},
		{MethodName: "ListRequests", Handler: rpc.Unary(RelationService_ListRequests_FullMethodName, RelationServiceServer.ListRequests)},
		{MethodName: "GetUser", Handler: rpc.Unary(RelationService_GetUser_FullMethodName, RelationServiceServer.GetUser)},
		{MethodName: "SetActivity", Handler: rpc.Unary(RelationService_SetActivity_FullMethodName, RelationServiceServer.SetActivity)},
		{MethodName: "UpdateSettings", Handler: rpc.Unary(RelationService_UpdateSettings_FullMethodName, RelationServiceServer.UpdateSettings)},
		{MethodName: "GetRelation", Handler: rpc.Unary(RelationService_GetRelation_FullMethodName, RelationServiceServer.GetRelation)},
		{MethodName: "Logout", Handler: rpc.Unary(RelationService_Logout_FullMethodName, RelationServiceServer.Logout)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "presence/v1/relation.proto",
}

func RegisterRelationServiceServer(s grpc.ServiceRegistrar, srv RelationServiceServer) {
	s.RegisterService(&RelationService_ServiceDesc, srv)
}

// RelationServiceClient calls presence.v1.RelationService over the JSON codec.
type RelationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRelationServiceClient(cc grpc.ClientConnInterface) *RelationServiceClient {
	return &RelationServiceClient{cc: cc}
}

func (c *RelationServiceClient) SetRelation(ctx context.Context, in *SetRelationRequest, opts ...grpc.CallOption) (*SetRelationResponse, error) {
	return rpc.Invoke[SetRelationResponse](ctx, c.cc, RelationService_SetRelation_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) ListRelations(ctx context.Context, in *ListRelationsRequest, opts ...grpc.CallOption) (*ListRelationsResponse, error) {
	return rpc.Invoke[ListRelationsResponse](ctx, c.cc, RelationService_ListRelations_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return rpc.Invoke[ListRequestsResponse](ctx, c.cc, RelationService_ListRequests_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return rpc.Invoke[GetUserResponse](ctx, c.cc, RelationService_GetUser_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) SetActivity(ctx context.Context, in *SetActivityRequest, opts ...grpc.CallOption) (*SetActivityResponse, error) {
	return rpc.Invoke[SetActivityResponse](ctx, c.cc, RelationService_SetActivity_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) UpdateSettings(ctx context.Context, in *UpdateSettingsRequest, opts ...grpc.CallOption) (*UpdateSettingsResponse, error) {
	return rpc.Invoke[UpdateSettingsResponse](ctx, c.cc, RelationService_UpdateSettings_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) GetRelation(ctx context.Context, in *GetRelationRequest, opts ...grpc.CallOption) (*GetRelationResponse, error) {
	return rpc.Invoke[GetRelationResponse](ctx, c.cc, RelationService_GetRelation_FullMethodName, in, opts...)
}

func (c *RelationServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return rpc.Invoke[LogoutResponse](ctx, c.cc, RelationService_Logout_FullMethodName, in, opts...)
}
