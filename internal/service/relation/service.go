package relation

import (
	"context"

	"github.com/google/uuid"

	"github.com/oggyb/presence-gateway/internal/app"
	"github.com/oggyb/presence-gateway/internal/auth"
	"github.com/oggyb/presence-gateway/internal/db"
	svcErr "github.com/oggyb/presence-gateway/internal/errors"
	applog "github.com/oggyb/presence-gateway/internal/logger"
	"github.com/oggyb/presence-gateway/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service implements the RelationService gRPC API on top of Store.
type Service struct {
	appCtx *app.AppContext
	store  *Store
}

// NewRelationService creates the service with dependencies from AppContext.
func NewRelationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		store:  NewStore(appCtx.DB, appCtx.Registry, applog.Subsystem(appCtx.Logger, "relation")),
	}
}

// SetRelation moves the caller's relation towards target_user_id.
//
// Example:
//
//	svc.SetRelation(ctx, &SetRelationRequest{TargetUserID: "…", Relation: "request"})
func (s *Service) SetRelation(ctx context.Context, req *SetRelationRequest) (*SetRelationResponse, error) {
	actor, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	target, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("target_user_id must be a valid uuid")
	}
	desired := db.RelationState(req.Relation)
	if !desired.Valid() {
		return nil, svcErr.InvalidArgument("relation must be one of none, request, friend, blocked")
	}

	s.appCtx.Logger.Debug("SetRelation called", "actor", actor, "target", target, "relation", desired)

	out, err := s.store.SetRelation(ctx, actor, target, desired)
	if err != nil {
		s.appCtx.Logger.Debug("SetRelation rejected", "actor", actor, "target", target, "err", err)
		return nil, svcErr.Map(err)
	}
	return &SetRelationResponse{
		Relation:        string(out.Forward),
		ReverseRelation: string(out.Reverse),
		Changed:         out.Changed,
	}, nil
}

// ListRelations pages through the users the caller holds relation towards.
// Only friend and blocked are listable; requests have ListRequests.
func (s *Service) ListRelations(ctx context.Context, req *ListRelationsRequest) (*ListRelationsResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	state := db.RelationState(req.Relation)
	if state != db.RelationFriend && state != db.RelationBlocked {
		return nil, svcErr.InvalidArgument("relation must be friend or blocked")
	}

	limit := int(req.Limit)
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	ids, next, err := s.store.List(ctx, user, state, req.PaginationToken, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListRelations failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}
	return &ListRelationsResponse{UserIDs: idStrings(ids), NextPaginationToken: next}, nil
}

// ListRequests returns pending friend requests received and sent by the caller.
func (s *Service) ListRequests(ctx context.Context, _ *ListRequestsRequest) (*ListRequestsResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	in, out, err := s.store.Requests(ctx, user)
	if err != nil {
		s.appCtx.Logger.Error("ListRequests failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}
	return &ListRequestsResponse{Incoming: idStrings(in), Outgoing: idStrings(out)}, nil
}

// GetUser returns the presence view of user_id.
func (s *Service) GetUser(ctx context.Context, req *GetUserRequest) (*GetUserResponse, error) {
	if _, err := auth.UserFrom(ctx); err != nil {
		return nil, svcErr.Map(err)
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("user_id must be a valid uuid")
	}

	st, err := s.store.Status(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &GetUserResponse{
		UserID:   st.ID.String(),
		Username: st.Username,
		Online:   st.Online,
		Activity: st.Activity,
	}
	if st.LastOnline != nil {
		ms := st.LastOnline.UnixMilli()
		resp.LastOnline = &ms
	}
	return resp, nil
}

// SetActivity replaces the caller's activity; a nil activity clears it.
func (s *Service) SetActivity(ctx context.Context, req *SetActivityRequest) (*SetActivityResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.store.SetActivity(ctx, user, req.Activity); err != nil {
		s.appCtx.Logger.Debug("SetActivity failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}
	return &SetActivityResponse{}, nil
}

// UpdateSettings toggles the caller's privacy flags.
func (s *Service) UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*UpdateSettingsResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	err = s.store.UpdateSettings(ctx, user, repository.Settings{
		ShowLastOnline: req.ShowLastOnline,
		ShowActivity:   req.ShowActivity,
	})
	if err != nil {
		s.appCtx.Logger.Error("UpdateSettings failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}
	return &UpdateSettingsResponse{}, nil
}

// GetRelation reports both rows between the caller and target_user_id.
func (s *Service) GetRelation(ctx context.Context, req *GetRelationRequest) (*GetRelationResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	target, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		return nil, svcErr.InvalidArgument("target_user_id must be a valid uuid")
	}

	forward, err := s.store.Get(ctx, user, target)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	reverse, err := s.store.Get(ctx, target, user)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &GetRelationResponse{Relation: string(forward), ReverseRelation: string(reverse)}, nil
}

// Logout revokes every access token of the caller, including the one used for this call.
// A live gateway connection is not dropped; it ends with its socket.
func (s *Service) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {
	user, err := auth.UserFrom(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Verifier.RevokeAll(ctx, user); err != nil {
		s.appCtx.Logger.Error("Logout failed", "user", user, "err", err)
		return nil, svcErr.Map(err)
	}
	return &LogoutResponse{}, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
