package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, publisher events.Publisher) *GroupService {
	return &GroupService{store: store, publisher: publisher}
}

// CreateGroup creates a group, optionally seeded with existing users.
func (s *GroupService) CreateGroup(ctx context.Context, req contracts.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}

	members := dedupe(req.Members)
	if len(members) > 0 {
		found, err := s.store.GetUsersByIDs(ctx, members)
		if err != nil {
			logFailure(ctx, "CreateGroup", err)
			return nil, err
		}
		for _, id := range members {
			if _, ok := found[id]; !ok {
				return nil, apperr.NotFound("User not found")
			}
		}
	}

	group := &models.Group{Name: name, Members: members}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		logFailure(ctx, "CreateGroup", err, "name", name)
		return nil, err
	}

	slog.InfoContext(ctx, "Group created", "group_id", group.ID, "members_count", len(group.Members))
	return group, nil
}

// AddMember adds a user to a group. Adding an existing member changes nothing.
func (s *GroupService) AddMember(ctx context.Context, groupID string, req contracts.AddMemberRequest) (*models.Group, error) {
	if req.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}

	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		err = notFoundAs(err, "User not found")
		logFailure(ctx, "AddMember", err, "group_id", groupID, "user_id", req.UserID)
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		err = notFoundAs(err, "Group not found")
		logFailure(ctx, "AddMember", err, "group_id", groupID, "user_id", req.UserID)
		return nil, err
	}

	if group.HasMember(req.UserID) {
		return group, nil
	}

	if err := s.store.AddGroupMember(ctx, groupID, req.UserID); err != nil {
		err = notFoundAs(err, "Group not found")
		logFailure(ctx, "AddMember", err, "group_id", groupID, "user_id", req.UserID)
		return nil, err
	}
	group.Members = append(group.Members, req.UserID)

	slog.InfoContext(ctx, "Group member added", "group_id", groupID, "user_id", req.UserID)
	events.Emit(ctx, s.publisher, events.GroupMemberAdded, groupID, req.UserID, map[string]string{"userId": req.UserID})
	return group, nil
}

// GetGroup returns a group with its members resolved to users.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.GroupDetail, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		err = notFoundAs(err, "Group not found")
		logFailure(ctx, "GetGroup", err, "group_id", groupID)
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		logFailure(ctx, "GetGroup", err, "group_id", groupID)
		return nil, err
	}

	detail := &models.GroupDetail{
		ID:        group.ID,
		Name:      group.Name,
		Members:   make([]*models.User, 0, len(group.Members)),
		CreatedAt: group.CreatedAt,
	}
	for _, id := range group.Members {
		if u, ok := users[id]; ok {
			detail.Members = append(detail.Members, u)
		}
	}
	return detail, nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *GroupService) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		err = notFoundAs(err, "Group not found")
		logFailure(ctx, "ListExpenses", err, "group_id", groupID)
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		logFailure(ctx, "ListExpenses", err, "group_id", groupID)
		return nil, err
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	return expenses, nil
}
