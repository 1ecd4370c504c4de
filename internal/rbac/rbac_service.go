package rbac

import (
	"context"
	"sync"

	"go-leavedesk/internal/domain"
	"go-leavedesk/internal/identity"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadPolicy(ctx context.Context) error
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

// DefaultPermissions are seeded at startup. The role hierarchy below makes
// every grant to MANAGER reach HR and ADMIN as well.
func DefaultPermissions() []RolePermission {
	return []RolePermission{
		{Role: identity.RoleEmployee, Resource: "leave", Action: "read"},
		{Role: identity.RoleEmployee, Resource: "leave", Action: "create"},
		{Role: identity.RoleManager, Resource: "leave", Action: "approve"},
		{Role: identity.RoleManager, Resource: "quota", Action: "read"},
		{Role: identity.RoleHR, Resource: "quota", Action: "manage"},
	}
}

func (s *service) LoadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()

	perms, err := s.repo.GetRolePermissions(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("rbac policy loading", zap.Int("role_permissions", len(perms)))

	for _, p := range perms {
		if _, err := s.enforcer.AddPolicy(p.Role, p.Resource, p.Action); err != nil {
			return err
		}
	}

	// Elevated roles inherit downward: ADMIN > HR > MANAGER > EMPLOYEE.
	hierarchy := [][2]string{
		{identity.RoleAdmin, identity.RoleHR},
		{identity.RoleHR, identity.RoleManager},
		{identity.RoleManager, identity.RoleEmployee},
	}
	for _, g := range hierarchy {
		if _, err := s.enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	role, err := s.repo.GetUserRole(ctx, req.UserID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enforcer.Enforce(role, req.Resource, req.Action)
}
