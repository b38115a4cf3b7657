package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dorm-repair/internal/dto"
	"dorm-repair/internal/model"
	"dorm-repair/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists   = errors.New("用户名已存在")
	ErrUserSelfDisable  = errors.New("不能禁用自己的账号")
	ErrUserSelfDemote   = errors.New("不能取消自己的工作人员权限")
	ErrUsernameRequired = errors.New("用户名不能为空")
)

// DefaultUserPageSize 用户列表默认每页数量
const DefaultUserPageSize = 20

// UserService 账号管理业务接口（仅工作人员可用）
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserDetailResponse, int64, error)
	GetByID(ctx context.Context, id uint) (*dto.UserDetailResponse, error)
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserDetailResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateUserRequest, callerID uint) (*dto.UserDetailResponse, error)
	// EnsureSuperuser 用户名不存在时创建超级管理员，已存在时不做修改
	EnsureSuperuser(ctx context.Context, username, password string) (bool, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserDetailResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Search:  strings.TrimSpace(req.Search),
		IsStaff: req.IsStaff,
		Offset:  req.GetOffset(DefaultUserPageSize),
		Limit:   req.GetPageSize(DefaultUserPageSize),
	})
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserDetailResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserDetailResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id uint) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserDetailResponse(user)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserDetailResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	existing, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(req.Email),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
		IsStaff:      req.IsStaff,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := toUserDetailResponse(user)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id uint, req *dto.UpdateUserRequest, callerID uint) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	if id == callerID {
		if req.IsActive != nil && !*req.IsActive {
			return nil, ErrUserSelfDisable
		}
		if req.IsStaff != nil && !*req.IsStaff {
			return nil, ErrUserSelfDemote
		}
	}

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserDetailResponse(user)
	return &resp, nil
}

func toUserDetailResponse(u *model.User) dto.UserDetailResponse {
	return dto.UserDetailResponse{
		UserResponse: toUserResponse(u),
		IsActive:     u.IsActive,
		LastLogin:    dto.FormatTimePtr(u.LastLogin),
		CreatedAt:    dto.FormatTime(u.CreatedAt),
	}
}

// ────────────────────── EnsureSuperuser ──────────────────────

func (s *userService) EnsureSuperuser(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrUsernameRequired
	}

	_, err := s.repo.User.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.String("username", username), zap.Error(err))
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return false, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		// 多实例同时启动时另一实例已创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		s.logger.Error("创建管理员失败", zap.Error(err))
		return false, err
	}

	s.logger.Info("已创建初始管理员", zap.String("username", username))
	return true, nil
}
