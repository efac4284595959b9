package service

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
	"tocotoco-hr/portal/internal/apiclient"
	"tocotoco-hr/portal/internal/cache"
	"tocotoco-hr/portal/internal/model"
	pkgerrors "tocotoco-hr/portal/pkg/errors"
)

// DirectoryService 员工与门店目录（带缓存）
//
// 缓存策略：
//   - getUser 按员工缓存，getStores 全局缓存，时长见 cache 配置
//   - getUsers 远端不可达时退回内置演示员工
//   - 资料被修改后调用 Invalidate
type DirectoryService interface {
	GetUser(ctx context.Context, a *Actor, employeeID string) (*model.User, error)
	ListUsers(ctx context.Context, a *Actor) ([]model.User, error)
	ListStores(ctx context.Context, a *Actor) ([]model.Store, error)
	// StoresForUser 调用者可管理的门店：AD 全部，AM 同区域，QL 被分配的门店，NV 本店
	StoresForUser(ctx context.Context, a *Actor) ([]model.Store, error)
	// StoreNames storeId → storeName
	StoreNames(ctx context.Context, a *Actor) map[string]string
	EmployeesByStore(ctx context.Context, a *Actor, store string) ([]model.User, error)
	// ManagedUsers 调用者可管理门店内的员工（含本人），AD 为全部
	ManagedUsers(ctx context.Context, a *Actor) ([]model.User, error)
	Invalidate(ctx context.Context, employeeIDs ...string)
}

type directoryService struct {
	api    apiclient.API
	cache  cache.Store
	cfg    *config.CacheConfig
	logger *zap.Logger
}

// NewDirectoryService 创建 DirectoryService 实例
func NewDirectoryService(api apiclient.API, store cache.Store, cfg *config.CacheConfig, logger *zap.Logger) DirectoryService {
	return &directoryService{api: api, cache: store, cfg: cfg, logger: logger}
}

func (s *directoryService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn("读取缓存失败", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *directoryService) GetUser(ctx context.Context, a *Actor, employeeID string) (*model.User, error) {
	key := cache.UserKey(employeeID)
	var u model.User
	if s.cacheGet(ctx, key, &u) {
		return &u, nil
	}

	ok, err := fetchObject(ctx, s.api, a, apiclient.ActionGetUser, url.Values{"employeeId": {employeeID}}, "", &u)
	if err != nil {
		var ue *pkgerrors.UpstreamError
		if errors.As(err, &ue) && ue.Status == 404 {
			return nil, ErrNotFound
		}
		s.logger.Error("获取员工资料失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	if !ok || u.EmployeeID == "" {
		return nil, ErrNotFound
	}

	if err := s.cache.Set(ctx, key, u, s.cfg.UserTTL); err != nil {
		s.logger.Warn("写入缓存失败", zap.String("key", key), zap.Error(err))
	}
	return &u, nil
}

func (s *directoryService) ListUsers(ctx context.Context, a *Actor) ([]model.User, error) {
	var users []model.User
	if s.cacheGet(ctx, cache.UsersKey, &users) {
		return users, nil
	}

	users, err := fetchList[model.User](ctx, s.api, a, apiclient.ActionGetUsers, nil)
	if err != nil {
		if apiclient.IsUnavailable(err) {
			s.logger.Warn("远端用户列表不可达，使用内置演示数据", zap.Error(err))
			return apiclient.SeedUsers(), nil
		}
		s.logger.Error("获取用户列表失败", zap.Error(err))
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.UsersKey, users, s.cfg.UserTTL); err != nil {
		s.logger.Warn("写入缓存失败", zap.String("key", cache.UsersKey), zap.Error(err))
	}
	return users, nil
}

func (s *directoryService) ListStores(ctx context.Context, a *Actor) ([]model.Store, error) {
	var stores []model.Store
	if s.cacheGet(ctx, cache.StoresKey, &stores) {
		return stores, nil
	}

	stores, err := fetchList[model.Store](ctx, s.api, a, apiclient.ActionGetStores, nil)
	if err != nil {
		s.logger.Error("获取门店列表失败", zap.Error(err))
		return nil, err
	}
	sort.SliceStable(stores, func(i, j int) bool { return stores[i].StoreID < stores[j].StoreID })

	if err := s.cache.Set(ctx, cache.StoresKey, stores, s.cfg.StoresTTL); err != nil {
		s.logger.Warn("写入缓存失败", zap.String("key", cache.StoresKey), zap.Error(err))
	}
	return stores, nil
}

func (s *directoryService) StoresForUser(ctx context.Context, a *Actor) ([]model.Store, error) {
	stores, err := s.ListStores(ctx, a)
	if err != nil {
		return nil, err
	}
	return scopeStores(a.User, stores), nil
}

// scopeStores 按角色过滤门店
func scopeStores(u model.User, stores []model.Store) []model.Store {
	switch {
	case u.HasRole(model.RoleAdmin):
		return stores
	case u.HasRole(model.RoleArea):
		region := u.Region
		if region == "" {
			for _, st := range stores {
				if st.StoreID == u.StoreID {
					region = st.Region
				}
			}
		}
		var out []model.Store
		for _, st := range stores {
			if (region != "" && strings.EqualFold(st.Region, region)) || st.StoreID == u.StoreID {
				out = append(out, st)
			}
		}
		return out
	case u.HasRole(model.RoleManager):
		managed := map[string]bool{u.StoreID: true}
		for _, k := range u.ManagedStores() {
			managed[k] = true
		}
		var out []model.Store
		for _, st := range stores {
			if managed[st.StoreID] || managed[st.StoreName] {
				out = append(out, st)
			}
		}
		return out
	default:
		var out []model.Store
		for _, st := range stores {
			if st.StoreID == u.StoreID || st.StoreName == u.StoreName {
				out = append(out, st)
			}
		}
		return out
	}
}

func (s *directoryService) StoreNames(ctx context.Context, a *Actor) map[string]string {
	names := make(map[string]string)
	stores, err := s.ListStores(ctx, a)
	if err != nil {
		return names
	}
	for _, st := range stores {
		names[st.StoreID] = st.StoreName
	}
	return names
}

func (s *directoryService) EmployeesByStore(ctx context.Context, a *Actor, store string) ([]model.User, error) {
	users, err := s.ListUsers(ctx, a)
	if err != nil {
		return nil, err
	}
	if store == "" {
		return users, nil
	}
	names := s.StoreNames(ctx, a)
	var out []model.User
	for _, u := range users {
		if u.StoreID == store || u.StoreName == store || (names[store] != "" && u.StoreName == names[store]) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *directoryService) ManagedUsers(ctx context.Context, a *Actor) ([]model.User, error) {
	users, err := s.ListUsers(ctx, a)
	if err != nil {
		return nil, err
	}
	if a.User.HasRole(model.RoleAdmin) {
		return users, nil
	}
	stores, err := s.StoresForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	in := make(map[string]bool)
	for _, st := range stores {
		in[st.StoreID], in[st.StoreName] = true, true
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if in[u.StoreID] || in[u.StoreName] || u.EmployeeID == a.User.EmployeeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *directoryService) Invalidate(ctx context.Context, employeeIDs ...string) {
	keys := []string{cache.UsersKey}
	for _, id := range employeeIDs {
		keys = append(keys, cache.UserKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("清除缓存失败", zap.Strings("keys", keys), zap.Error(err))
	}
}
