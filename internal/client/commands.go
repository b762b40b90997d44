// 文件路径: internal/client/commands.go
// 模块说明: 每个 IPC 命令的类型化封装，负责 wire 结构与内存模型之间的转换。
package client

import (
	"context"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

func (c *Client) profile(ctx context.Context, command string, params any) (*domain.Profile, error) {
	var dto wire.ProfileDTO
	if err := c.Invoke(ctx, command, params, &dto); err != nil {
		return nil, err
	}
	p, err := wire.ProfileFromWire(dto)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) batch(ctx context.Context, command string, params any) (domain.BatchResult, error) {
	var dto wire.BatchResultDTO
	if err := c.Invoke(ctx, command, params, &dto); err != nil {
		return domain.BatchResult{}, err
	}
	return wire.BatchFromWire(dto), nil
}

func decodeList[T, U any](ctx context.Context, c *Client, command string, params any, fn func(T) U) ([]U, error) {
	var dtos []T
	if err := c.Invoke(ctx, command, params, &dtos); err != nil {
		return nil, err
	}
	out := make([]U, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, fn(dto))
	}
	return out, nil
}

// ---- profiles ----

func (c *Client) GetProfiles(ctx context.Context, q wire.ProfileQuery) ([]domain.Profile, error) {
	var dtos []wire.ProfileDTO
	if err := c.Invoke(ctx, "get_profiles", q, &dtos); err != nil {
		return nil, err
	}
	return wire.ProfilesFromWire(dtos)
}

func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return c.profile(ctx, "get_profile", wire.IDRequest{ID: id})
}

func (c *Client) CreateProfile(ctx context.Context, input domain.CreateProfileInput) (*domain.Profile, error) {
	return c.profile(ctx, "create_profile", wire.CreateInputToWire(input))
}

func (c *Client) UpdateProfile(ctx context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error) {
	return c.profile(ctx, "update_profile", wire.UpdateInputToWire(id, input))
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.Invoke(ctx, "delete_profile", wire.IDRequest{ID: id}, nil)
}

func (c *Client) BatchDeleteProfiles(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_delete_profiles", wire.IDsRequest{IDs: ids})
}

func (c *Client) BatchMoveToGroup(ctx context.Context, ids []string, group string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_move_to_group", wire.MoveToGroupRequest{IDs: ids, Group: group})
}

func (c *Client) BatchDuplicateProfiles(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_duplicate_profiles", wire.IDsRequest{IDs: ids})
}

// ---- browser ----

func (c *Client) LaunchBrowser(ctx context.Context, id string) (*domain.Profile, error) {
	return c.profile(ctx, "launch_browser", wire.IDRequest{ID: id})
}

func (c *Client) StopBrowser(ctx context.Context, id string) error {
	return c.Invoke(ctx, "stop_browser", wire.IDRequest{ID: id}, nil)
}

func (c *Client) BatchLaunchBrowsers(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_launch_browsers", wire.IDsRequest{IDs: ids})
}

func (c *Client) BatchStopBrowsers(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_stop_browsers", wire.IDsRequest{IDs: ids})
}

func (c *Client) IsKernelInstalled(ctx context.Context) (bool, error) {
	var resp wire.BoolResponse
	err := c.Invoke(ctx, "is_kernel_installed", nil, &resp)
	return resp.Value, err
}

func (c *Client) KernelVersion(ctx context.Context) (string, error) {
	var resp wire.StringResponse
	err := c.Invoke(ctx, "get_kernel_version", nil, &resp)
	return resp.Value, err
}

func (c *Client) UninstallKernel(ctx context.Context) error {
	return c.Invoke(ctx, "uninstall_kernel", nil, nil)
}

// ---- groups & tags ----

func (c *Client) GetGroups(ctx context.Context) ([]domain.Group, error) {
	return decodeList(ctx, c, "get_groups", nil, wire.GroupFromWire)
}

func (c *Client) CreateGroup(ctx context.Context, input domain.CreateGroupInput) (*domain.Group, error) {
	var dto wire.GroupDTO
	if err := c.Invoke(ctx, "create_group", wire.CreateGroupToWire(input), &dto); err != nil {
		return nil, err
	}
	g := wire.GroupFromWire(dto)
	return &g, nil
}

func (c *Client) UpdateGroup(ctx context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error) {
	var dto wire.GroupDTO
	if err := c.Invoke(ctx, "update_group", wire.UpdateGroupToWire(id, input), &dto); err != nil {
		return nil, err
	}
	g := wire.GroupFromWire(dto)
	return &g, nil
}

func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.Invoke(ctx, "delete_group", wire.IDRequest{ID: id}, nil)
}

func (c *Client) GetTags(ctx context.Context) ([]domain.Tag, error) {
	return decodeList(ctx, c, "get_tags", nil, wire.TagFromWire)
}

func (c *Client) CreateTag(ctx context.Context, input domain.CreateTagInput) (*domain.Tag, error) {
	var dto wire.TagDTO
	if err := c.Invoke(ctx, "create_tag", wire.CreateTagToWire(input), &dto); err != nil {
		return nil, err
	}
	t := wire.TagFromWire(dto)
	return &t, nil
}

func (c *Client) UpdateTag(ctx context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error) {
	var dto wire.TagDTO
	if err := c.Invoke(ctx, "update_tag", wire.UpdateTagToWire(id, input), &dto); err != nil {
		return nil, err
	}
	t := wire.TagFromWire(dto)
	return &t, nil
}

func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.Invoke(ctx, "delete_tag", wire.IDRequest{ID: id}, nil)
}

func (c *Client) GetProfileTags(ctx context.Context, profileID string) ([]domain.Tag, error) {
	return decodeList(ctx, c, "get_profile_tags", wire.IDRequest{ID: profileID}, wire.TagFromWire)
}

func (c *Client) SetProfileTags(ctx context.Context, profileID string, tagIDs []string) error {
	return c.Invoke(ctx, "set_profile_tags", wire.ProfileTagsRequest{ProfileID: profileID, TagIDs: tagIDs}, nil)
}

// ---- proxies ----

func (c *Client) GetProxies(ctx context.Context) ([]domain.Proxy, error) {
	return decodeList(ctx, c, "get_proxies", nil, wire.ProxyFromWire)
}

func (c *Client) CreateProxy(ctx context.Context, input domain.CreateProxyInput) (*domain.Proxy, error) {
	var dto wire.ProxyEntityDTO
	if err := c.Invoke(ctx, "create_proxy", wire.CreateProxyToWire(input), &dto); err != nil {
		return nil, err
	}
	p := wire.ProxyFromWire(dto)
	return &p, nil
}

func (c *Client) UpdateProxy(ctx context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error) {
	var dto wire.ProxyEntityDTO
	if err := c.Invoke(ctx, "update_proxy", wire.UpdateProxyToWire(id, input), &dto); err != nil {
		return nil, err
	}
	p := wire.ProxyFromWire(dto)
	return &p, nil
}

func (c *Client) DeleteProxy(ctx context.Context, id string) error {
	return c.Invoke(ctx, "delete_proxy", wire.IDRequest{ID: id}, nil)
}

func (c *Client) TestProxy(ctx context.Context, id string) (domain.ProxyCheckResult, error) {
	var dto wire.ProxyCheckResultDTO
	if err := c.Invoke(ctx, "test_proxy", wire.IDRequest{ID: id}, &dto); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	return wire.CheckResultFromWire(dto), nil
}

func (c *Client) TestProxyConfig(ctx context.Context, cfg domain.ProxyTestConfig) (domain.ProxyCheckResult, error) {
	var dto wire.ProxyCheckResultDTO
	if err := c.Invoke(ctx, "test_proxy_config", wire.ProxyTestConfigToWire(cfg), &dto); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	return wire.CheckResultFromWire(dto), nil
}

func (c *Client) BatchTestProxies(ctx context.Context, ids []string) ([]domain.ProxyCheckResult, error) {
	return decodeList(ctx, c, "batch_test_proxies", wire.IDsRequest{IDs: ids}, wire.CheckResultFromWire)
}

func (c *Client) TestAllProxies(ctx context.Context) ([]domain.ProxyCheckResult, error) {
	return decodeList(ctx, c, "test_all_proxies", nil, wire.CheckResultFromWire)
}

func (c *Client) SetProxyAutoCheck(ctx context.Context, id string, enabled bool) error {
	return c.Invoke(ctx, "set_proxy_auto_check", wire.AutoCheckRequest{ID: id, Enabled: enabled}, nil)
}

// ---- recycle bin ----

func (c *Client) GetRecycleBin(ctx context.Context) ([]domain.RecycledProfile, error) {
	var dtos []wire.RecycledProfileDTO
	if err := c.Invoke(ctx, "get_recycle_bin", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.RecycledProfile, 0, len(dtos))
	for _, dto := range dtos {
		r, err := wire.RecycledFromWire(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) RestoreProfile(ctx context.Context, id string) error {
	return c.Invoke(ctx, "restore_profile", wire.IDRequest{ID: id}, nil)
}

func (c *Client) BatchRestoreProfiles(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_restore_profiles", wire.IDsRequest{IDs: ids})
}

func (c *Client) PermanentlyDeleteProfile(ctx context.Context, id string) error {
	return c.Invoke(ctx, "permanently_delete_profile", wire.IDRequest{ID: id}, nil)
}

func (c *Client) BatchPermanentlyDeleteProfiles(ctx context.Context, ids []string) (domain.BatchResult, error) {
	return c.batch(ctx, "batch_permanently_delete_profiles", wire.IDsRequest{IDs: ids})
}

func (c *Client) EmptyRecycleBin(ctx context.Context) (int64, error) {
	var resp wire.CountResponse
	err := c.Invoke(ctx, "empty_recycle_bin", nil, &resp)
	return resp.Count, err
}

// ---- extensions ----

func (c *Client) GetExtensions(ctx context.Context) ([]domain.Extension, error) {
	return decodeList(ctx, c, "get_extensions", nil, wire.ExtensionFromWire)
}

func (c *Client) CreateExtension(ctx context.Context, input domain.CreateExtensionInput) (*domain.Extension, error) {
	var dto wire.ExtensionDTO
	if err := c.Invoke(ctx, "create_extension", wire.CreateExtensionToWire(input), &dto); err != nil {
		return nil, err
	}
	e := wire.ExtensionFromWire(dto)
	return &e, nil
}

func (c *Client) UpdateExtension(ctx context.Context, id string, input domain.UpdateExtensionInput) (*domain.Extension, error) {
	var dto wire.ExtensionDTO
	if err := c.Invoke(ctx, "update_extension", wire.UpdateExtensionToWire(id, input), &dto); err != nil {
		return nil, err
	}
	e := wire.ExtensionFromWire(dto)
	return &e, nil
}

func (c *Client) DeleteExtension(ctx context.Context, id string) error {
	return c.Invoke(ctx, "delete_extension", wire.IDRequest{ID: id}, nil)
}

// ---- auth & license ----

// Login 成功后自动保存访问令牌。
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	var dto wire.SessionDTO
	if err := c.Invoke(ctx, "auth_login", wire.CredentialsRequest{Username: username, Password: password}, &dto); err != nil {
		return nil, err
	}
	s := wire.SessionFromWire(dto)
	c.SetToken(s.AccessToken)
	return &s, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*domain.User, error) {
	var dto wire.UserDTO
	if err := c.Invoke(ctx, "auth_register", wire.CredentialsRequest{Username: username, Password: password}, &dto); err != nil {
		return nil, err
	}
	u := wire.UserFromWire(dto)
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.Invoke(ctx, "auth_logout", wire.TokenRequest{}, nil)
	c.SetToken("")
	return err
}

func (c *Client) CheckLogin(ctx context.Context) (bool, error) {
	var resp wire.BoolResponse
	err := c.Invoke(ctx, "auth_check_login", wire.TokenRequest{}, &resp)
	return resp.Value, err
}

func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	var dto wire.UserDTO
	if err := c.Invoke(ctx, "auth_get_user", wire.TokenRequest{}, &dto); err != nil {
		return nil, err
	}
	u := wire.UserFromWire(dto)
	return &u, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var dto wire.SessionDTO
	if err := c.Invoke(ctx, "auth_refresh_token", wire.TokenRequest{Token: refreshToken}, &dto); err != nil {
		return nil, err
	}
	s := wire.SessionFromWire(dto)
	c.SetToken(s.AccessToken)
	return &s, nil
}

func (c *Client) ValidateLicense(ctx context.Context, key string) (bool, error) {
	var resp wire.BoolResponse
	err := c.Invoke(ctx, "license_validate", wire.LicenseRequest{Key: key}, &resp)
	return resp.Value, err
}

func (c *Client) ActivateLicense(ctx context.Context, key string) (*domain.License, error) {
	var dto wire.LicenseDTO
	if err := c.Invoke(ctx, "license_activate", wire.LicenseRequest{Key: key}, &dto); err != nil {
		return nil, err
	}
	l := wire.LicenseFromWire(dto)
	return &l, nil
}
