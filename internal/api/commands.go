// 文件路径: internal/api/commands.go
// 模块说明: 注册全部 IPC 命令。参数与返回值均使用 internal/wire 的 snake_case 结构。
package api

import (
	"context"
	"fmt"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/service"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

// UnsupportedCommands 是已登记但不在本后端实现范围内的命令。
var UnsupportedCommands = []string{
	"arrange_windows_grid",
	"hide_all_windows",
	"show_all_windows",
	"download_kernel",
	"check_app_update",
	"download_app_update",
	"install_app_update",
	"check_kernel_update",
	"download_kernel_update",
}

// RegisterCommands 把全部服务挂到分发表上。
func RegisterCommands(d *Dispatcher, s Services) {
	registerAuthCommands(d, s.Auth, s.License)
	registerProfileCommands(d, s.Profiles)
	registerBrowserCommands(d, s.Browsers)
	registerGroupCommands(d, s.Groups)
	registerTagCommands(d, s.Tags)
	registerProxyCommands(d, s.Proxies)
	registerRecycleBinCommands(d, s.RecycleBin)
	registerExtensionCommands(d, s.Extensions)
	for _, name := range UnsupportedCommands {
		d.Register(name, unsupported(name))
	}
}

func unsupported(name string) CommandFunc {
	return noParams(func(context.Context) (any, error) {
		return nil, fmt.Errorf("%w: %s", service.ErrUnsupported, name)
	})
}

func registerAuthCommands(d *Dispatcher, auth service.AuthService, license service.LicenseService) {
	if auth != nil {
		d.Register("auth_register", handle(func(ctx context.Context, req wire.CredentialsRequest) (any, error) {
			user, err := auth.Register(ctx, service.CredentialsInput{Username: req.Username, Password: req.Password})
			if err != nil {
				return nil, err
			}
			return wire.UserToWire(*user), nil
		}))
		d.Register("auth_login", handle(func(ctx context.Context, req wire.CredentialsRequest) (any, error) {
			session, err := auth.Login(ctx, service.CredentialsInput{Username: req.Username, Password: req.Password})
			if err != nil {
				return nil, err
			}
			return wire.SessionToWire(*session), nil
		}))
		d.Register("auth_logout", handle(func(ctx context.Context, req wire.TokenRequest) (any, error) {
			return nil, auth.Logout(ctx, tokenFrom(ctx, req.Token))
		}))
		d.Register("auth_check_login", handle(func(ctx context.Context, req wire.TokenRequest) (any, error) {
			return wire.BoolResponse{Value: auth.CheckLogin(ctx, tokenFrom(ctx, req.Token))}, nil
		}))
		d.Register("auth_get_user", handle(func(ctx context.Context, req wire.TokenRequest) (any, error) {
			user, err := auth.GetUser(ctx, tokenFrom(ctx, req.Token))
			if err != nil {
				return nil, err
			}
			return wire.UserToWire(*user), nil
		}))
		d.Register("auth_refresh_token", handle(func(ctx context.Context, req wire.TokenRequest) (any, error) {
			session, err := auth.Refresh(ctx, req.Token)
			if err != nil {
				return nil, err
			}
			return wire.SessionToWire(*session), nil
		}))
	}
	if license != nil {
		d.Register("license_validate", handle(func(_ context.Context, req wire.LicenseRequest) (any, error) {
			return wire.BoolResponse{Value: license.Validate(req.Key)}, nil
		}))
		d.Register("license_activate", handle(func(ctx context.Context, req wire.LicenseRequest) (any, error) {
			lic, err := license.Activate(ctx, req.Key)
			if err != nil {
				return nil, err
			}
			return wire.LicenseToWire(*lic), nil
		}))
	}
}

func registerProfileCommands(d *Dispatcher, profiles service.ProfileService) {
	if profiles == nil {
		return
	}
	d.Register("get_profiles", handle(func(ctx context.Context, q wire.ProfileQuery) (any, error) {
		filter, err := profileFilter(q)
		if err != nil {
			return nil, err
		}
		list, err := profiles.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.ProfileToWire), nil
	}))
	d.Register("get_profile", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		p, err := profiles.Get(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return wire.ProfileToWire(*p), nil
	}))
	d.Register("create_profile", handle(func(ctx context.Context, req wire.CreateProfileRequest) (any, error) {
		p, err := profiles.Create(ctx, wire.CreateInputFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.ProfileToWire(*p), nil
	}))
	d.Register("update_profile", handle(func(ctx context.Context, req wire.UpdateProfileRequest) (any, error) {
		id, input := wire.UpdateInputFromWire(req)
		p, err := profiles.Update(ctx, id, input)
		if err != nil {
			return nil, err
		}
		return wire.ProfileToWire(*p), nil
	}))
	d.Register("delete_profile", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, profiles.Delete(ctx, req.ID)
	}))
	d.Register("batch_delete_profiles", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(profiles.BatchDelete(ctx, req.IDs)), nil
	}))
	d.Register("batch_move_to_group", handle(func(ctx context.Context, req wire.MoveToGroupRequest) (any, error) {
		return wire.BatchToWire(profiles.MoveToGroup(ctx, req.IDs, req.Group)), nil
	}))
	d.Register("batch_duplicate_profiles", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(profiles.BatchDuplicate(ctx, req.IDs)), nil
	}))
}

func registerBrowserCommands(d *Dispatcher, browsers service.BrowserService) {
	if browsers == nil {
		return
	}
	d.Register("launch_browser", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		p, err := browsers.Launch(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return wire.ProfileToWire(*p), nil
	}))
	d.Register("stop_browser", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, browsers.Stop(ctx, req.ID)
	}))
	d.Register("batch_launch_browsers", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(browsers.BatchLaunch(ctx, req.IDs)), nil
	}))
	d.Register("batch_stop_browsers", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(browsers.BatchStop(ctx, req.IDs)), nil
	}))
	d.Register("is_kernel_installed", noParams(func(context.Context) (any, error) {
		return wire.BoolResponse{Value: browsers.KernelInstalled()}, nil
	}))
	d.Register("get_kernel_version", noParams(func(ctx context.Context) (any, error) {
		v, err := browsers.KernelVersion(ctx)
		if err != nil {
			return nil, err
		}
		return wire.StringResponse{Value: v}, nil
	}))
	d.Register("uninstall_kernel", noParams(func(ctx context.Context) (any, error) {
		return nil, browsers.UninstallKernel(ctx)
	}))
}

func registerGroupCommands(d *Dispatcher, groups service.GroupService) {
	if groups == nil {
		return
	}
	d.Register("get_groups", noParams(func(ctx context.Context) (any, error) {
		list, err := groups.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.GroupToWire), nil
	}))
	d.Register("create_group", handle(func(ctx context.Context, req wire.CreateGroupRequest) (any, error) {
		g, err := groups.Create(ctx, wire.CreateGroupFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.GroupToWire(*g), nil
	}))
	d.Register("update_group", handle(func(ctx context.Context, req wire.UpdateGroupRequest) (any, error) {
		id, input := wire.UpdateGroupFromWire(req)
		g, err := groups.Update(ctx, id, input)
		if err != nil {
			return nil, err
		}
		return wire.GroupToWire(*g), nil
	}))
	d.Register("delete_group", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, groups.Delete(ctx, req.ID)
	}))
}

func registerTagCommands(d *Dispatcher, tags service.TagService) {
	if tags == nil {
		return
	}
	d.Register("get_tags", noParams(func(ctx context.Context) (any, error) {
		list, err := tags.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.TagToWire), nil
	}))
	d.Register("create_tag", handle(func(ctx context.Context, req wire.CreateTagRequest) (any, error) {
		t, err := tags.Create(ctx, wire.CreateTagFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.TagToWire(*t), nil
	}))
	d.Register("update_tag", handle(func(ctx context.Context, req wire.UpdateTagRequest) (any, error) {
		id, input := wire.UpdateTagFromWire(req)
		t, err := tags.Update(ctx, id, input)
		if err != nil {
			return nil, err
		}
		return wire.TagToWire(*t), nil
	}))
	d.Register("delete_tag", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, tags.Delete(ctx, req.ID)
	}))
	d.Register("get_profile_tags", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		list, err := tags.ForProfile(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.TagToWire), nil
	}))
	d.Register("set_profile_tags", handle(func(ctx context.Context, req wire.ProfileTagsRequest) (any, error) {
		return nil, tags.SetForProfile(ctx, req.ProfileID, req.TagIDs)
	}))
}

func registerProxyCommands(d *Dispatcher, proxies service.ProxyService) {
	if proxies == nil {
		return
	}
	d.Register("get_proxies", noParams(func(ctx context.Context) (any, error) {
		list, err := proxies.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.ProxyToWire), nil
	}))
	d.Register("create_proxy", handle(func(ctx context.Context, req wire.CreateProxyRequest) (any, error) {
		p, err := proxies.Create(ctx, wire.CreateProxyFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.ProxyToWire(*p), nil
	}))
	d.Register("update_proxy", handle(func(ctx context.Context, req wire.UpdateProxyRequest) (any, error) {
		id, input := wire.UpdateProxyFromWire(req)
		p, err := proxies.Update(ctx, id, input)
		if err != nil {
			return nil, err
		}
		return wire.ProxyToWire(*p), nil
	}))
	d.Register("delete_proxy", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, proxies.Delete(ctx, req.ID)
	}))
	d.Register("test_proxy", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		result, err := proxies.Test(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return wire.CheckResultToWire(result), nil
	}))
	d.Register("test_proxy_config", handle(func(ctx context.Context, req wire.ProxyTestConfigRequest) (any, error) {
		result, err := proxies.TestConfig(ctx, wire.ProxyTestConfigFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.CheckResultToWire(result), nil
	}))
	d.Register("batch_test_proxies", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return mapSlice(proxies.BatchTest(ctx, req.IDs), wire.CheckResultToWire), nil
	}))
	d.Register("test_all_proxies", noParams(func(ctx context.Context) (any, error) {
		results, err := proxies.TestAll(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(results, wire.CheckResultToWire), nil
	}))
	d.Register("set_proxy_auto_check", handle(func(ctx context.Context, req wire.AutoCheckRequest) (any, error) {
		return nil, proxies.SetAutoCheck(ctx, req.ID, req.Enabled)
	}))
}

func registerRecycleBinCommands(d *Dispatcher, bin service.RecycleBinService) {
	if bin == nil {
		return
	}
	d.Register("get_recycle_bin", noParams(func(ctx context.Context) (any, error) {
		list, err := bin.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.RecycledToWire), nil
	}))
	d.Register("restore_profile", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, bin.Restore(ctx, req.ID)
	}))
	d.Register("batch_restore_profiles", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(bin.BatchRestore(ctx, req.IDs)), nil
	}))
	d.Register("permanently_delete_profile", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, bin.PermanentlyDelete(ctx, req.ID)
	}))
	d.Register("batch_permanently_delete_profiles", handle(func(ctx context.Context, req wire.IDsRequest) (any, error) {
		return wire.BatchToWire(bin.BatchPermanentlyDelete(ctx, req.IDs)), nil
	}))
	d.Register("empty_recycle_bin", noParams(func(ctx context.Context) (any, error) {
		n, err := bin.Empty(ctx)
		if err != nil {
			return nil, err
		}
		return wire.CountResponse{Count: n}, nil
	}))
}

func registerExtensionCommands(d *Dispatcher, extensions service.ExtensionService) {
	if extensions == nil {
		return
	}
	d.Register("get_extensions", noParams(func(ctx context.Context) (any, error) {
		list, err := extensions.List(ctx)
		if err != nil {
			return nil, err
		}
		return mapSlice(list, wire.ExtensionToWire), nil
	}))
	d.Register("create_extension", handle(func(ctx context.Context, req wire.CreateExtensionRequest) (any, error) {
		e, err := extensions.Create(ctx, wire.CreateExtensionFromWire(req))
		if err != nil {
			return nil, err
		}
		return wire.ExtensionToWire(*e), nil
	}))
	d.Register("update_extension", handle(func(ctx context.Context, req wire.UpdateExtensionRequest) (any, error) {
		id, input := wire.UpdateExtensionFromWire(req)
		e, err := extensions.Update(ctx, id, input)
		if err != nil {
			return nil, err
		}
		return wire.ExtensionToWire(*e), nil
	}))
	d.Register("delete_extension", handle(func(ctx context.Context, req wire.IDRequest) (any, error) {
		return nil, extensions.Delete(ctx, req.ID)
	}))
}

// profileFilter 把查询参数转换为仓储过滤条件，未知状态视为参数错误。
func profileFilter(q wire.ProfileQuery) (repository.ProfileListFilter, error) {
	filter := repository.ProfileListFilter{Group: q.Group, Keyword: q.Keyword, Limit: q.Limit, Offset: q.Offset}
	for _, raw := range q.Status {
		status := domain.ProfileStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("%w: unknown status %q", service.ErrInvalidInput, raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
