package job

import (
	"log/slog"

	"github.com/creamcroissant/fpbrowser/internal/config"
)

// Services 汇总默认任务依赖的服务。
type Services struct {
	Proxies  ProxyAutoChecker
	Bin      ExpiredPurger
	Browsers Reaper
}

// RegisterDefaults 按配置注册内置任务，spec 为空的任务跳过。
func RegisterDefaults(s *Scheduler, cfg config.Config, svc Services, logger *slog.Logger) error {
	type entry struct {
		spec string
		job  Runnable
	}
	entries := []entry{
		{cfg.Browser.ReaperSpec, NewBrowserReaperJob(svc.Browsers, logger)},
		{cfg.ProxyCheck.AutoCheckSpec, NewProxyAutoCheckJob(svc.Proxies, logger)},
		{cfg.RecycleBin.PurgeSpec, NewRecycleBinPurgeJob(svc.Bin, cfg.RecycleBin.RetentionDays, logger)},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := s.Register(e.spec, e.job); err != nil {
			return err
		}
	}
	return nil
}
