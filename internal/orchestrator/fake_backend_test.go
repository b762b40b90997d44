package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/wire"
)

var errBoom = errors.New("boom")

// fakeBackend 是内存版的后端命令面，记录每个命令的调用次数与参数。
type fakeBackend struct {
	mu       sync.Mutex
	seq      int
	profiles []domain.Profile
	bin      []domain.RecycledProfile
	groups   []domain.Group
	tags     []domain.Tag
	proxies  []domain.Proxy
	calls    map[string]int
	fail     map[string]error
	failIDs  map[string]bool
	results  map[string]domain.ProxyCheckResult

	lastCreate domain.CreateProfileInput
	lastUpdate domain.UpdateProfileInput
	lastBatch  []string

	// launchHook 在 LaunchBrowser 内、返回之前调用。
	launchHook func(id string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:   make(map[string]int),
		fail:    make(map[string]error),
		failIDs: make(map[string]bool),
		results: make(map[string]domain.ProxyCheckResult),
		groups:  []domain.Group{{ID: domain.DefaultGroupID, Name: "默认分组"}},
	}
}

func (f *fakeBackend) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[command]
}

func (f *fakeBackend) enter(command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[command]++
	return f.fail[command]
}

func (f *fakeBackend) seed(p domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Group == "" {
		p.Group = domain.DefaultGroupID
	}
	if p.Status == "" {
		p.Status = domain.StatusStopped
	}
	if p.Fingerprint.Platform == "" {
		p.Fingerprint = domain.DefaultFingerprint()
	}
	f.profiles = append([]domain.Profile{p}, f.profiles...)
}

func (f *fakeBackend) find(id string) int {
	return slices.IndexFunc(f.profiles, func(p domain.Profile) bool { return p.ID == id })
}

func (f *fakeBackend) status(id string) domain.ProfileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(id); i >= 0 {
		return f.profiles[i].Status
	}
	return ""
}

func (f *fakeBackend) GetProfiles(_ context.Context, _ wire.ProfileQuery) ([]domain.Profile, error) {
	if err := f.enter("get_profiles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (f *fakeBackend) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	if err := f.enter("get_profile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(id); i >= 0 {
		p := f.profiles[i].Clone()
		return &p, nil
	}
	return nil, ErrProfileNotFound
}

func (f *fakeBackend) CreateProfile(_ context.Context, input domain.CreateProfileInput) (*domain.Profile, error) {
	if err := f.enter("create_profile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.seq++
	f.lastCreate = input
	id := fmt.Sprintf("p%d", f.seq)
	f.mu.Unlock()

	fp := domain.DefaultFingerprint()
	if input.Fingerprint != nil {
		base, _ := fp.ToMap()
		maps.Copy(base, input.Fingerprint)
		fp, _ = domain.FingerprintFromMap(base)
	}
	f.seed(domain.Profile{ID: id, Name: input.Name, Group: input.Group, Fingerprint: fp, Proxy: input.Proxy, Remark: input.Remark, CreatedAt: time.Now()})
	return f.GetProfile(context.Background(), id)
}

func (f *fakeBackend) UpdateProfile(_ context.Context, id string, input domain.UpdateProfileInput) (*domain.Profile, error) {
	if err := f.enter("update_profile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastUpdate = input
	i := f.find(id)
	if i < 0 {
		f.mu.Unlock()
		return nil, ErrProfileNotFound
	}
	p := &f.profiles[i]
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Remark != nil {
		p.Remark = *input.Remark
	}
	if input.Fingerprint != nil {
		base, _ := p.Fingerprint.ToMap()
		maps.Copy(base, input.Fingerprint)
		p.Fingerprint, _ = domain.FingerprintFromMap(base)
	}
	out := p.Clone()
	f.mu.Unlock()
	return &out, nil
}

func (f *fakeBackend) DeleteProfile(_ context.Context, id string) error {
	if err := f.enter("delete_profile"); err != nil {
		return err
	}
	return f.softDelete(id)
}

func (f *fakeBackend) softDelete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 || f.failIDs[id] {
		return ErrProfileNotFound
	}
	f.bin = append(f.bin, domain.RecycledProfile{Profile: f.profiles[i].Clone(), DeletedAt: time.Now()})
	f.profiles = slices.Delete(f.profiles, i, i+1)
	return nil
}

func (f *fakeBackend) each(ids []string, fn func(string) error) domain.BatchResult {
	f.mu.Lock()
	f.lastBatch = slices.Clone(ids)
	f.mu.Unlock()
	items := make([]domain.BatchItem, 0, len(ids))
	for _, id := range ids {
		if err := fn(id); err != nil {
			items = append(items, domain.Fail(id, err))
			continue
		}
		items = append(items, domain.Succeed(id))
	}
	return domain.NewBatchResult(items)
}

func (f *fakeBackend) BatchDeleteProfiles(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_delete_profiles"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, f.softDelete), nil
}

func (f *fakeBackend) BatchMoveToGroup(_ context.Context, ids []string, group string) (domain.BatchResult, error) {
	if err := f.enter("batch_move_to_group"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, func(id string) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		i := f.find(id)
		if i < 0 || f.failIDs[id] {
			return ErrProfileNotFound
		}
		f.profiles[i].Group = group
		return nil
	}), nil
}

func (f *fakeBackend) BatchDuplicateProfiles(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_duplicate_profiles"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, func(id string) error {
		f.mu.Lock()
		i := f.find(id)
		if i < 0 || f.failIDs[id] {
			f.mu.Unlock()
			return ErrProfileNotFound
		}
		dup := f.profiles[i].Clone()
		f.seq++
		dup.ID = fmt.Sprintf("p%d", f.seq)
		dup.Name += " (copy)"
		dup.Status = domain.StatusStopped
		f.mu.Unlock()
		f.seed(dup)
		return nil
	}), nil
}

func (f *fakeBackend) setStatus(id string, status domain.ProfileStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 || f.failIDs[id] {
		return errBoom
	}
	f.profiles[i].Status = status
	return nil
}

func (f *fakeBackend) LaunchBrowser(_ context.Context, id string) (*domain.Profile, error) {
	if err := f.enter("launch_browser"); err != nil {
		return nil, err
	}
	if f.launchHook != nil {
		f.launchHook(id)
	}
	if err := f.setStatus(id, domain.StatusRunning); err != nil {
		return nil, err
	}
	return f.GetProfile(context.Background(), id)
}

func (f *fakeBackend) StopBrowser(_ context.Context, id string) error {
	if err := f.enter("stop_browser"); err != nil {
		return err
	}
	return f.setStatus(id, domain.StatusStopped)
}

func (f *fakeBackend) BatchLaunchBrowsers(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_launch_browsers"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, func(id string) error { return f.setStatus(id, domain.StatusRunning) }), nil
}

func (f *fakeBackend) BatchStopBrowsers(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_stop_browsers"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, func(id string) error { return f.setStatus(id, domain.StatusStopped) }), nil
}

func (f *fakeBackend) GetRecycleBin(context.Context) ([]domain.RecycledProfile, error) {
	if err := f.enter("get_recycle_bin"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.bin), nil
}

func (f *fakeBackend) restore(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.bin, func(r domain.RecycledProfile) bool { return r.ID == id })
	if i < 0 || f.failIDs[id] {
		return errBoom
	}
	f.profiles = append([]domain.Profile{f.bin[i].Profile}, f.profiles...)
	f.bin = slices.Delete(f.bin, i, i+1)
	return nil
}

func (f *fakeBackend) purge(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.bin, func(r domain.RecycledProfile) bool { return r.ID == id })
	if i < 0 || f.failIDs[id] {
		return errBoom
	}
	f.bin = slices.Delete(f.bin, i, i+1)
	return nil
}

func (f *fakeBackend) RestoreProfile(_ context.Context, id string) error {
	if err := f.enter("restore_profile"); err != nil {
		return err
	}
	return f.restore(id)
}

func (f *fakeBackend) BatchRestoreProfiles(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_restore_profiles"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, f.restore), nil
}

func (f *fakeBackend) PermanentlyDeleteProfile(_ context.Context, id string) error {
	if err := f.enter("permanently_delete_profile"); err != nil {
		return err
	}
	return f.purge(id)
}

func (f *fakeBackend) BatchPermanentlyDeleteProfiles(_ context.Context, ids []string) (domain.BatchResult, error) {
	if err := f.enter("batch_permanently_delete_profiles"); err != nil {
		return domain.BatchResult{}, err
	}
	return f.each(ids, f.purge), nil
}

func (f *fakeBackend) EmptyRecycleBin(context.Context) (int64, error) {
	if err := f.enter("empty_recycle_bin"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.bin))
	f.bin = nil
	return n, nil
}

func (f *fakeBackend) GetProxies(context.Context) ([]domain.Proxy, error) {
	if err := f.enter("get_proxies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.proxies), nil
}

func (f *fakeBackend) CreateProxy(_ context.Context, input domain.CreateProxyInput) (*domain.Proxy, error) {
	if err := f.enter("create_proxy"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := domain.Proxy{ID: fmt.Sprintf("x%d", f.seq), Name: input.Name, Type: input.Type, Host: input.Host, Port: input.Port, Status: domain.ProxyPending}
	f.proxies = append(f.proxies, p)
	return &p, nil
}

func (f *fakeBackend) UpdateProxy(_ context.Context, id string, input domain.UpdateProxyInput) (*domain.Proxy, error) {
	if err := f.enter("update_proxy"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.proxies, func(p domain.Proxy) bool { return p.ID == id })
	if i < 0 {
		return nil, errBoom
	}
	if input.Name != nil {
		f.proxies[i].Name = *input.Name
	}
	p := f.proxies[i]
	return &p, nil
}

func (f *fakeBackend) DeleteProxy(_ context.Context, id string) error {
	if err := f.enter("delete_proxy"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proxies = slices.DeleteFunc(f.proxies, func(p domain.Proxy) bool { return p.ID == id })
	return nil
}

func (f *fakeBackend) check(id string) domain.ProxyCheckResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.results[id]; ok {
		r.ProxyID = id
		return r
	}
	return domain.ProxyCheckResult{ProxyID: id, Error: "timeout"}
}

func (f *fakeBackend) TestProxy(_ context.Context, id string) (domain.ProxyCheckResult, error) {
	if err := f.enter("test_proxy"); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	return f.check(id), nil
}

func (f *fakeBackend) TestProxyConfig(_ context.Context, cfg domain.ProxyTestConfig) (domain.ProxyCheckResult, error) {
	if err := f.enter("test_proxy_config"); err != nil {
		return domain.ProxyCheckResult{}, err
	}
	return domain.ProxyCheckResult{Success: true, IP: cfg.Host}, nil
}

func (f *fakeBackend) BatchTestProxies(_ context.Context, ids []string) ([]domain.ProxyCheckResult, error) {
	if err := f.enter("batch_test_proxies"); err != nil {
		return nil, err
	}
	out := make([]domain.ProxyCheckResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.check(id))
	}
	return out, nil
}

func (f *fakeBackend) TestAllProxies(ctx context.Context) ([]domain.ProxyCheckResult, error) {
	if err := f.enter("test_all_proxies"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	ids := make([]string, 0, len(f.proxies))
	for _, p := range f.proxies {
		ids = append(ids, p.ID)
	}
	f.mu.Unlock()
	out := make([]domain.ProxyCheckResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.check(id))
	}
	return out, nil
}

func (f *fakeBackend) SetProxyAutoCheck(_ context.Context, id string, enabled bool) error {
	return f.enter("set_proxy_auto_check")
}

func (f *fakeBackend) GetGroups(context.Context) ([]domain.Group, error) {
	if err := f.enter("get_groups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.groups), nil
}

func (f *fakeBackend) CreateGroup(_ context.Context, input domain.CreateGroupInput) (*domain.Group, error) {
	if err := f.enter("create_group"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	g := domain.Group{ID: fmt.Sprintf("g%d", f.seq), Name: input.Name, Permission: domain.PermissionEditable}
	f.groups = append(f.groups, g)
	return &g, nil
}

func (f *fakeBackend) UpdateGroup(_ context.Context, id string, input domain.UpdateGroupInput) (*domain.Group, error) {
	if err := f.enter("update_group"); err != nil {
		return nil, err
	}
	g := domain.Group{ID: id}
	if input.Name != nil {
		g.Name = *input.Name
	}
	return &g, nil
}

func (f *fakeBackend) DeleteGroup(_ context.Context, id string) error {
	return f.enter("delete_group")
}

func (f *fakeBackend) GetTags(context.Context) ([]domain.Tag, error) {
	if err := f.enter("get_tags"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tags), nil
}

func (f *fakeBackend) CreateTag(_ context.Context, input domain.CreateTagInput) (*domain.Tag, error) {
	if err := f.enter("create_tag"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := domain.Tag{ID: fmt.Sprintf("t%d", f.seq), Name: input.Name}
	f.tags = append(f.tags, t)
	return &t, nil
}

func (f *fakeBackend) UpdateTag(_ context.Context, id string, input domain.UpdateTagInput) (*domain.Tag, error) {
	if err := f.enter("update_tag"); err != nil {
		return nil, err
	}
	t := domain.Tag{ID: id}
	if input.Name != nil {
		t.Name = *input.Name
	}
	return &t, nil
}

func (f *fakeBackend) DeleteTag(_ context.Context, id string) error {
	return f.enter("delete_tag")
}

func (f *fakeBackend) GetProfileTags(context.Context, string) ([]domain.Tag, error) {
	return nil, f.enter("get_profile_tags")
}

func (f *fakeBackend) SetProfileTags(context.Context, string, []string) error {
	return f.enter("set_profile_tags")
}

var _ Backend = (*fakeBackend)(nil)
