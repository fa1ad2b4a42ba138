package importing_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	app "github.com/mohammadpnp/asset-import/internal/application/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
)

type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]domain.ImportJob
	running   []uuid.UUID
	completed map[uuid.UUID]domain.OutcomeReport
	failed    map[uuid.UUID]string
	createErr error
}

func newFakeJobRepo(jobs ...domain.ImportJob) *fakeJobRepo {
	repo := &fakeJobRepo{
		jobs:      map[uuid.UUID]domain.ImportJob{},
		completed: map[uuid.UUID]domain.OutcomeReport{},
		failed:    map[uuid.UUID]string{},
	}
	for _, job := range jobs {
		repo.jobs[job.ID] = job
	}
	return repo
}

func (f *fakeJobRepo) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.ImportJob{}, f.createErr
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobRepo) Get(ctx context.Context, jobID uuid.UUID) (domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ImportJob{}, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.StatusPending {
		return domain.ErrJobNotPending
	}
	job.Status = domain.StatusRunning
	f.jobs[jobID] = job
	f.running = append(f.running, jobID)
	return nil
}

func (f *fakeJobRepo) Complete(ctx context.Context, jobID uuid.UUID, report domain.OutcomeReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	job.Status = domain.StatusCompleted
	job.Result = &report
	f.jobs[jobID] = job
	f.completed[jobID] = report
	return nil
}

func (f *fakeJobRepo) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	job.Status = domain.StatusFailed
	job.Error = reason
	f.jobs[jobID] = job
	f.failed[jobID] = reason
	return nil
}

func (f *fakeJobRepo) status(jobID uuid.UUID) domain.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[jobID].Status
}

type fakeReader struct {
	tables map[string]domain.Table
	calls  int
}

func (f *fakeReader) Read(ctx context.Context, path string) (domain.Table, error) {
	f.calls++
	table, ok := f.tables[path]
	if !ok {
		return domain.Table{}, domain.ErrFileNotFound
	}
	return table, nil
}

type fakeCatalog struct {
	statuses  []asset.Status
	types     []asset.Type
	roles     []user.Role
	fields    []asset.FieldDefinition
	sets      map[uuid.UUID]asset.Set
	takenName map[string]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		statuses: []asset.Status{
			{ID: uuid.New(), Name: "active", IsDefault: true},
			{ID: uuid.New(), Name: "in_stock"},
			{ID: uuid.New(), Name: "broken"},
		},
		types: []asset.Type{{ID: uuid.New(), Name: "Laptop"}},
		roles: []user.Role{{Name: "user"}, {Name: "admin"}},
		sets:  map[uuid.UUID]asset.Set{},
	}
}

func (f *fakeCatalog) Statuses(ctx context.Context) ([]asset.Status, error) { return f.statuses, nil }

func (f *fakeCatalog) Types(ctx context.Context) ([]asset.Type, error) { return f.types, nil }

func (f *fakeCatalog) Roles(ctx context.Context) ([]user.Role, error) { return f.roles, nil }

func (f *fakeCatalog) FieldDefinitions(ctx context.Context, target asset.FieldTarget, setID *uuid.UUID) ([]asset.FieldDefinition, error) {
	out := make([]asset.FieldDefinition, 0)
	for _, def := range f.fields {
		if def.Target != target {
			continue
		}
		if def.AssetSetID == nil || (setID != nil && *def.AssetSetID == *setID) {
			out = append(out, def)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetSet(ctx context.Context, id uuid.UUID) (asset.Set, error) {
	set, ok := f.sets[id]
	if !ok {
		return asset.Set{}, domain.ErrGroupNotFound
	}
	return set, nil
}

func (f *fakeCatalog) SetNameExists(ctx context.Context, name string) (bool, error) {
	return f.takenName[name], nil
}

func (f *fakeCatalog) status(name string) uuid.UUID {
	for _, s := range f.statuses {
		if s.Name == name {
			return s.ID
		}
	}
	return uuid.Nil
}

type fakeDirectory struct {
	users []user.User
}

func (f *fakeDirectory) Entries(ctx context.Context) ([]domain.DirectoryEntry, error) {
	out := make([]domain.DirectoryEntry, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, domain.DirectoryEntry{ID: u.ID, Email: u.Email})
	}
	return out, nil
}

func (f *fakeDirectory) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeDirectory) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeDirectory) add(email string) user.User {
	u, err := user.NewUser(uuid.New(), email)
	if err != nil {
		panic(err)
	}
	f.users = append(f.users, u)
	return u
}

type fakeAssetWriter struct {
	batches []domain.AssetBatch
	err     error
}

func (f *fakeAssetWriter) CommitAssets(ctx context.Context, batch domain.AssetBatch) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

type fakeUserWriter struct {
	batches []domain.UserBatch
}

func (f *fakeUserWriter) CommitUsers(ctx context.Context, batch domain.UserBatch) error {
	f.batches = append(f.batches, batch)
	return nil
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

type fakeCompleterSource struct {
	completer *fakeCompleter
}

func (f fakeCompleterSource) Completer(ctx context.Context) (domain.Completer, bool) {
	if f.completer == nil {
		return nil, false
	}
	return f.completer, true
}

type memoryCache struct {
	values map[string]string
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

type fakeUploadStore struct {
	saved   []string
	removed []string
	err     error
	body    string
}

func (f *fakeUploadStore) Save(ctx context.Context, body io.Reader, ext string, maxBytes int64) (string, int64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", 0, err
	}
	if int64(len(data)) > maxBytes {
		return "", 0, domain.ErrUploadTooLarge
	}
	f.body = string(data)
	path := "uploads/" + uuid.NewString() + ext
	f.saved = append(f.saved, path)
	return path, int64(len(data)), nil
}

func (f *fakeUploadStore) Remove(ctx context.Context, path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f fakeSettings) Values(ctx context.Context, keys ...string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// newTable builds a table from plain Go cells: nil and "" are absent.
func newTable(headers []string, rows ...[]any) domain.Table {
	table := domain.Table{Headers: headers}
	for _, cells := range rows {
		values := make([]attribute.Value, len(headers))
		for i, cell := range cells {
			switch c := cell.(type) {
			case nil:
				values[i] = attribute.Null()
			case string:
				if c == "" {
					values[i] = attribute.Null()
				} else {
					values[i] = attribute.String(c)
				}
			case int:
				values[i] = attribute.Number(float64(c))
			case float64:
				values[i] = attribute.Number(c)
			case bool:
				values[i] = attribute.Bool(c)
			}
		}
		table.Rows = append(table.Rows, domain.NewRow(headers, values))
	}
	return table
}

type harness struct {
	jobs      *fakeJobRepo
	reader    *fakeReader
	catalog   *fakeCatalog
	directory *fakeDirectory
	assets    *fakeAssetWriter
	users     *fakeUserWriter
	job       domain.ImportJob
}

func newHarness(t *testing.T, kind domain.JobKind, table domain.Table) *harness {
	t.Helper()

	job := domain.ImportJob{
		ID:      uuid.New(),
		Kind:    kind,
		Status:  domain.StatusPending,
		Payload: domain.JobPayload{FilePath: "uploads/input.csv", Filename: "input.csv"},
	}
	return &harness{
		jobs:      newFakeJobRepo(job),
		reader:    &fakeReader{tables: map[string]domain.Table{job.Payload.FilePath: table}},
		catalog:   newFakeCatalog(),
		directory: &fakeDirectory{},
		assets:    &fakeAssetWriter{},
		users:     &fakeUserWriter{},
		job:       job,
	}
}

func (h *harness) executor() app.ExecuteImport {
	return app.NewExecuteImport(app.ExecutorDeps{
		Jobs:      h.jobs,
		Reader:    h.reader,
		Catalog:   h.catalog,
		Directory: h.directory,
		Assets:    h.assets,
		Users:     h.users,
	}, app.ExecutorConfig{DefaultStatus: "active", BcryptCost: bcrypt.MinCost})
}

func (h *harness) execute(t *testing.T, strategy domain.Strategy, opts domain.ExecuteOptions) (domain.OutcomeReport, error) {
	t.Helper()
	return h.executor().Execute(context.Background(), app.ExecuteImportInput{
		JobID:    h.job.ID,
		Strategy: strategy,
		Options:  opts,
	})
}

var errBoom = errors.New("boom")
