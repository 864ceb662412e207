package tileui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrApplicationExists is returned when registering a second application
// type under the same name.
var ErrApplicationExists = errors.New("tileui: application type already registered")

// Generator builds the root of one application instance. The returned root
// is positioned by the caller and must not be created yet.
type Generator func(name string, x, y int, observers []int) (*Root, error)

// InstanceRecord is the persisted form of one public instance.
type InstanceRecord struct {
	Index int
	X, Y  int
}

// Saver persists the public instances of each application type.
type Saver interface {
	SaveInstances(ctx context.Context, worldID, appType string, records []InstanceRecord) error
	LoadInstances(ctx context.Context, worldID, appType string) ([]InstanceRecord, error)
}

// Application is one running instance of an ApplicationType.
type Application struct {
	Type  *ApplicationType
	Index int
	Root  *Root
}

// Name returns the instance's root name.
func (a *Application) Name() string {
	return instanceName(a.Type.Name, a.Index)
}

func instanceName(typeName string, index int) string {
	return fmt.Sprintf("%s_%d", typeName, index)
}

// ApplicationType is a named, re-creatable widget application. Every
// instance gets the smallest index not in use.
type ApplicationType struct {
	Name      string
	Generator Generator
	// AllowManualRun permits users to create instances by command.
	AllowManualRun bool

	ui *UI

	mu        sync.Mutex
	instances map[int]*Application // nil value: index reserved, instance being built
}

// RegisterApplication adds t to the UI.
func (u *UI) RegisterApplication(t *ApplicationType) error {
	u.appMu.Lock()
	defer u.appMu.Unlock()
	if _, ok := u.apps[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrApplicationExists, t.Name)
	}
	t.ui = u
	t.instances = make(map[int]*Application)
	u.apps[t.Name] = t
	return nil
}

// ApplicationType returns the registered type called name.
func (u *UI) ApplicationType(name string) (*ApplicationType, bool) {
	u.appMu.Lock()
	defer u.appMu.Unlock()
	t, ok := u.apps[name]
	return t, ok
}

// ApplicationTypes returns the registered types sorted by name.
func (u *UI) ApplicationTypes() []*ApplicationType {
	u.appMu.Lock()
	out := make([]*ApplicationType, 0, len(u.apps))
	for _, t := range u.apps {
		out = append(out, t)
	}
	u.appMu.Unlock()
	slices.SortFunc(out, func(a, b *ApplicationType) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// SetSaver sets where public instances are persisted. Nil disables
// persistence.
func (u *UI) SetSaver(s Saver) {
	u.appMu.Lock()
	u.saver = s
	u.appMu.Unlock()
}

func (u *UI) getSaver() Saver {
	u.appMu.Lock()
	defer u.appMu.Unlock()
	return u.saver
}

// reserve claims the smallest free index.
func (t *ApplicationType) reserve() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := 0
	for {
		if _, used := t.instances[i]; !used {
			t.instances[i] = nil
			return i
		}
		i++
	}
}

func (t *ApplicationType) release(index int) {
	t.mu.Lock()
	delete(t.instances, index)
	t.mu.Unlock()
}

// forget drops app from the registry if it is still the instance at its
// index.
func (t *ApplicationType) forget(app *Application) {
	t.mu.Lock()
	if t.instances[app.Index] == app {
		delete(t.instances, app.Index)
	}
	t.mu.Unlock()
}

// CreateInstance builds a new instance centred on world (x, y) and creates
// its root. Public instances are persisted.
func (t *ApplicationType) CreateInstance(ctx context.Context, x, y int, observers []int) (*Application, error) {
	app, err := t.build(t.reserve(), x, y, observers, true)
	if err != nil {
		return nil, err
	}
	if !app.Root.Personal() {
		if err := t.save(ctx); err != nil {
			return app, err
		}
	}
	return app, nil
}

// LoadInstance recreates a persisted instance at its saved position,
// replacing any instance already running under the same index.
func (t *ApplicationType) LoadInstance(rec InstanceRecord) (*Application, error) {
	t.mu.Lock()
	old, exists := t.instances[rec.Index]
	if !exists {
		t.instances[rec.Index] = nil
	}
	t.mu.Unlock()

	if old != nil {
		t.ui.logger.Warn("tileui: replacing application instance", "app", t.Name, "index", rec.Index)
		if err := t.ui.Destroy(old.Root); err != nil {
			t.ui.logger.Warn("tileui: replace instance", "app", t.Name, "index", rec.Index, "err", err)
		}
		t.mu.Lock()
		t.instances[rec.Index] = nil
		t.mu.Unlock()
	}
	return t.build(rec.Index, rec.X, rec.Y, nil, false)
}

// build generates and creates the instance at a reserved index. When centre
// is set, (x, y) is the instance's centre rather than its top-left corner.
func (t *ApplicationType) build(index, x, y int, observers []int, centre bool) (*Application, error) {
	name := instanceName(t.Name, index)
	root, err := t.Generator(name, x, y, observers)
	if err != nil {
		t.release(index)
		return nil, fmt.Errorf("generate %s: %w", name, err)
	}
	if centre {
		_, _, w, h := root.XYWH()
		root.SetXY(x-w/2, y-h/2)
	} else {
		root.SetXY(x, y)
	}

	app := &Application{Type: t, Index: index, Root: root}
	root.app = app
	if err := t.ui.Create(root); err != nil {
		t.release(index)
		return nil, err
	}
	t.mu.Lock()
	t.instances[index] = app
	t.mu.Unlock()
	return app, nil
}

// DisposeInstance destroys app and persists the change.
func (t *ApplicationType) DisposeInstance(ctx context.Context, app *Application) error {
	if err := t.ui.Destroy(app.Root); err != nil {
		return err
	}
	if app.Root.Personal() {
		return nil
	}
	return t.save(ctx)
}

// DestroyAll destroys every instance of the type.
func (t *ApplicationType) DestroyAll(ctx context.Context) error {
	var errs []error
	for _, app := range t.Instances() {
		if err := t.ui.Destroy(app.Root); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, t.save(ctx))
	return errors.Join(errs...)
}

// TryDestroy destroys the top-most instance covering world (x, y). Reports
// whether one was found.
func (t *ApplicationType) TryDestroy(ctx context.Context, x, y int) (bool, error) {
	instances := t.Instances()
	for i := len(instances) - 1; i >= 0; i-- {
		if instances[i].Root.Contains(x, y) {
			return true, t.DisposeInstance(ctx, instances[i])
		}
	}
	return false, nil
}

// Instances returns a snapshot of the running instances ordered by index.
func (t *ApplicationType) Instances() []*Application {
	t.mu.Lock()
	out := make([]*Application, 0, len(t.instances))
	for _, app := range t.instances {
		if app != nil {
			out = append(out, app)
		}
	}
	t.mu.Unlock()
	slices.SortFunc(out, func(a, b *Application) int { return a.Index - b.Index })
	return out
}

// Instance returns the running instance at index.
func (t *ApplicationType) Instance(index int) (*Application, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	app := t.instances[index]
	return app, app != nil
}

// Indices returns the sorted indices of running public instances.
func (t *ApplicationType) Indices() []int {
	var out []int
	for _, app := range t.Instances() {
		if !app.Root.Personal() {
			out = append(out, app.Index)
		}
	}
	return out
}

// Load recreates every persisted instance of the type.
func (t *ApplicationType) Load(ctx context.Context) error {
	saver := t.ui.getSaver()
	if saver == nil {
		return nil
	}
	records, err := saver.LoadInstances(ctx, t.ui.WorldID, t.Name)
	if err != nil {
		return fmt.Errorf("load %s: %w", t.Name, err)
	}
	var errs []error
	for _, rec := range records {
		if _, err := t.LoadInstance(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *ApplicationType) save(ctx context.Context) error {
	saver := t.ui.getSaver()
	if saver == nil {
		return nil
	}
	var records []InstanceRecord
	for _, app := range t.Instances() {
		if app.Root.Personal() {
			continue
		}
		x, y := app.Root.XY()
		records = append(records, InstanceRecord{Index: app.Index, X: x, Y: y})
	}
	if err := saver.SaveInstances(ctx, t.ui.WorldID, t.Name, records); err != nil {
		return fmt.Errorf("save %s: %w", t.Name, err)
	}
	return nil
}
