package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-elbel/curlew/internal/classify"
	"github.com/d-elbel/curlew/internal/core"
	"github.com/d-elbel/curlew/internal/dragdrop"
	"github.com/d-elbel/curlew/internal/interfaces"
	"github.com/d-elbel/curlew/internal/storage/sqlite"
)

type fakeEnvSource struct {
	environments []*core.EnvironmentFile
}

func (f *fakeEnvSource) ListEnvironments(ctx context.Context) ([]*core.EnvironmentFile, error) {
	return f.environments, nil
}

type fakeExecutor struct {
	plan interfaces.ExecutionPlan
	resp *core.Response
	err  error
}

func (f *fakeExecutor) Execute(ctx context.Context, plan interfaces.ExecutionPlan) (*core.Response, error) {
	f.plan = plan
	return f.resp, f.err
}

func env(name string, vars map[string]string) *core.EnvironmentFile {
	e := core.NewEnvironmentFile(name)
	for k, v := range vars {
		e.SetVariable(k, v)
	}
	return e
}

func newWorkspace(t *testing.T, opts ...Option) (*Store, *sqlite.Store) {
	t.Helper()
	persist, err := sqlite.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { persist.Close() })

	envs := &fakeEnvSource{environments: []*core.EnvironmentFile{
		env("dev", map[string]string{"host": "dev.example.com", "token": "devtok"}),
	}}

	ws := New(persist, envs, opts...)
	require.NoError(t, ws.LoadAll(context.Background()))
	return ws, persist
}

func TestLoadAllAndViews(t *testing.T) {
	ctx := context.Background()
	ws, persist := newWorkspace(t)

	parent, err := ws.CreateCollection(ctx, "parent", "", nil)
	require.NoError(t, err)
	pid := parent.ID()
	_, err = ws.CreateCollection(ctx, "child", "", &pid)
	require.NoError(t, err)

	inCol := core.NewRequestWithID("in", "in collection", core.MethodGet, "u")
	inCol.SetCollectionID(&pid)
	_, err = persist.CreateRequest(ctx, inCol)
	require.NoError(t, err)
	_, err = persist.CreateRequest(ctx, core.NewRequestWithID("loose", "loose", core.MethodGet, "u"))
	require.NoError(t, err)

	require.NoError(t, ws.LoadAll(ctx))

	t.Run("tree nests children", func(t *testing.T) {
		forest := ws.Tree()
		require.Len(t, forest, 1)
		assert.Equal(t, pid, forest[0].Collection.ID())
		require.Len(t, forest[0].Children, 1)
	})

	t.Run("requests split by scope", func(t *testing.T) {
		scoped := ws.RequestsIn(pid)
		require.Len(t, scoped, 1)
		assert.Equal(t, "in", scoped[0].ID())

		loose := ws.Uncategorized()
		require.Len(t, loose, 1)
		assert.Equal(t, "loose", loose[0].ID())
	})
}

func TestSaveRequestUpsert(t *testing.T) {
	ctx := context.Background()
	ws, _ := newWorkspace(t)

	r := core.NewRequest("fresh", core.MethodGet, "u")
	_, err := ws.SaveRequest(ctx, r)
	require.NoError(t, err)
	assert.Len(t, ws.Requests(), 1)

	r.SetName("renamed")
	_, err = ws.SaveRequest(ctx, r)
	require.NoError(t, err)

	require.Len(t, ws.Requests(), 1)
	assert.Equal(t, "renamed", ws.Requests()[0].Name())

	loaded, err := ws.GetRequest(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name())
}

func TestDeleteCollectionReloads(t *testing.T) {
	ctx := context.Background()
	ws, persist := newWorkspace(t)

	parent, err := ws.CreateCollection(ctx, "parent", "", nil)
	require.NoError(t, err)
	pid := parent.ID()
	_, err = ws.CreateCollection(ctx, "child", "", &pid)
	require.NoError(t, err)

	r := core.NewRequest("member", core.MethodGet, "u")
	r.SetCollectionID(&pid)
	_, err = persist.CreateRequest(ctx, r)
	require.NoError(t, err)
	require.NoError(t, ws.LoadAll(ctx))

	require.NoError(t, ws.DeleteCollection(ctx, pid))

	// Children were orphaned, not deleted, and the view followed.
	require.Len(t, ws.Collections(), 1)
	assert.Nil(t, ws.Collections()[0].ParentID())
	require.Len(t, ws.Uncategorized(), 1)
	assert.Equal(t, r.ID(), ws.Uncategorized()[0].ID())
}

func TestEnvironments(t *testing.T) {
	ws, _ := newWorkspace(t)

	t.Run("no active environment resolves nothing", func(t *testing.T) {
		assert.Equal(t, "https://{{host}}/x", ws.Resolve("https://{{host}}/x"))
	})

	t.Run("activating an unknown environment fails", func(t *testing.T) {
		assert.ErrorIs(t, ws.SetActiveEnvironment("ghost"), interfaces.ErrNotFound)
	})

	t.Run("active environment resolves placeholders", func(t *testing.T) {
		require.NoError(t, ws.SetActiveEnvironment("dev"))
		assert.Equal(t, "https://dev.example.com/x", ws.Resolve("https://{{host}}/x"))
	})

	t.Run("deactivating stops resolution", func(t *testing.T) {
		require.NoError(t, ws.SetActiveEnvironment(""))
		assert.Equal(t, "{{host}}", ws.Resolve("{{host}}"))
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves variables and caches the response", func(t *testing.T) {
		executor := &fakeExecutor{
			resp: core.NewResponse(200, `{"Content-Type":"application/json"}`, `{"ok":true}`, 12),
		}
		ws, _ := newWorkspace(t, WithExecutor(executor))
		require.NoError(t, ws.SetActiveEnvironment("dev"))

		r := core.NewRequest("call", core.MethodPost, "https://{{host}}/v1")
		r.SetHeaders(core.KeyValueHeaders([]core.HeaderPair{{Key: "X-Token", Value: "{{token}}"}}))
		r.SetBody(core.RawBody(`{"host":"{{host}}"}`, core.FormatJSON))
		_, err := ws.SaveRequest(ctx, r)
		require.NoError(t, err)

		result, err := ws.Execute(ctx, r.ID())
		require.NoError(t, err)

		assert.Equal(t, "https://dev.example.com/v1", executor.plan.URL)
		assert.Equal(t, "devtok", executor.plan.Headers[0].Value)
		assert.Equal(t, `{"host":"dev.example.com"}`, executor.plan.Body)
		assert.Equal(t, "application/json", executor.plan.ContentType)

		assert.Equal(t, classify.KindJSON, result.Kind)
		assert.Equal(t, "{\n  \"ok\": true\n}", result.FormattedBody)

		// The response was cached with the request.
		loaded, err := ws.GetRequest(ctx, r.ID())
		require.NoError(t, err)
		require.NotNil(t, loaded.LastResponse())
		assert.Equal(t, 200, loaded.LastResponse().StatusCode())
	})

	t.Run("transport failure surfaces as an error", func(t *testing.T) {
		executor := &fakeExecutor{err: errors.New("connection refused")}
		ws, _ := newWorkspace(t, WithExecutor(executor))

		r := core.NewRequest("call", core.MethodGet, "u")
		_, err := ws.SaveRequest(ctx, r)
		require.NoError(t, err)

		_, err = ws.Execute(ctx, r.ID())
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		ws, _ := newWorkspace(t, WithExecutor(&fakeExecutor{}))
		_, err := ws.Execute(ctx, "ghost")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})
}

func TestDragDropIntegration(t *testing.T) {
	ctx := context.Background()
	ws, _ := newWorkspace(t)

	c, err := ws.CreateCollection(ctx, "target", "", nil)
	require.NoError(t, err)

	r := core.NewRequest("movable", core.MethodGet, "u")
	_, err = ws.SaveRequest(ctx, r)
	require.NoError(t, err)

	coord := ws.DragDrop()
	require.NoError(t, coord.Start(dragdrop.Subject{Type: dragdrop.SubjectRequest, ID: r.ID()}))
	intent, err := coord.Drop(ctx, &dragdrop.Target{Type: dragdrop.TargetCollection, ID: c.ID()})
	require.NoError(t, err)
	require.NotNil(t, intent)

	// The coordinator reloaded the workspace after applying.
	scoped := ws.RequestsIn(c.ID())
	require.Len(t, scoped, 1)
	assert.Equal(t, r.ID(), scoped[0].ID())
	assert.Empty(t, ws.Uncategorized())
}

func TestAutosaveIntegration(t *testing.T) {
	ctx := context.Background()
	ws, persist := newWorkspace(t, WithAutosaveDelay(20*time.Millisecond))

	r := core.NewRequest("draft", core.MethodGet, "u")
	_, err := ws.SaveRequest(ctx, r)
	require.NoError(t, err)

	// Pick the in-memory instance the workspace holds and edit it.
	held := ws.Requests()[0]
	ws.HydrateRequest(held.ID())
	ws.NotifyEdit(ctx, held.ID()) // hydration echo, swallowed

	held.SetURL("https://changed.example.com")
	ws.NotifyEdit(ctx, held.ID())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		loaded, err := persist.GetRequest(ctx, held.ID())
		require.NoError(t, err)
		if loaded.URL() == "https://changed.example.com" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("autosave never persisted the edit")
}
