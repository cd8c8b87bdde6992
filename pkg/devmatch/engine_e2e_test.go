package devmatch_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detectlab/devmatch-go/pkg/devmatch"
	"github.com/detectlab/devmatch-go/pkg/devmatch/mockengine"
)

// installMock points the process-wide registry at a fresh mock engine and
// restores the native bindings when the test finishes. The default registry
// is shared, so these tests cannot run in parallel.
func installMock(t *testing.T) *mockengine.Engine {
	t.Helper()
	eng := mockengine.New()
	require.NoError(t, devmatch.SetAPI(eng))
	t.Cleanup(func() {
		require.NoError(t, devmatch.SetAPI(nil), "engine still loaded at test end")
	})
	return eng
}

func writeDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valid.dat")
	require.NoError(t, os.WriteFile(path, []byte("mock device data"), 0o600))
	return path
}

func TestEndToEndMatchAgent(t *testing.T) {
	mock := installMock(t)
	path := writeDataFile(t)

	eng, err := devmatch.Open(path, "")
	require.NoError(t, err)

	agent := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	session, err := eng.MatchAgent(agent)
	require.NoError(t, err)

	mobile, found, err := session.Property("IsMobile")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "True", mobile)

	matched, ok, err := session.MatchedAgent()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(agent, matched), "matched agent must be a prefix of the input")
	assert.LessOrEqual(t, len(matched), len(agent))

	session.Release()

	done := make(chan error, 1)
	go func() { done <- eng.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close blocked although all sessions were released")
	}

	assert.Equal(t, 1, mock.UnloadCount(), "engine must be unloaded exactly once")
	assert.False(t, mock.Loaded())
	assert.Zero(t, mock.LiveMatches())
	assert.False(t, mock.UnloadedWithLiveMatches())
}

func TestConcurrentHeaderMatches(t *testing.T) {
	mock := installMock(t)
	eng, err := devmatch.Open(writeDataFile(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	const workers = 8
	var wg sync.WaitGroup
	values := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := eng.MatchHeaders(map[string][]string{"User-Agent": {"UA-X"}})
			if err != nil {
				errs[i] = err
				return
			}
			defer s.Release()
			values[i], _, errs[i] = s.Property("IsMobile")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		assert.Equal(t, "True", values[i], "worker %d", i)
	}
	assert.Zero(t, mock.LiveMatches(), "all sessions released")
	assert.Zero(t, mock.DoubleFrees())
}

func TestCloseBlocksUntilSessionsReleased(t *testing.T) {
	mock := installMock(t)
	eng, err := devmatch.Open(writeDataFile(t))
	require.NoError(t, err)

	session, err := eng.MatchAgent("Mozilla/5.0")
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		_ = eng.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a session was live")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, mock.Loaded(), "engine must stay loaded while sessions are live")

	session.Release()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not return after the last session released")
	}
	assert.False(t, mock.UnloadedWithLiveMatches())
	assert.Equal(t, 1, mock.UnloadCount())
}

func TestOpenFileNotFound(t *testing.T) {
	installMock(t)

	_, err := devmatch.Open(filepath.Join(t.TempDir(), "missing.dat"))
	assert.ErrorIs(t, err, devmatch.ErrFileNotFound)
}

func TestOpenSourceConflict(t *testing.T) {
	installMock(t)
	first := writeDataFile(t)

	eng, err := devmatch.Open(first)
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	other := writeDataFile(t)
	_, err = devmatch.Open(other)

	var conflict *devmatch.SourceConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first, conflict.LoadedPath)
	assert.Equal(t, other, conflict.RequestedPath)
}

func TestOpenInitFailure(t *testing.T) {
	mock := installMock(t)
	mock.SetLoadStatus(devmatch.StatusCorruptData)

	_, err := devmatch.Open(writeDataFile(t))

	var initErr *devmatch.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, devmatch.StatusCorruptData, initErr.Status)
	assert.Zero(t, mock.LoadCount(), "failed init must not count as a load")
}

func TestOpenSharedHandleRefcount(t *testing.T) {
	mock := installMock(t)
	path := writeDataFile(t)

	first, err := devmatch.Open(path)
	require.NoError(t, err)
	second, err := devmatch.Open(path)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.LoadCount(), "second open reuses the loaded engine")

	require.NoError(t, first.Close())
	assert.True(t, mock.Loaded(), "engine survives while a handle remains")
	require.NoError(t, second.Close())
	assert.False(t, mock.Loaded())
	assert.Equal(t, 1, mock.UnloadCount())
}

func TestPropertyFilter(t *testing.T) {
	mock := installMock(t)

	eng, err := devmatch.Open(writeDataFile(t), "IsMobile")
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	assert.Equal(t, "IsMobile", mock.LastFilter())
	assert.Equal(t, []string{"IsMobile"}, eng.AvailableProperties())

	s, err := eng.MatchAgent("Mozilla/5.0")
	require.NoError(t, err)
	defer s.Release()

	_, found, err := s.Property("BrowserName")
	require.NoError(t, err)
	assert.False(t, found, "filtered-out property must be absent")
}

func TestHTTPHeadersSorted(t *testing.T) {
	installMock(t)

	eng, err := devmatch.Open(writeDataFile(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	headers := eng.HTTPHeaders()
	require.NotEmpty(t, headers)
	assert.True(t, sort.StringsAreSorted(headers))
}

func TestEngineCloseIdempotent(t *testing.T) {
	mock := installMock(t)

	eng, err := devmatch.Open(writeDataFile(t))
	require.NoError(t, err)

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	assert.Equal(t, 1, mock.UnloadCount())
	assert.Nil(t, eng.AvailableProperties())
	assert.Nil(t, eng.HTTPHeaders())
}

func TestSetAPIRefusedWhileOpen(t *testing.T) {
	installMock(t)

	eng, err := devmatch.Open(writeDataFile(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	assert.ErrorIs(t, devmatch.SetAPI(mockengine.New()), devmatch.ErrEngineActive)
}

func TestReloadAfterFullClose(t *testing.T) {
	mock := installMock(t)
	path := writeDataFile(t)

	eng, err := devmatch.Open(path)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	// A fresh load/unload cycle on the same registry.
	other := writeDataFile(t)
	eng, err = devmatch.Open(other)
	require.NoError(t, err, "a different source is fine once the engine is unloaded")
	require.NoError(t, eng.Close())

	assert.Equal(t, 2, mock.LoadCount())
	assert.Equal(t, 2, mock.UnloadCount())
}
