package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccm-go/ccm/pkg/bytecode"
	"github.com/ccm-go/ccm/pkg/complexity"
)

func testReport(mccabe int) *complexity.Report {
	return &complexity.Report{
		McCabe:            &mccabe,
		McCabeGeneralized: mccabe,
		Nodes:             3,
		Edges:             2,
		Components:        1,
	}
}

func TestKey(t *testing.T) {
	co := &bytecode.CodeObject{
		Name:   "f",
		Code:   []byte{100, 0, 83, 0},
		Consts: []any{nil},
	}

	k1 := Key(co)
	k2 := Key(co)
	assert.Equal(t, k1, k2, "key must be deterministic")
	assert.Len(t, k1, 64)

	changed := *co
	changed.Code = []byte{100, 1, 83, 0}
	assert.NotEqual(t, k1, Key(&changed), "different code must yield a different key")

	renamed := *co
	renamed.Name = "g"
	assert.NotEqual(t, k1, Key(&renamed), "different name must yield a different key")
}

func TestReportCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", testReport(1))
	c.Set("b", testReport(2))

	assert.Equal(t, 2, c.Len())

	r, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 1, *r.McCabe)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestReportCache_LRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{
		MaxSize: 3,
		OnEvict: func(key string, _ *complexity.Report) { evicted = append(evicted, key) },
	})

	c.Set("a", testReport(1))
	c.Set("b", testReport(2))
	c.Set("c", testReport(3))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", testReport(4))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found, "a should still be present")
}

func TestReportCache_Delete(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", testReport(1))
	c.Set("b", testReport(2))

	c.Delete("a")

	assert.Equal(t, 1, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
	_, found = c.Get("b")
	assert.True(t, found)
}

func TestReportCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", testReport(1))
	c.Set("b", testReport(5))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, 2, restored.Len())
	r, found := restored.Get("b")
	require.True(t, found)
	assert.Equal(t, 5, *r.McCabe)
	assert.Equal(t, 5, r.McCabeGeneralized)
}

func TestReportCache_LoadGarbage(t *testing.T) {
	c := New(Options{MaxSize: 10})
	err := c.Load(bytes.NewReader([]byte("not msgpack at all")))
	assert.Error(t, err)
}

func TestReportCache_FilePersistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.msgpack")

	c := New(Options{MaxSize: 10})
	c.Set("a", testReport(7))
	require.NoError(t, PersistToFile(c, path))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, LoadFromFile(restored, path))
	r, found := restored.Get("a")
	require.True(t, found)
	assert.Equal(t, 7, *r.McCabe)

	// A missing file is not an error; the cache stays empty.
	fresh := New(Options{MaxSize: 10})
	require.NoError(t, LoadFromFile(fresh, filepath.Join(dir, "absent.msgpack")))
	assert.Equal(t, 0, fresh.Len())
}
