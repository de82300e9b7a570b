package syncbranch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/shard"
)

// pushFake is a minimal fake of the Git Data API endpoints Push exercises,
// recording every tree it is asked to create and every blob it is asked to
// upload so tests can assert on reuse-vs-reupload behavior.
type pushFake struct {
	mu           sync.Mutex
	refSHA       string
	treeEntries  []map[string]string
	blobContent  map[string]string // sha -> base64 content, pre-seeded
	createdBlobs []string          // decoded content of every CreateBlob call
	lastTree     []ghclient.TreeEntryInput
	blobCounter  int
}

func newPushFake() *pushFake {
	return &pushFake{refSHA: "commit-sha", blobContent: map[string]string{}}
}

func (f *pushFake) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/o/r/git/refs/heads/argus-data", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPatch {
			var body struct {
				SHA string `json:"sha"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.refSHA = body.SHA
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ref":    "refs/heads/argus-data",
			"object": map[string]string{"sha": f.refSHA},
		})
	})
	mux.HandleFunc("/repos/o/r/git/commits/commit-sha", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sha":  "commit-sha",
			"tree": map[string]string{"sha": "tree-sha"},
		})
	})
	mux.HandleFunc("/repos/o/r/git/commits", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": "new-commit-sha"})
	})
	mux.HandleFunc("/repos/o/r/git/trees/tree-sha", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": "tree-sha", "tree": f.treeEntries})
	})
	mux.HandleFunc("/repos/o/r/git/trees", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Tree []ghclient.TreeEntryInput `json:"tree"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastTree = body.Tree
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": "new-tree-sha"})
	})
	mux.HandleFunc("/repos/o/r/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.blobCounter++
		sha := fmt.Sprintf("new-blob-sha-%d", f.blobCounter)
		f.createdBlobs = append(f.createdBlobs, body.Content)
		f.blobContent[sha] = body.Content
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": sha})
	})
	mux.HandleFunc("/repos/o/r/git/blobs/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		sha := strings.TrimPrefix(r.URL.Path, "/repos/o/r/git/blobs/")
		content, ok := f.blobContent[sha]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"content": content, "encoding": "base64"})
	})
	return httptest.NewServer(mux)
}

func (f *pushFake) entry(path, sha string) {
	f.treeEntries = append(f.treeEntries, map[string]string{"path": path, "type": "blob", "sha": sha})
}

// seedBlob registers data as the fetchable content of an existing sha, for
// blobs Pull needs to read (manifest.json, codemap.json).
func (f *pushFake) seedBlob(sha string, data []byte) {
	f.blobContent[sha] = base64.StdEncoding.EncodeToString(data)
}

func treeEntry(entries []ghclient.TreeEntryInput, path string) (ghclient.TreeEntryInput, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return ghclient.TreeEntryInput{}, false
}

func TestStore_Push_ReusesShardBlobByName_AlwaysReuploadsManifest(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"))
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/a.go")})
	manifest, blobs := shard.Split(m, shard.Manifest{})
	require.Len(t, blobs, 1)
	blobName := manifest.Shards["pkg"].BlobName

	priorManifestData, err := shard.MarshalManifest(shard.Manifest{})
	require.NoError(t, err)

	fake := newPushFake()
	fake.entry(manifestPath, "old-manifest-sha")
	fake.seedBlob("old-manifest-sha", priorManifestData)
	fake.entry(blobName, "existing-shard-sha") // already present under its content-hash name
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(srv.URL)
	store := New(client, "argus-data", nil)

	pulled, err := store.Pull(context.Background())
	require.NoError(t, err)

	set := PushSet{Manifest: manifest, Blobs: blobs, Message: "argus: bootstrap index"}
	require.NoError(t, store.Push(context.Background(), "argus-data", pulled, set, nil))

	shardEntry, ok := treeEntry(fake.lastTree, blobName)
	require.True(t, ok)
	require.NotNil(t, shardEntry.SHA)
	require.Equal(t, "existing-shard-sha", *shardEntry.SHA, "identically-named shard blob must be reused, not re-uploaded")

	manifestEntry, ok := treeEntry(fake.lastTree, manifestPath)
	require.True(t, ok)
	require.NotNil(t, manifestEntry.SHA)
	require.NotEqual(t, "old-manifest-sha", *manifestEntry.SHA, "manifest.json must always be re-uploaded with fresh content")
	require.NotEmpty(t, fake.createdBlobs, "manifest content must have gone through CreateBlob")
}

func TestStore_Push_AlwaysReuploadsExtraBlobs(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"))
	manifest, _ := shard.Split(m, shard.Manifest{})

	priorManifestData, err := shard.MarshalManifest(shard.Manifest{})
	require.NoError(t, err)

	fake := newPushFake()
	fake.entry(manifestPath, "old-manifest-sha")
	fake.seedBlob("old-manifest-sha", priorManifestData)
	fake.entry("memory.json", "old-memory-sha")
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(srv.URL)
	store := New(client, "argus-data", nil)

	pulled, err := store.Pull(context.Background())
	require.NoError(t, err)

	set := PushSet{
		Manifest: manifest,
		Extra:    map[string][]byte{"memory.json": []byte(`{"analyzed_at":"new"}`)},
		Message:  "argus: index update",
	}
	require.NoError(t, store.Push(context.Background(), "argus-data", pulled, set, nil))

	memEntry, ok := treeEntry(fake.lastTree, "memory.json")
	require.True(t, ok)
	require.NotNil(t, memEntry.SHA)
	require.NotEqual(t, "old-memory-sha", *memEntry.SHA, "memory.json must always be re-uploaded, never reused by path")
}

func TestStore_Push_DeletesLegacyBlobWhenPresent(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"))
	manifest, _ := shard.Split(m, shard.Manifest{})

	priorManifestData, err := shard.MarshalManifest(shard.Manifest{})
	require.NoError(t, err)

	fake := newPushFake()
	fake.entry(manifestPath, "old-manifest-sha")
	fake.seedBlob("old-manifest-sha", priorManifestData)
	fake.entry(legacyMapPath, "legacy-sha")
	srv := fake.server(t)
	defer srv.Close()

	client := newTestClient(srv.URL)
	store := New(client, "argus-data", nil)

	pulled, err := store.Pull(context.Background())
	require.NoError(t, err)

	set := PushSet{Manifest: manifest, Message: "argus: index update"}
	require.NoError(t, store.Push(context.Background(), "argus-data", pulled, set, nil))

	legacyEntry, ok := treeEntry(fake.lastTree, legacyMapPath)
	require.True(t, ok, "expected a tree entry retiring the legacy blob")
	require.Nil(t, legacyEntry.SHA, "legacy blob must be deleted via a null-sha entry")
}
