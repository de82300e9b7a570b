package syncbranch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/shard"
)

func newTestClient(baseURL string) *ghclient.Client {
	return ghclient.NewWithBaseURL("test-token", "o/r", baseURL)
}

// fakeGitHub serves just enough of the Git Data API to exercise Pull and
// FetchShards end to end against a real shard.Manifest/Blob pair.
func fakeGitHub(t *testing.T, manifest shard.Manifest, blobs map[string]shard.Blob) *httptest.Server {
	t.Helper()
	manifestData, err := shard.MarshalManifest(manifest)
	require.NoError(t, err)

	blobBytes := map[string][]byte{"manifest-sha": manifestData}
	var treeEntries []map[string]string
	treeEntries = append(treeEntries, map[string]string{"path": manifestPath, "type": "blob", "sha": "manifest-sha"})
	for name, b := range blobs {
		data, _, _, err := shard.MarshalBlob(b)
		require.NoError(t, err)
		sha := "sha-" + name
		blobBytes[sha] = data
		treeEntries = append(treeEntries, map[string]string{"path": name, "type": "blob", "sha": sha})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/git/refs/heads/argus-data", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ref":    "refs/heads/argus-data",
			"object": map[string]string{"sha": "commit-sha"},
		})
	})
	mux.HandleFunc("/repos/o/r/git/commits/commit-sha", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sha":  "commit-sha",
			"tree": map[string]string{"sha": "tree-sha"},
		})
	})
	mux.HandleFunc("/repos/o/r/git/trees/tree-sha", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"sha": "tree-sha", "tree": treeEntries})
	})
	mux.HandleFunc("/repos/o/r/git/blobs/", func(w http.ResponseWriter, r *http.Request) {
		sha := strings.TrimPrefix(r.URL.Path, "/repos/o/r/git/blobs/")
		data, ok := blobBytes[sha]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"content":  base64.StdEncoding.EncodeToString(data),
			"encoding": "base64",
		})
	})
	return httptest.NewServer(mux)
}

func TestStore_Pull_NoBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/git/refs/heads/argus-data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	store := New(client, "argus-data", nil)

	pulled, err := store.Pull(context.Background())
	require.NoError(t, err)
	require.False(t, pulled.BranchExists)
}

func TestStore_Pull_ReadsManifestAndFetchesShard(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"))
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/a.go")})
	manifest, blobs := shard.Split(m, shard.Manifest{})
	require.Len(t, blobs, 1)

	byName := map[string]shard.Blob{manifest.Shards["pkg"].BlobName: blobs[0]}
	srv := fakeGitHub(t, manifest, byName)
	defer srv.Close()

	client := newTestClient(srv.URL)
	store := New(client, "argus-data", nil)

	pulled, err := store.Pull(context.Background())
	require.NoError(t, err)
	require.True(t, pulled.BranchExists)
	require.Contains(t, pulled.Manifest.Shards, "pkg")

	fetched, err := store.FetchShards(context.Background(), pulled, map[string]bool{"pkg": true})
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	require.Len(t, fetched[0].Entries, 1)
}
