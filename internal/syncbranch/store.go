package syncbranch

import (
	"bytes"
	"context"

	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/logging"
	"github.com/argus-review/argus/internal/shard"
)

const manifestPath = "manifest.json"
const legacyMapPath = "codemap.json" // pre-sharding flat-map fallback, kept for legacy compatibility

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Pulled is the frozen snapshot of one run's pull: the branch ref, its
// commit and recursive tree listing, all read once and cached for the
// rest of the run.
type Pulled struct {
	BranchExists bool
	HeadCommit   string
	TreeSHA      string
	Tree         *ghclient.Tree
	Manifest     shard.Manifest
	Legacy       bool // true if manifest.json was absent and a legacy flat blob was loaded instead
}

// Store drives the selective pull/push protocol against one
// branch of one repository.
type Store struct {
	client *ghclient.Client
	branch string
	logger *logging.Logger
}

// New builds a Store.
func New(client *ghclient.Client, branch string, logger *logging.Logger) *Store {
	return &Store{client: client, branch: branch, logger: logger}
}

// Pull fetches the ref, commit and recursive tree, then reads manifest.json
// only (steps 1-3 of the pull protocol). Shard fetches are a separate call
// (FetchShards) so callers can resolve load_selected's required shard set
// first.
func (s *Store) Pull(ctx context.Context) (*Pulled, error) {
	ref, err := s.client.GetRef(ctx, s.branch)
	if err != nil {
		return nil, &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: s.branch, Cause: err}
	}
	if ref == nil {
		return &Pulled{BranchExists: false}, nil
	}

	commit, err := s.client.GetCommit(ctx, ref.Object.SHA)
	if err != nil {
		return nil, &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: ref.Object.SHA, Cause: err}
	}

	tree, err := s.client.GetTreeRecursive(ctx, commit.Tree.SHA)
	if err != nil {
		return nil, &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: commit.Tree.SHA, Cause: err}
	}

	pulled := &Pulled{
		BranchExists: true,
		HeadCommit:   ref.Object.SHA,
		TreeSHA:      tree.SHA,
		Tree:         tree,
	}

	if sha, ok := findBlobSHA(tree, manifestPath); ok {
		data, err := s.fetchDecoded(ctx, sha)
		if err != nil {
			return nil, err
		}
		m, err := shard.UnmarshalManifest(data)
		if err != nil {
			return nil, &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: manifestPath, Cause: err}
		}
		pulled.Manifest = m
		return pulled, nil
	}

	if sha, ok := findBlobSHA(tree, legacyMapPath); ok {
		data, err := s.fetchDecoded(ctx, sha)
		if err != nil {
			return nil, err
		}
		m, err := legacyToManifest(data)
		if err != nil {
			return nil, &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: legacyMapPath, Cause: err}
		}
		pulled.Manifest = m
		pulled.Legacy = true
		return pulled, nil
	}

	return pulled, nil // empty branch: no manifest, no legacy blob
}

// FetchShards fetches exactly the shard blobs named by shardIds, per step 3
// of load_selected.
func (s *Store) FetchShards(ctx context.Context, pulled *Pulled, shardIds map[string]bool) ([]shard.Blob, error) {
	var out []shard.Blob
	for sid := range shardIds {
		desc, ok := pulled.Manifest.Shards[sid]
		if !ok {
			continue
		}
		sha, ok := findBlobSHA(pulled.Tree, desc.BlobName)
		if !ok {
			continue
		}
		data, err := s.fetchDecoded(ctx, sha)
		if err != nil {
			return nil, err
		}
		b, err := shard.UnmarshalBlob(data)
		if err != nil {
			return nil, &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: desc.BlobName, Cause: err}
		}
		out = append(out, b)
	}
	return out, nil
}

// FetchExtra fetches one caller-named blob (e.g. "memory.json") from the
// pulled tree, such as the ones a previous push wrote via PushSet.Extra.
// The bool return is false when no blob of that name exists yet.
func (s *Store) FetchExtra(ctx context.Context, pulled *Pulled, path string) ([]byte, bool, error) {
	sha, ok := findBlobSHA(pulled.Tree, path)
	if !ok {
		return nil, false, nil
	}
	data, err := s.fetchDecoded(ctx, sha)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// DirtyShards returns the subset of sid present in manifest whose file set
// intersects changedPaths, per the index-path pull protocol.
func DirtyShards(m shard.Manifest, changedPaths []ids.FilePath) map[string]bool {
	changed := make(map[string]bool, len(changedPaths))
	for _, p := range changedPaths {
		changed[string(p)] = true
	}
	out := make(map[string]bool)
	for sid, desc := range m.Shards {
		for _, p := range desc.FilePaths {
			if changed[p] {
				out[sid] = true
				break
			}
		}
	}
	return out
}

func (s *Store) fetchDecoded(ctx context.Context, sha string) ([]byte, error) {
	raw, err := s.client.GetBlob(ctx, sha)
	if err != nil {
		return nil, &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: sha, Cause: err}
	}
	compressed := bytes.HasPrefix(raw, zstdMagic)
	data, err := shard.Decompress(raw, compressed)
	if err != nil {
		return nil, &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: sha, Cause: err}
	}
	return data, nil
}

func findBlobSHA(tree *ghclient.Tree, path string) (string, bool) {
	if tree == nil {
		return "", false
	}
	for _, e := range tree.Tree {
		if e.Type == "blob" && e.Path == path {
			return e.SHA, true
		}
	}
	return "", false
}

// legacyToManifest wraps a pre-sharding flat CodebaseMap blob in a
// single-shard Manifest so callers can treat it uniformly. Store.pushOnce
// deletes the legacy blob itself on the next successful push.
func legacyToManifest(data []byte) (shard.Manifest, error) {
	b, err := shard.UnmarshalBlob(data)
	if err != nil {
		return shard.Manifest{}, err
	}
	_, hash, blobName, err := shard.MarshalBlob(b)
	if err != nil {
		return shard.Manifest{}, err
	}
	paths := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		paths[i] = string(e.Path)
	}
	return shard.Manifest{
		Shards: map[string]shard.Descriptor{
			"": {ShardId: "", BlobName: blobName, ContentHash: hash, FileCount: len(b.Entries), FilePaths: paths},
		},
	}, nil
}
