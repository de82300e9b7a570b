package syncbranch

import (
	"context"
	"fmt"

	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/shard"
)

// PushSet is everything one push needs to write: the new manifest, the
// shard blobs whose content changed (callers only pass what shard.Split
// reported as changed), and any extra named blobs (memory, embeddings).
type PushSet struct {
	Manifest shard.Manifest
	Blobs    []shard.Blob
	Extra    map[string][]byte // path -> raw bytes, e.g. "<hash>_memory.json"
	Message  string
}

// Push writes a PushSet following the push protocol: content-hash-named
// shard blobs already present under the same name are reused as-is, since
// an identical name guarantees identical content; manifest.json and every
// PushSet.Extra entry are fixed-name blobs and are always re-uploaded, since
// their content changes from push to push under the same path. A new tree
// is created with the previous commit's tree as base_tree; a commit is
// created on top of it; the ref is updated with an application-level CAS
// check. On a CAS mismatch the whole push is retried once after
// re-pulling and calling rebuild to recompute the PushSet against the new
// base; a second mismatch surfaces as ConcurrentWriteError.
func (s *Store) Push(ctx context.Context, branch string, pulled *Pulled, set PushSet, rebuild func(*Pulled) (PushSet, error)) error {
	if err := s.pushOnce(ctx, branch, pulled, set); err == nil {
		return nil
	} else if !isConflict(err) {
		return err
	}

	fresh, err := s.Pull(ctx)
	if err != nil {
		return err
	}
	retrySet, err := rebuild(fresh)
	if err != nil {
		return err
	}
	if err := s.pushOnce(ctx, branch, fresh, retrySet); err != nil {
		if isConflict(err) {
			return &errs.ConcurrentWriteError{Ref: branch}
		}
		return err
	}
	return nil
}

func (s *Store) pushOnce(ctx context.Context, branch string, pulled *Pulled, set PushSet) error {
	var entries []ghclient.TreeEntryInput

	for _, b := range set.Blobs {
		data, _, blobName, err := shard.MarshalBlob(b)
		if err != nil {
			return &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: b.ShardId, Cause: err}
		}
		payload, _, err := shard.Compress(data)
		if err != nil {
			return &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: blobName, Cause: err}
		}
		entry, err := s.shardBlobEntry(ctx, pulled, blobName, payload)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	for path, data := range set.Extra {
		entry, err := s.blobEntry(ctx, path, data)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	manifestData, err := shard.MarshalManifest(set.Manifest)
	if err != nil {
		return &errs.Error{Code: errs.CodeStructural, Stage: errs.StageSync, Target: manifestPath, Cause: err}
	}
	manifestEntry, err := s.blobEntry(ctx, manifestPath, manifestData)
	if err != nil {
		return err
	}
	entries = append(entries, manifestEntry)

	// A sharded manifest is now being written, so a lingering legacy flat
	// blob is stale; retire it by carrying a null-sha delete entry.
	if _, ok := findBlobSHA(pulled.Tree, legacyMapPath); ok {
		entries = append(entries, ghclient.DeleteEntry(legacyMapPath))
	}

	baseTree := pulled.TreeSHA
	treeSHA, err := s.client.CreateTree(ctx, baseTree, entries)
	if err != nil {
		return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: branch, Cause: err}
	}

	var parents []string
	if pulled.BranchExists {
		parents = []string{pulled.HeadCommit}
	}
	msg := set.Message
	if msg == "" {
		msg = fmt.Sprintf("argus: update artifacts (%d blobs)", len(entries))
	}
	commitSHA, err := s.client.CreateCommit(ctx, msg, treeSHA, parents)
	if err != nil {
		return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: branch, Cause: err}
	}

	if !pulled.BranchExists {
		if err := s.client.CreateRef(ctx, branch, commitSHA); err != nil {
			return &errs.Error{Code: errs.CodeConcurrency, Stage: errs.StageSync, Target: branch, Cause: err}
		}
		return nil
	}

	// Application-level CAS: re-confirm the ref has not moved since Pull
	// observed it before attempting the update.
	current, err := s.client.GetRef(ctx, branch)
	if err != nil {
		return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: branch, Cause: err}
	}
	if current == nil || current.Object.SHA != pulled.HeadCommit {
		return &errs.Error{Code: errs.CodeConcurrency, Stage: errs.StageSync, Target: branch, Cause: fmt.Errorf("ref moved since pull")}
	}
	if err := s.client.UpdateRef(ctx, branch, commitSHA, false); err != nil {
		return &errs.Error{Code: errs.CodeConcurrency, Stage: errs.StageSync, Target: branch, Cause: err}
	}
	return nil
}

// shardBlobEntry reuses an existing tree entry's SHA when a content-hash-named
// shard blob (shard_<hash>.json) of the same name is already present, since
// an identical name under that naming scheme is guaranteed to carry
// identical content; otherwise it uploads payload as a new blob. Only
// shard.Blob uploads may take this shortcut — see blobEntry for fixed-name
// paths, whose content is not determined by the name.
func (s *Store) shardBlobEntry(ctx context.Context, pulled *Pulled, path string, payload []byte) (ghclient.TreeEntryInput, error) {
	if pulled.Tree != nil {
		for _, e := range pulled.Tree.Tree {
			if e.Type == "blob" && e.Path == path {
				return ghclient.BlobEntry(path, e.SHA), nil
			}
		}
	}
	return s.blobEntry(ctx, path, payload)
}

// blobEntry always uploads payload as a new blob, for fixed-name paths
// (manifest.json, memory.json, and any other PushSet.Extra entry) whose
// content changes across pushes under the same name and can never be
// reused from a prior tree entry.
func (s *Store) blobEntry(ctx context.Context, path string, payload []byte) (ghclient.TreeEntryInput, error) {
	sha, err := s.client.CreateBlob(ctx, payload)
	if err != nil {
		return ghclient.TreeEntryInput{}, &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: path, Cause: err}
	}
	return ghclient.BlobEntry(path, sha), nil
}

func isConflict(err error) bool {
	e, ok := err.(*errs.Error)
	return ok && e.Code == errs.CodeConcurrency
}
