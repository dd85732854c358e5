package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeniedError reports a path that no approved root accepts. When the
// caller targeted the read-only root with a write, Suggestion carries
// the equivalent writable path so the agent can retarget.
type DeniedError struct {
	Path       string
	Suggestion string
}

func (e *DeniedError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("path not allowed: %s (the shared root is read-only; write to %s instead)", e.Path, e.Suggestion)
	}
	return fmt.Sprintf("path not allowed: %s", e.Path)
}

// PathResolver confines filesystem access to two configured roots: a
// writable workspace and an optional read-only shared-resource root.
// Reads try the roots in that fixed priority order and resolve against
// the first one where the target exists; a path present under both
// resolves against the workspace. Write and patch operations resolve
// only against the workspace.
type PathResolver struct {
	workspace string
	shared    string
}

// NewPathResolver builds a resolver. The workspace root is required and
// both roots must be absolute.
func NewPathResolver(workspace, shared string) (*PathResolver, error) {
	if workspace == "" {
		return nil, errors.New("sandbox: workspace root is required")
	}
	if !filepath.IsAbs(workspace) {
		return nil, fmt.Errorf("sandbox: workspace root must be absolute: %s", workspace)
	}
	if shared != "" && !filepath.IsAbs(shared) {
		return nil, fmt.Errorf("sandbox: shared root must be absolute: %s", shared)
	}
	return &PathResolver{
		workspace: filepath.Clean(workspace),
		shared:    cleanOrEmpty(shared),
	}, nil
}

// Workspace returns the writable root.
func (r *PathResolver) Workspace() string { return r.workspace }

// Shared returns the read-only root, or empty when none is configured.
func (r *PathResolver) Shared() string { return r.shared }

// Resolve maps a caller-supplied path to an absolute path under an
// approved root, or returns a *DeniedError. The symlink-resolved form of
// the path must still fall under the symlink-resolved form of some
// approved root; a symlink planted inside a root that points outside it
// is rejected even though the syntactic check passes.
func (r *PathResolver) Resolve(path string, forWrite bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("sandbox: empty path")
	}

	// Reads resolve against the first root where the target actually
	// exists, so a relative path absent from the workspace still reaches
	// the shared root. The first contained candidate is kept as a
	// fallback so a read of a nonexistent file reports its workspace
	// form. Writes keep the syntactic resolution: the target may not
	// exist yet.
	var fallback string
	for _, root := range r.rootsFor(forWrite) {
		joined, ok := joinUnder(root, path)
		if !ok {
			continue
		}
		real, err := resolveNearestExisting(joined)
		if err != nil {
			continue
		}
		if !r.underApprovedRoot(real, forWrite) {
			continue
		}
		if forWrite {
			return joined, nil
		}
		if _, err := os.Lstat(joined); err == nil {
			return joined, nil
		}
		if fallback == "" {
			fallback = joined
		}
	}
	if fallback != "" {
		return fallback, nil
	}

	denied := &DeniedError{Path: path}
	if forWrite && r.shared != "" && filepath.IsAbs(path) {
		// A write aimed explicitly at the shared root gets the
		// equivalent workspace-relative path in the denial so the
		// caller can retarget.
		if _, ok := joinUnder(r.shared, path); ok {
			if rel, err := filepath.Rel(r.shared, filepath.Clean(path)); err == nil {
				denied.Suggestion = rel
			}
		}
	}
	return "", denied
}

// rootsFor returns the approved roots for an operation in priority
// order. Writes see only the workspace.
func (r *PathResolver) rootsFor(forWrite bool) []string {
	if forWrite || r.shared == "" {
		return []string{r.workspace}
	}
	return []string{r.workspace, r.shared}
}

// underApprovedRoot checks a fully resolved path against the resolved
// form of every root approved for the operation.
func (r *PathResolver) underApprovedRoot(real string, forWrite bool) bool {
	for _, root := range r.rootsFor(forWrite) {
		realRoot := root
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			realRoot = filepath.Clean(resolved)
		}
		if hasPathPrefix(real, realRoot) {
			return true
		}
	}
	return false
}

// joinUnder computes the absolute form of path relative to root and
// reports whether it stays inside the root syntactically. Absolute
// inputs are accepted when they already lie under the root.
func joinUnder(root, path string) (string, bool) {
	var joined string
	if filepath.IsAbs(path) {
		joined = filepath.Clean(path)
	} else {
		joined = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, joined)
	if err != nil || filepath.IsAbs(rel) {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}

// resolveNearestExisting resolves symlinks on the target, falling back
// to the nearest existing ancestor when the target itself does not yet
// exist. This supports writing a new file whose parent exists while
// still defeating symlinked ancestors that escape the root.
func resolveNearestExisting(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err == nil {
		return filepath.Clean(real), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for {
		realDir, dirErr := filepath.EvalSymlinks(dir)
		if dirErr == nil {
			leaf := strings.TrimPrefix(path, dir)
			leaf = strings.TrimPrefix(leaf, string(filepath.Separator))
			return filepath.Clean(filepath.Join(realDir, leaf)), nil
		}
		if !errors.Is(dirErr, os.ErrNotExist) {
			return "", fmt.Errorf("resolving parent of %s: %w", path, dirErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		dir = parent
	}
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func cleanOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
