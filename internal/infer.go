package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// vcsMarkers and manifestMarkers identify a project root during the upward
// walk. Existence is checked, never content.
var (
	vcsMarkers      = []string{".git", ".hg", ".svn"}
	manifestMarkers = []string{"go.mod", "package.json", "pyproject.toml", "Cargo.toml", "requirements.txt"}

	// Directory names that conventionally hold projects one level down
	projectParents = map[string]bool{
		"workspace": true, "workspaces": true,
		"projects": true, "repos": true,
		"src": true, "code": true,
	}
)

// WorkspaceInferrer recovers a plausible project root for conversations that
// carry no workspace reference, from file paths embedded in the composer
// payload. The root cache is scoped to one inferrer, which the aggregator
// creates per ingestion pass.
type WorkspaceInferrer struct {
	rootCache map[string]string
}

// NewWorkspaceInferrer creates an inferrer with an empty cache
func NewWorkspaceInferrer() *WorkspaceInferrer {
	return &WorkspaceInferrer{rootCache: make(map[string]string)}
}

// inferStrategy extracts candidate file paths from one region of the payload
type inferStrategy struct {
	name string
	fn   func(*RawComposer, *composerContext) []string
}

// Strategies are ordered from most to least reliable; the first one that
// yields a derivable root wins.
var inferStrategies = []inferStrategy{
	{"fileSelections", func(_ *RawComposer, ctx *composerContext) []string {
		return selectionPaths(ctx.FileSelections)
	}},
	{"folderSelections", func(_ *RawComposer, ctx *composerContext) []string {
		return selectionPaths(ctx.FolderSelections)
	}},
	{"selections", func(_ *RawComposer, ctx *composerContext) []string {
		return selectionPaths(ctx.Selections)
	}},
	{"mentions", func(_ *RawComposer, ctx *composerContext) []string {
		return mentionPaths(ctx.Mentions)
	}},
	{"codeBlockData", func(c *RawComposer, _ *composerContext) []string {
		return mapKeyPaths(c.CodeBlockData)
	}},
	{"newlyCreatedFiles", func(c *RawComposer, _ *composerContext) []string {
		return filterPaths(c.NewlyCreatedFiles)
	}},
	{"originalFileStates", func(c *RawComposer, _ *composerContext) []string {
		return mapKeyPaths(c.OriginalFileStates)
	}},
}

// InferRoot attempts to recover a project root for the composer. Returns ""
// when no strategy produces a usable path.
func (wi *WorkspaceInferrer) InferRoot(composer *RawComposer) string {
	ctx := parseComposerContext(composer.Context)

	for _, strategy := range inferStrategies {
		for _, candidate := range strategy.fn(composer, ctx) {
			if root := wi.deriveRoot(candidate); root != "" {
				LogDebug("Composer %s: inferred root %s via %s", composer.ComposerID, root, strategy.name)
				return root
			}
		}
	}
	return ""
}

// deriveRoot maps one candidate path to a project root, memoized per run so
// repeated paths across conversations do not re-walk the filesystem.
func (wi *WorkspaceInferrer) deriveRoot(path string) string {
	if root, ok := wi.rootCache[path]; ok {
		return root
	}
	root := deriveProjectRoot(path)
	wi.rootCache[path] = root
	return root
}

func deriveProjectRoot(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if cleaned == "" || cleaned == "." || cleaned == string(filepath.Separator) {
		return ""
	}

	// Start the walk at the path itself when it is a directory, else at its
	// parent. A nonexistent path still gets the segment heuristics below.
	start := cleaned
	if info, err := os.Stat(cleaned); err != nil || !info.IsDir() {
		start = filepath.Dir(cleaned)
	}

	for dir := start; ; dir = filepath.Dir(dir) {
		if hasProjectMarker(dir) {
			return dir
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}

	if root := shallowConventionRoot(cleaned); root != "" {
		return root
	}

	parent := filepath.Dir(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return ""
	}
	return parent
}

func hasProjectMarker(dir string) bool {
	for _, marker := range vcsMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	for _, marker := range manifestMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// shallowConventionRoot recognizes <...>/projects/<name>/... style layouts
// and takes the segment after the conventional parent as the root.
func shallowConventionRoot(path string) string {
	segments := strings.Split(path, string(filepath.Separator))
	for i := 0; i < len(segments)-1; i++ {
		if projectParents[strings.ToLower(segments[i])] && segments[i+1] != "" {
			return strings.Join(segments[:i+2], string(filepath.Separator))
		}
	}
	return ""
}

// composerContext is the loosely-typed context substructure of a composer
type composerContext struct {
	FileSelections   []json.RawMessage          `json:"fileSelections"`
	FolderSelections []json.RawMessage          `json:"folderSelections"`
	Selections       []json.RawMessage          `json:"selections"`
	Mentions         map[string]json.RawMessage `json:"mentions"`
}

func parseComposerContext(raw json.RawMessage) *composerContext {
	ctx := &composerContext{}
	if len(raw) == 0 {
		return ctx
	}
	if err := json.Unmarshal(raw, ctx); err != nil {
		LogDebug("Failed to parse composer context: %v", err)
	}
	return ctx
}

// selectionPaths extracts filesystem paths from selection references, which
// may be bare strings, {uri: "..."} or {uri: {fsPath|path: "..."}} shapes.
func selectionPaths(selections []json.RawMessage) []string {
	var paths []string
	for _, sel := range selections {
		if p := pathFromValue(sel); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func pathFromValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return uriToPath(s)
	}
	var obj struct {
		FileName string          `json:"fileName"`
		Path     string          `json:"path"`
		FsPath   string          `json:"fsPath"`
		URI      json.RawMessage `json:"uri"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, p := range []string{obj.FsPath, obj.Path, obj.FileName} {
		if p != "" {
			return uriToPath(p)
		}
	}
	if len(obj.URI) > 0 {
		return pathFromValue(obj.URI)
	}
	return ""
}

// mentionPaths handles the mentions map, whose keys are either paths
// themselves or JSON-encoded wrapper objects holding one.
func mentionPaths(mentions map[string]json.RawMessage) []string {
	var paths []string
	for key := range mentions {
		if looksLikePath(key) {
			paths = append(paths, uriToPath(key))
			continue
		}
		if strings.HasPrefix(key, "{") {
			if p := pathFromValue(json.RawMessage(key)); p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func mapKeyPaths(m map[string]json.RawMessage) []string {
	var paths []string
	for key := range m {
		if looksLikePath(key) {
			paths = append(paths, uriToPath(key))
		}
	}
	return paths
}

func filterPaths(values []string) []string {
	var paths []string
	for _, v := range values {
		if looksLikePath(v) {
			paths = append(paths, uriToPath(v))
		}
	}
	return paths
}

func looksLikePath(s string) bool {
	return strings.ContainsAny(s, `/\`)
}

// uriToPath strips a file:// scheme when present
func uriToPath(s string) string {
	if strings.Contains(s, "://") {
		return ResolveFolderURI(s)
	}
	return s
}
