package builder

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/model"
)

// MCPFileName is the merge-config file written under the target directory.
const MCPFileName = ".mcp.json"

// Merge deep-merges fragments in order. When both sides of a key are JSON
// objects they are merged recursively; otherwise the later value replaces the
// earlier one, arrays included. The inputs are not modified.
func Merge(fragments ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, f := range fragments {
		mergeInto(out, f)
	}
	return out
}

// MergeOnto merges fresh onto existing with later-wins precedence.
func MergeOnto(existing, fresh map[string]any) map[string]any {
	return Merge(existing, fresh)
}

func mergeInto(dst, src map[string]any) {
	for k, sv := range src {
		srcObj, srcIsObj := sv.(map[string]any)
		dstObj, dstIsObj := dst[k].(map[string]any)
		if srcIsObj && dstIsObj {
			mergeInto(dstObj, srcObj)
			continue
		}
		dst[k] = deepCopy(sv)
	}
}

// deepCopy copies objects and arrays so the merged tree shares no mutable
// state with its inputs.
func deepCopy(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// MCPPath returns the merge-config path for targetDir.
func MCPPath(targetDir string) string {
	return filepath.Join(targetDir, MCPFileName)
}

// MCPWriter writes .mcp.json from MCP config resources.
type MCPWriter struct {
	fs fsops.FS
}

// NewMCPWriter creates an MCPWriter.
func NewMCPWriter(fs fsops.FS) *MCPWriter {
	return &MCPWriter{fs: fs}
}

// Write computes the merged config of configs and writes it, ignoring any
// existing file. Nothing is written when configs is empty.
func (w *MCPWriter) Write(targetDir string, configs []model.Resource) error {
	if len(configs) == 0 {
		return nil
	}
	return w.write(targetDir, mergeConfigs(configs))
}

// WriteMerged deep-merges the computed config onto the existing file.
// A missing file is treated as an empty object.
func (w *MCPWriter) WriteMerged(targetDir string, configs []model.Resource) error {
	if len(configs) == 0 {
		return nil
	}

	existing := map[string]any{}
	path := MCPPath(targetDir)
	if ok, err := w.fs.Exists(path); err != nil {
		return fmt.Errorf("failed to check %s: %w", MCPFileName, err)
	} else if ok {
		data, err := w.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", MCPFileName, err)
		}
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("existing %s is not a JSON object: %w", MCPFileName, err)
		}
		if existing == nil {
			existing = map[string]any{}
		}
	}

	return w.write(targetDir, MergeOnto(existing, mergeConfigs(configs)))
}

func (w *MCPWriter) write(targetDir string, merged map[string]any) error {
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", MCPFileName, err)
	}
	if err := w.fs.AtomicWrite(MCPPath(targetDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MCPFileName, err)
	}
	return nil
}

func mergeConfigs(configs []model.Resource) map[string]any {
	fragments := make([]map[string]any, 0, len(configs))
	for _, c := range configs {
		fragments = append(fragments, c.Config)
	}
	return Merge(fragments...)
}
