package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

func fileTools() []registry.Spec {
	return []registry.Spec{
		{
			Name:        "create_file",
			Description: "Create a new file with specified content. If the file exists, it will NOT be overwritten (use write_file for that).",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path":    stringProp("Path to the file to create (absolute or relative)"),
				"content": stringProp("Content to write to the file"),
			}, "path"),
			Handler: createFile,
		},
		{
			Name:        "read_file",
			Description: "Read the contents of a file.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path": stringProp("Path to the file to read"),
			}, "path"),
			Handler: readFile,
		},
		{
			Name:        "write_file",
			Description: "Write or overwrite a file with new content. This WILL overwrite existing files (a .bak backup is kept).",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path":    stringProp("Path to the file to write"),
				"content": stringProp("Content to write to the file"),
			}, "path", "content"),
			Handler: writeFile,
		},
		{
			Name:        "delete_file",
			Description: "Delete a file permanently.",
			Tier:        permission.RiskDestructive,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path": stringProp("Path to the file to delete"),
			}, "path"),
			Handler: deleteFile,
		},
		{
			Name:        "list_directory",
			Description: "List files and directories in a directory.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path":      stringProp("Path to the directory to list (default: current directory)"),
				"recursive": boolProp("List recursively"),
			}),
			Handler: listDirectory,
		},
		{
			Name:        "get_file_info",
			Description: "Get detailed information about a file.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"path": stringProp("Path to the file"),
			}, "path"),
			Handler: getFileInfo,
		},
		{
			Name:        "move_file",
			Description: "Move or rename a file.",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"source":      stringProp("Source file path"),
				"destination": stringProp("Destination file path"),
			}, "source", "destination"),
			Handler: moveFile,
		},
		{
			Name:        "copy_file",
			Description: "Copy a file to a new location.",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryFiles,
			Parameters: objectSchema(map[string]interface{}{
				"source":      stringProp("Source file path"),
				"destination": stringProp("Destination file path"),
			}, "source", "destination"),
			Handler: copyFile,
		},
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	expanded := path
	if expanded == "~" || len(expanded) > 1 && expanded[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, expanded[1:])
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	return abs, nil
}

func createFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	path, err := normalizePath(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}
	content := stringArg(args, "content")

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file already exists: %s (use write_file to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	log.Debug().Str("path", path).Int("bytes", len(content)).Msg("Created file")

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":          path,
			"bytes_written": len(content),
		},
		Summary: fmt.Sprintf("Created %s (%d bytes)", path, len(content)),
	}, nil
}

func readFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	path, err := normalizePath(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":    path,
			"content": string(data),
			"size":    len(data),
		},
		Summary: fmt.Sprintf("Read %s (%s)", path, humanSize(int64(len(data)))),
	}, nil
}

func writeFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	path, err := normalizePath(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}
	content := stringArg(args, "content")

	// Existing files get a .bak copy before being overwritten.
	backedUp := false
	if _, err := os.Stat(path); err == nil {
		backupPath := path + ".bak"
		if err := copyFileContents(path, backupPath); err != nil {
			return nil, fmt.Errorf("failed to back up existing file: %w", err)
		}
		backedUp = true
		log.Debug().Str("path", path).Str("backup", backupPath).Msg("Backed up file before overwrite")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":          path,
			"bytes_written": len(content),
			"backed_up":     backedUp,
		},
		Summary: fmt.Sprintf("Wrote %s (%d bytes)", path, len(content)),
	}, nil
}

func deleteFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	path, err := normalizePath(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("failed to delete file: %w", err)
	}

	log.Debug().Str("path", path).Msg("Deleted file")

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":    path,
			"deleted": true,
		},
		Summary: fmt.Sprintf("Deleted %s", path),
	}, nil
}

func listDirectory(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	raw := stringArg(args, "path")
	if raw == "" {
		raw = "."
	}
	path, err := normalizePath(raw)
	if err != nil {
		return nil, err
	}
	recursive := boolArg(args, "recursive")

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("directory not found: %s", path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	items := []map[string]interface{}{}

	appendEntry := func(entryPath string, info os.FileInfo) {
		kind := "file"
		size := info.Size()
		sizeHuman := humanSize(size)
		if info.IsDir() {
			kind = "directory"
			size = 0
			sizeHuman = "-"
		}
		items = append(items, map[string]interface{}{
			"name":       info.Name(),
			"path":       entryPath,
			"type":       kind,
			"size":       size,
			"size_human": sizeHuman,
			"modified":   info.ModTime().Format(time.RFC3339),
		})
	}

	if recursive {
		err = filepath.Walk(path, func(entryPath string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				// Skip entries we cannot access.
				return nil
			}
			if entryPath == path {
				return nil
			}
			appendEntry(entryPath, info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to list directory: %w", err)
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			appendEntry(filepath.Join(path, entry.Name()), info)
		}
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":  path,
			"items": items,
			"count": len(items),
		},
		Summary: fmt.Sprintf("Listed %s (%d items)", path, len(items)),
	}, nil
}

func getFileInfo(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	path, err := normalizePath(stringArg(args, "path"))
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"path":       path,
			"name":       info.Name(),
			"size":       info.Size(),
			"size_human": humanSize(info.Size()),
			"modified":   info.ModTime().Format(time.RFC3339),
			"is_file":    !info.IsDir(),
			"is_dir":     info.IsDir(),
		},
		Summary: fmt.Sprintf("%s: %s, modified %s", path, humanSize(info.Size()), info.ModTime().Format(time.RFC3339)),
	}, nil
}

func moveFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	source, err := normalizePath(stringArg(args, "source"))
	if err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}
	destination, err := normalizePath(stringArg(args, "destination"))
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source file not found: %s", source)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.Rename(source, destination); err != nil {
		// Cross-device moves need a copy and delete.
		if err := copyFileContents(source, destination); err != nil {
			return nil, fmt.Errorf("failed to move file: %w", err)
		}
		if err := os.Remove(source); err != nil {
			return nil, fmt.Errorf("failed to remove source after copy: %w", err)
		}
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"source":      source,
			"destination": destination,
		},
		Summary: fmt.Sprintf("Moved %s to %s", source, destination),
	}, nil
}

func copyFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	source, err := normalizePath(stringArg(args, "source"))
	if err != nil {
		return nil, fmt.Errorf("invalid source: %w", err)
	}
	destination, err := normalizePath(stringArg(args, "destination"))
	if err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}

	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source file not found: %s", source)
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := copyFileContents(source, destination); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}

	info, err := os.Stat(destination)
	if err != nil {
		return nil, fmt.Errorf("failed to stat destination: %w", err)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"source":       source,
			"destination":  destination,
			"bytes_copied": info.Size(),
		},
		Summary: fmt.Sprintf("Copied %s to %s (%s)", source, destination, humanSize(info.Size())),
	}, nil
}

func copyFileContents(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
