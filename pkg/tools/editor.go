package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

const defaultEditorBaseURL = "http://localhost:5005"

// editorClient bridges to a local editor API server.
type editorClient struct {
	baseURL string
	client  *http.Client
}

func newEditorClient(baseURL string, client *http.Client) *editorClient {
	if baseURL == "" {
		baseURL = defaultEditorBaseURL
	}
	return &editorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *editorClient) get(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *editorClient) post(ctx context.Context, endpoint string, body map[string]interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *editorClient) do(req *http.Request) (map[string]interface{}, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("editor API unreachable (is the editor API server running?): %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read editor API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("editor API returned status %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode editor API response: %w", err)
	}
	return result, nil
}

func editorTools(opts Options) []registry.Spec {
	client := newEditorClient(opts.EditorBaseURL, opts.HTTPClient)

	return []registry.Spec{
		{
			Name:        "editor_state",
			Description: "Get the current state of the editor (current file, cursor position, open tabs, project root). Requires the editor API server to be running.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryEditor,
			Parameters:  objectSchema(map[string]interface{}{}),
			Handler:     client.editorState,
		},
		{
			Name:        "editor_read_file",
			Description: "Read a file through the editor API, as it appears in the editor context.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryEditor,
			Parameters: objectSchema(map[string]interface{}{
				"file_path": stringProp("Path to the file to read"),
			}, "file_path"),
			Handler: client.editorReadFile,
		},
		{
			Name:        "editor_write_file",
			Description: "Write content to a file through the editor API.",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryEditor,
			Parameters: objectSchema(map[string]interface{}{
				"file_path": stringProp("Path to the file to write"),
				"content":   stringProp("Content to write to the file"),
			}, "file_path", "content"),
			Handler: client.editorWriteFile,
		},
		{
			Name:        "editor_list_files",
			Description: "List files in a directory through the editor API.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryEditor,
			Parameters: objectSchema(map[string]interface{}{
				"directory": stringProp("Directory path to list (default: current directory)"),
			}),
			Handler: client.editorListFiles,
		},
		{
			Name:        "editor_search",
			Description: "Search for text in files through the editor API. Returns matches with line numbers and context.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryEditor,
			Parameters: objectSchema(map[string]interface{}{
				"query":     stringProp("Text to search for"),
				"directory": stringProp("Directory to search in (default: current directory)"),
			}, "query"),
			Handler: client.editorSearch,
		},
		{
			Name:        "editor_run_code",
			Description: "Execute a code snippet through the editor API. Useful for testing code or running quick scripts.",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryEditor,
			Parameters: objectSchema(map[string]interface{}{
				"code":     stringProp("Code to execute"),
				"language": stringProp("Programming language (optional, auto-detect if not provided)"),
			}, "code"),
			Handler: client.editorRunCode,
		},
		{
			Name:        "editor_describe_codebase",
			Description: "Get an overview of the codebase through the editor API: file counts and a summary of the main code files.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryEditor,
			Parameters:  objectSchema(map[string]interface{}{}),
			Handler:     client.editorDescribeCodebase,
		},
	}
}

func (c *editorClient) editorState(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	result, err := c.get(ctx, "/api/editor-state")
	if err != nil {
		return nil, err
	}

	currentFile, _ := result["current_file"].(string)
	log.Debug().Str("current_file", currentFile).Msg("Fetched editor state")

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"current_file":    result["current_file"],
			"cursor_position": result["cursor_position"],
			"selection":       result["selection"],
			"open_tabs":       result["open_tabs"],
			"project_root":    result["project_root"],
		},
		Summary: fmt.Sprintf("Editor state: current file %s", currentFile),
	}, nil
}

func (c *editorClient) editorReadFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	filePath := stringArg(args, "file_path")
	result, err := c.post(ctx, "/api/file-content", map[string]interface{}{"file_path": filePath})
	if err != nil {
		return nil, err
	}

	content, _ := result["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("file not found or could not be read: %s", filePath)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"file_path": filePath,
			"content":   content,
			"size":      len(content),
		},
		Summary: fmt.Sprintf("Read %s via editor (%d bytes)", filePath, len(content)),
	}, nil
}

func (c *editorClient) editorWriteFile(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	filePath := stringArg(args, "file_path")
	content := stringArg(args, "content")

	result, err := c.post(ctx, "/api/write-file", map[string]interface{}{
		"file_path": filePath,
		"content":   content,
	})
	if err != nil {
		return nil, err
	}
	if ok, _ := result["success"].(bool); !ok {
		return nil, fmt.Errorf("editor failed to write file: %s", filePath)
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"file_path":     filePath,
			"bytes_written": len(content),
		},
		Summary: fmt.Sprintf("Wrote %s via editor (%d bytes)", filePath, len(content)),
	}, nil
}

func (c *editorClient) editorListFiles(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	directory := stringArg(args, "directory")
	if directory == "" {
		directory = "."
	}

	result, err := c.post(ctx, "/api/list-files", map[string]interface{}{"directory": directory})
	if err != nil {
		return nil, err
	}

	files, _ := result["files"].([]interface{})

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"directory": directory,
			"files":     files,
			"count":     len(files),
		},
		Summary: fmt.Sprintf("Listed %d files in %s via editor", len(files), directory),
	}, nil
}

func (c *editorClient) editorRunCode(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	code := stringArg(args, "code")
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	language := stringArg(args, "language")
	if language == "" {
		language = "auto"
	}

	result, err := c.post(ctx, "/api/run-code", map[string]interface{}{
		"code":     code,
		"language": language,
	})
	if err != nil {
		return nil, err
	}

	// An execution failure is still a delivered result; only a bridge
	// failure is an error.
	output, _ := result["output"].(string)
	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"output":   output,
			"error":    result["error"],
			"language": language,
		},
		Summary: fmt.Sprintf("Ran %s code via editor (%d bytes of output)", language, len(output)),
	}, nil
}

// codeExtensions marks files counted as code for the codebase overview.
var codeExtensions = map[string]string{
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".jsx":  "React JavaScript",
	".tsx":  "React TypeScript",
	".py":   "Python",
	".vue":  "Vue.js",
	".java": "Java",
	".cpp":  "C++",
	".c":    "C",
	".go":   "Go",
	".rs":   "Rust",
}

func (c *editorClient) editorDescribeCodebase(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	listing, err := c.post(ctx, "/api/list-files", map[string]interface{}{"directory": "."})
	if err != nil {
		return nil, err
	}
	files, _ := listing["files"].([]interface{})

	var codeFiles []string
	for _, entry := range files {
		info, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := info["name"].(string)
		path, _ := info["path"].(string)
		if path == "" {
			path = name
		}
		if _, ok := codeExtensions[strings.ToLower(filepath.Ext(name))]; ok && path != "" {
			codeFiles = append(codeFiles, path)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Codebase contains %d code files.\n\n", len(codeFiles))

	// Summarize a handful of small files rather than the whole tree.
	described := 0
	for _, path := range codeFiles {
		if described >= 10 {
			break
		}
		content, err := c.post(ctx, "/api/file-content", map[string]interface{}{"file_path": path})
		if err != nil {
			continue
		}
		text, _ := content["content"].(string)
		if text == "" || len(text) >= 2000 {
			continue
		}
		fmt.Fprintf(&b, "**%s**:\nSize: %d bytes\nType: %s\n\n", path, len(text), guessFileType(path))
		described++
	}

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"description": b.String(),
			"total_files": len(files),
			"code_files":  len(codeFiles),
		},
		Summary: fmt.Sprintf("Described codebase: %d files, %d code files", len(files), len(codeFiles)),
	}, nil
}

func guessFileType(path string) string {
	if t, ok := codeExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "code"
}

func (c *editorClient) editorSearch(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	directory := stringArg(args, "directory")
	if directory == "" {
		directory = "."
	}

	result, err := c.post(ctx, "/api/search", map[string]interface{}{
		"query":     query,
		"directory": directory,
	})
	if err != nil {
		return nil, err
	}

	matches, _ := result["results"].([]interface{})

	return &registry.HandlerResult{
		Payload: map[string]interface{}{
			"query":     query,
			"directory": directory,
			"results":   matches,
			"count":     len(matches),
		},
		Summary: fmt.Sprintf("Found %d matches for %q via editor", len(matches), query),
	}, nil
}
