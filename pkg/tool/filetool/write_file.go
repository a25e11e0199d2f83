// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filetool provides file output tools.
package filetool

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/functiontool"
)

// WriteFileArgs defines the parameters for writing a file.
type WriteFileArgs struct {
	Directory string `json:"directory" jsonschema:"required,description=Directory to write into; created if missing"`
	Filename  string `json:"filename" jsonschema:"required,description=Name of the file to create or overwrite"`
	Content   string `json:"content" jsonschema:"required,description=Full content of the file"`
}

// Config defines configuration for the write_file tool.
type Config struct {
	// WorkingDirectory anchors relative directories. Defaults to ".".
	WorkingDirectory string

	// OutputRoots are further directories that may be written to, such as
	// an absolute output directory. Relative roots are resolved against
	// WorkingDirectory.
	OutputRoots []string

	// DirMode and FileMode default to 0755 and 0644.
	DirMode  os.FileMode
	FileMode os.FileMode
}

// NewWriteFile creates the write_file tool.
//
// Arguments that would land outside the working directory and every
// output root are tool misuse.
// Failing to create the directory or write the file is a hard error.
func NewWriteFile(cfg Config) (tool.CallableTool, error) {
	if cfg.WorkingDirectory == "" {
		cfg.WorkingDirectory = "."
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}

	return functiontool.NewWithValidation(
		functiontool.Config{
			Name:        "write_file",
			Description: "Write content to a file in the given directory, creating the directory if needed and overwriting any existing file.",
		},
		func(ctx tool.Context, args WriteFileArgs) (map[string]any, error) {
			return writeFile(cfg, args)
		},
		func(args WriteFileArgs) error {
			return validateTarget(cfg, args)
		},
	)
}

func writeFile(cfg Config, args WriteFileArgs) (map[string]any, error) {
	dir := cfg.resolve(args.Directory)
	if err := os.MkdirAll(dir, cfg.DirMode); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, args.Filename)
	if err := os.WriteFile(path, []byte(args.Content), cfg.FileMode); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", path, err)
	}

	slog.Info("File written", "path", path, "bytes", len(args.Content))
	return map[string]any{
		"status": "success",
		"path":   path,
	}, nil
}

func validateTarget(cfg Config, args WriteFileArgs) error {
	if strings.TrimSpace(args.Filename) == "" {
		return fmt.Errorf("filename must not be empty")
	}
	if strings.ContainsAny(args.Filename, `/\`) {
		return fmt.Errorf("filename must not contain path separators")
	}

	target := filepath.Join(cfg.resolve(args.Directory), args.Filename)
	if !filepath.IsAbs(args.Directory) && within(cfg.WorkingDirectory, target) {
		return nil
	}
	for _, root := range cfg.OutputRoots {
		if within(cfg.resolve(root), target) {
			return nil
		}
	}
	return fmt.Errorf("directory %q is outside the working directory and the output roots", args.Directory)
}

func (cfg Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(cfg.WorkingDirectory, dir)
}

// within reports whether path lies strictly below root.
func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
