// pkg/source/sheetmap.go
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SheetMap maps a workbook file name to the worksheet holding its schedule
type SheetMap map[string]string

// LoadSheetMap reads a JSON object of file name to sheet name. A missing
// file yields a nil map.
func LoadSheetMap(path string) (SheetMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sheet map %s: %w", path, err)
	}

	var m SheetMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sheet map %s: %w", path, err)
	}
	if m == nil {
		m = SheetMap{}
	}
	return m, nil
}

// Discover lists the workbooks of dir sorted by name. With a nil map every
// workbook is read from its first sheet; otherwise unmapped files are skipped.
// Office lock files (~$name.xlsx) are ignored.
func Discover(dir string, sheets SheetMap, headerRow int, logger *zap.Logger) ([]Source, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list workbooks in %s: %w", dir, err)
	}
	sort.Strings(paths)

	var sources []Source
	for _, p := range paths {
		name := filepath.Base(p)
		if strings.HasPrefix(name, "~$") {
			continue
		}
		sheet := ""
		if sheets != nil {
			var ok bool
			if sheet, ok = sheets[name]; !ok {
				logger.Info("Skipping unmapped workbook", zap.String("file", name))
				continue
			}
		}
		sources = append(sources, NewXLSXSource(p, sheet, headerRow))
	}
	return sources, nil
}

// DirectoryProvider discovers workbooks in a directory on every run
type DirectoryProvider struct {
	Dir          string
	SheetMapPath string
	HeaderRow    int
	logger       *zap.Logger
}

// NewDirectoryProvider creates a provider over dir
func NewDirectoryProvider(dir, sheetMapPath string, headerRow int, logger *zap.Logger) *DirectoryProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryProvider{
		Dir:          dir,
		SheetMapPath: sheetMapPath,
		HeaderRow:    headerRow,
		logger:       logger.Named("xlsx-provider"),
	}
}

// Sources reloads the sheet map and lists the workbooks
func (p *DirectoryProvider) Sources(ctx context.Context) ([]Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sheets SheetMap
	if p.SheetMapPath != "" {
		m, err := LoadSheetMap(p.SheetMapPath)
		if err != nil {
			return nil, err
		}
		sheets = m
	}

	return Discover(p.Dir, sheets, p.HeaderRow, p.logger)
}
