package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Ошибки стратегий.
var (
	// ErrManualIntervention — восстановление требует ручного вмешательства.
	ErrManualIntervention = errors.New("manual intervention required")

	// ErrUnrecoverable — вид ошибки документируется, но не исправляется.
	ErrUnrecoverable = errors.New("not automatically recoverable")
)

// Roots — корневые каталоги для файловых стратегий.
//
// Внедряются при создании диспетчера: стратегии не пишут
// в текущий каталог процесса.
type Roots struct {
	// Workdir — база для поиска .env-файлов и потерянных файлов.
	Workdir string

	// StateDir — каталог checkpoint'ов workflow-циклов.
	StateDir string

	// StorageDir — каталог хранилища (для storage-failure).
	StorageDir string
}

func (r Roots) normalized() Roots {
	if r.Workdir == "" {
		r.Workdir = "."
	}
	if r.StateDir == "" {
		r.StateDir = filepath.Join(r.Workdir, "state")
	}
	if r.StorageDir == "" {
		r.StorageDir = filepath.Join(r.Workdir, "storage")
	}
	return r
}

// envFiles — файлы, в которых ищутся ключи.
var envFiles = []string{".env", ".env.local", ".env.production", filepath.Join("config", ".env")}

// envTemplate — шаблон, создаваемый когда ключи не найдены.
const envTemplate = `# API configuration
# Fill in valid API keys and rename this file to .env

OPENAI_API_KEY=your_openai_key_here
ANTHROPIC_API_KEY=your_anthropic_key_here
STORAGE_API_KEY=your_storage_key_here
`

// recoverCredentials ищет API-ключи в .env-файлах и окружении.
// Если ничего не найдено, создаёт .env.template.
func recoverCredentials(roots Roots) Strategy {
	return func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		found := make([]string, 0)

		for _, name := range envFiles {
			path := filepath.Join(roots.Workdir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			for _, line := range strings.Split(string(data), "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
					continue
				}
				key := strings.SplitN(line, "=", 2)[0]
				if isCredentialKey(key) {
					found = append(found, key)
				}
			}
		}

		for _, env := range os.Environ() {
			key := strings.SplitN(env, "=", 2)[0]
			if isCredentialKey(key) {
				found = append(found, key)
			}
		}

		if len(found) > 0 {
			return map[string]any{
				"found_keys": found,
				"message":    fmt.Sprintf("%d credential key(s) found", len(found)),
			}, nil
		}

		// Ключей нет — создаём шаблон для заполнения.
		templatePath := filepath.Join(roots.Workdir, ".env.template")
		if err := os.WriteFile(templatePath, []byte(envTemplate), 0o600); err != nil {
			return nil, fmt.Errorf("create env template: %w", err)
		}

		return map[string]any{
			"template_created": true,
			"template_path":    templatePath,
			"message":          "no credentials found, .env.template created",
		}, nil
	}
}

// isCredentialKey проверяет, похоже ли имя переменной на ключ.
func isCredentialKey(key string) bool {
	upper := strings.ToUpper(key)
	return strings.Contains(upper, "API") || strings.Contains(upper, "KEY")
}

// searchDirs — альтернативные каталоги для поиска потерянных файлов.
var searchDirs = []string{".", "config", "scripts", "data", "backup"}

// recoverMissingFile ищет файл по альтернативным путям;
// если файл не найден нигде — создаёт минимальную заглушку.
func recoverMissingFile(roots Roots) Strategy {
	return func(_ context.Context, details map[string]any, _ string) (map[string]any, error) {
		missing, _ := details["file_path"].(string)
		if missing == "" {
			return nil, errors.New("details missing file_path")
		}

		filename := filepath.Base(missing)
		for _, dir := range searchDirs {
			candidate := filepath.Join(roots.Workdir, dir, filename)
			if _, err := os.Stat(candidate); err == nil {
				return map[string]any{
					"found_path": candidate,
					"message":    fmt.Sprintf("file found at %s", candidate),
				}, nil
			}
		}

		created := filepath.Join(roots.Workdir, filename)
		if err := createPlaceholder(created); err != nil {
			return nil, fmt.Errorf("create placeholder: %w", err)
		}

		return map[string]any{
			"created_path": created,
			"placeholder":  true,
			"message":      fmt.Sprintf("placeholder created at %s", created),
		}, nil
	}
}

// createPlaceholder создаёт минимальный файл по расширению.
func createPlaceholder(path string) error {
	var content []byte

	switch filepath.Ext(path) {
	case ".json":
		doc := map[string]any{
			"name":           filepath.Base(path),
			"version":        "0.1.0",
			"created":        time.Now().Format(time.RFC3339),
			"auto_generated": true,
		}
		var err error
		content, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
	case ".md":
		content = []byte("# " + filepath.Base(path) + "\n\n## Overview\n\nAuto-generated placeholder.\n")
	default:
		content = []byte{}
	}

	return os.WriteFile(path, content, 0o644)
}

// recoverDependency проверяет, объявлен ли модуль в go.mod.
// Установка пакетов из пути восстановления не выполняется:
// стратегия только сообщает, чего не хватает.
func recoverDependency(roots Roots) Strategy {
	return func(_ context.Context, details map[string]any, _ string) (map[string]any, error) {
		module, _ := details["module"].(string)
		if module == "" {
			return nil, errors.New("details missing module")
		}

		manifest := filepath.Join(roots.Workdir, "go.mod")
		data, err := os.ReadFile(manifest)
		if err != nil {
			return map[string]any{
				"module":          module,
				"required_action": "no go.mod found, declare the dependency manually",
			}, fmt.Errorf("read manifest: %w", err)
		}

		if strings.Contains(string(data), module) {
			return map[string]any{
				"module":              module,
				"present_in_manifest": true,
				"message":             "module declared in go.mod, run the build to fetch it",
			}, nil
		}

		return map[string]any{
			"module":          module,
			"required_action": fmt.Sprintf("add %s to go.mod", module),
		}, ErrManualIntervention
	}
}

// recoverPermission — ошибки доступа не исправляются автоматически.
func recoverPermission(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
	return map[string]any{
		"required_action": "check file/directory permissions and user access rights",
	}, ErrManualIntervention
}

// recoverNetwork — сетевые ошибки не исправляются автоматически.
func recoverNetwork(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
	return map[string]any{
		"required_action": "check network connectivity and firewall settings",
	}, ErrManualIntervention
}

// cycleCheckpoint — checkpoint прерванного workflow-цикла.
type cycleCheckpoint struct {
	Phase     string `json:"phase"`
	NextPhase string `json:"next_phase,omitempty"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// recoverInterruptedCycle восстанавливает последний checkpoint цикла
// или создаёт новый, если его нет.
func recoverInterruptedCycle(roots Roots) Strategy {
	return func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		statePath := filepath.Join(roots.StateDir, "last_state.json")

		if data, err := os.ReadFile(statePath); err == nil {
			var cp cycleCheckpoint
			if err := json.Unmarshal(data, &cp); err != nil {
				return nil, fmt.Errorf("parse checkpoint: %w", err)
			}
			return map[string]any{
				"last_state": cp,
				"next_phase": cp.NextPhase,
				"message":    "cycle state recovered from checkpoint",
			}, nil
		}

		cp := cycleCheckpoint{
			Phase:     "init",
			Status:    "recovered",
			Timestamp: time.Now().Format(time.RFC3339),
		}
		data, err := json.MarshalIndent(cp, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(roots.StateDir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		if err := os.WriteFile(statePath, data, 0o644); err != nil {
			return nil, fmt.Errorf("write checkpoint: %w", err)
		}

		return map[string]any{
			"new_state": cp,
			"message":   "created fresh cycle checkpoint",
		}, nil
	}
}

// recoverStorage ищет резервную копию хранилища; если её нет,
// создаёт новый каталог хранилища.
func recoverStorage(roots Roots) Strategy {
	return func(_ context.Context, _ map[string]any, _ string) (map[string]any, error) {
		backups := []string{
			filepath.Join(roots.StorageDir, "backup"),
			filepath.Join(roots.Workdir, "backup"),
		}

		for _, path := range backups {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return map[string]any{
					"backup_path": path,
					"message":     "storage backup found",
				}, nil
			}
		}

		if err := os.MkdirAll(roots.StorageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}

		return map[string]any{
			"storage_path": roots.StorageDir,
			"message":      "created fresh storage directory",
		}, nil
	}
}

// recoverExecution документирует произвольный сбой выполнения.
// Восстановления нет: запись существует ради диагностики.
func recoverExecution(_ context.Context, details map[string]any, _ string) (map[string]any, error) {
	out := make(map[string]any, 2)
	if fn, ok := details["function"]; ok {
		out["function"] = fn
	}
	if msg, ok := details["error"]; ok {
		out["original_error"] = msg
	}
	return out, ErrUnrecoverable
}
