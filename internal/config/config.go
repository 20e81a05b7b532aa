package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the application configuration. The project root is an explicit
// value threaded to every consumer; nothing in the pipeline derives paths
// from ambient process state.
type Config struct {
	ProjectRoot string `toml:"project_root"`
	OutputDir   string `toml:"output_dir"`
	PayloadName string `toml:"payload_name"`

	LogDir    string `toml:"log_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	HistoryLimit int `toml:"history_limit"`

	LLM   LLM   `toml:"llm"`
	Tools Tools `toml:"tools"`
}

// LLM contains connection settings for the report-synthesis model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tools names the external collaborator binaries invoked by the stages.
type Tools struct {
	Separator       string   `toml:"separator"`
	WhisperX        string   `toml:"whisperx"`
	FFmpeg          string   `toml:"ffmpeg"`
	Tagger          string   `toml:"tagger"`
	HFTokenEnv      string   `toml:"hf_token_env"`
	SeparatorModels []string `toml:"separator_models"`
}

// DefaultConfigPath returns the canonical user config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mikup/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. A
// missing file yields defaults rather than an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mikup.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		c.ProjectRoot = cwd
	}

	var err error
	if c.ProjectRoot, err = expandPath(c.ProjectRoot); err != nil {
		return err
	}
	if c.OutputDir, err = expandPath(c.OutputDir); err != nil {
		return err
	}
	if c.LogDir != "" {
		if c.LogDir, err = expandPath(c.LogDir); err != nil {
			return err
		}
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if strings.TrimSpace(c.PayloadName) == "" {
		c.PayloadName = defaultPayloadName
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultHistoryLimit
	}

	c.normalizeLLM()
	c.normalizeTools()
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, env := range []string{"MIKUP_LLM_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				c.LLM.APIKey = v
				break
			}
		}
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.Separator) == "" {
		c.Tools.Separator = defaultSeparatorBinary
	}
	if strings.TrimSpace(c.Tools.WhisperX) == "" {
		c.Tools.WhisperX = defaultWhisperXBinary
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Tools.Tagger) == "" {
		c.Tools.Tagger = defaultTaggerBinary
	}
	if strings.TrimSpace(c.Tools.HFTokenEnv) == "" {
		c.Tools.HFTokenEnv = defaultHFTokenEnv
	}
	if len(c.Tools.SeparatorModels) == 0 {
		c.Tools.SeparatorModels = append([]string{}, defaultSeparatorModels...)
	}
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.OutputDir}
	if strings.TrimSpace(c.LogDir) != "" {
		dirs = append(dirs, c.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run history log location, fixed relative to the
// project root so the UI shell can find it without configuration.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.ProjectRoot, "data", "history.json")
}

// HFToken resolves the HuggingFace token used for diarization, if any.
func (c *Config) HFToken() string {
	return strings.TrimSpace(os.Getenv(c.Tools.HFTokenEnv))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
