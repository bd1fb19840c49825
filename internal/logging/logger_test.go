package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetLoggingState() {
	CloseAll()
	CloseAudit()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	configLoaded = false
	config = loggingConfig{}
	auditLogger = nil
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true.
func TestAllCategoriesLog(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configDir := filepath.Join(tempDir, ".golog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configContent := `
logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    engine: true
    exog: true
    history: true
    activity: true
    platform: true
    reasoner: true
    cli: true
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot, CategoryEngine, CategoryExog, CategoryHistory,
		CategoryActivity, CategoryPlatform, CategoryReasoner, CategoryCLI,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	Boot("Convenience boot log")
	Engine("Convenience engine log")
	Exog("Convenience exog log")
	History("Convenience history log")
	Activity("Convenience activity log")
	Platform("Convenience platform log")
	Reasoner("Convenience reasoner log")
	CLI("Convenience cli log")

	resetLoggingState()

	logsPath := filepath.Join(tempDir, ".golog", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	t.Logf("Created %d log files in %s", len(entries), logsPath)

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.Contains(entry.Name(), string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false.
func TestDebugModeDisabled(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_disabled")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configDir := filepath.Join(tempDir, ".golog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configContent := `
logging:
  level: debug
  debug_mode: false
  categories:
    boot: true
    engine: true
    activity: true
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Error("Expected debug mode to be DISABLED (production mode)")
	}

	for _, cat := range []Category{CategoryBoot, CategoryEngine, CategoryActivity, CategoryExog} {
		if IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be DISABLED when debug_mode=false", cat)
		}
	}

	Boot("This should NOT be logged")
	Engine("This should NOT be logged")
	Activity("This should NOT be logged")

	logger := Get(CategoryBoot)
	logger.Info("This should NOT be logged")
	logger.Debug("This should NOT be logged")
	logger.Error("This should NOT be logged")

	resetLoggingState()

	logsPath := filepath.Join(tempDir, ".golog", "logs")
	_, err = os.Stat(logsPath)
	if err == nil {
		entries, _ := os.ReadDir(logsPath)
		if len(entries) > 0 {
			t.Errorf("Expected NO log files in production mode, but found %d files", len(entries))
		}
	} else if !os.IsNotExist(err) {
		t.Fatalf("unexpected stat error: %v", err)
	}
}

// TestCategoryToggle tests individual category enable/disable.
func TestCategoryToggle(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_category")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configDir := filepath.Join(tempDir, ".golog")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configContent := `
logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    engine: true
    activity: false
    exog: false
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if !IsCategoryEnabled(CategoryEngine) {
		t.Error("engine should be enabled")
	}
	if IsCategoryEnabled(CategoryActivity) {
		t.Error("activity should be DISABLED")
	}
	if IsCategoryEnabled(CategoryExog) {
		t.Error("exog should be DISABLED")
	}
	if !IsCategoryEnabled(CategoryHistory) {
		t.Error("history (not in config) should default to enabled")
	}

	Boot("This SHOULD be logged")
	Engine("This SHOULD be logged")
	Activity("This should NOT be logged")
	Exog("This should NOT be logged")
	History("This SHOULD be logged (default enabled)")

	resetLoggingState()

	logsPath := filepath.Join(tempDir, ".golog", "logs")
	entries, _ := os.ReadDir(logsPath)

	var hasBoot, hasEngine, hasActivity, hasExog bool
	for _, e := range entries {
		name := e.Name()
		hasBoot = hasBoot || strings.Contains(name, "boot")
		hasEngine = hasEngine || strings.Contains(name, "engine")
		hasActivity = hasActivity || strings.Contains(name, "activity")
		hasExog = hasExog || strings.Contains(name, "exog")
	}

	if !hasBoot {
		t.Error("Expected boot log file")
	}
	if !hasEngine {
		t.Error("Expected engine log file")
	}
	if hasActivity {
		t.Error("Should NOT have activity log file (disabled)")
	}
	if hasExog {
		t.Error("Should NOT have exog log file (disabled)")
	}
}

// TestTimerLogging tests the timing helper.
func TestTimerLogging(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_timer")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configDir := filepath.Join(tempDir, ".golog")
	os.MkdirAll(configDir, 0755)
	os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("logging:\n  level: debug\n  debug_mode: true\n"), 0644)

	resetLoggingState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	timer := StartTimer(CategoryEngine, "TestOperation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()

	if elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}

	resetLoggingState()
}
