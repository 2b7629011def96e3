package upgrade

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ReplaceConfigValue substitutes a configuration value in either a
// KEY=value .env file or a Ruby AppConfig file, keyed by the setting name.
// Lines that do not mention the key are left untouched.
func ReplaceConfigValue(key, oldValue, newValue, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var content string
	if strings.HasSuffix(path, ".rb") {
		content = replaceRubyValue(string(data), key, oldValue, newValue)
	} else {
		content = replaceEnvValue(string(data), key, oldValue, newValue)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// replaceRubyValue substitutes oldValue with newValue on lines carrying
// the AppConfig key, keeping everything before the value intact.
func replaceRubyValue(content, key, oldValue, newValue string) string {
	pattern := regexp.MustCompile("(" + regexp.QuoteMeta(key) + ".*?)" + regexp.QuoteMeta(oldValue))
	return pattern.ReplaceAllString(content, "${1}"+newValue)
}

// replaceEnvValue rewrites KEY=... lines whose value mentions oldValue.
func replaceEnvValue(content, key, oldValue, newValue string) string {
	pattern := regexp.MustCompile("(?m)^" + regexp.QuoteMeta(key) + "=.*" + regexp.QuoteMeta(oldValue) + ".*$")
	return pattern.ReplaceAllString(content, key+"="+newValue)
}
