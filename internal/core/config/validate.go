package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/asmbench/internal/core/styles"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("server.base_url", c.Server.BaseURL, httpURL),
		criterio.Run("server.timeout", c.Server.Timeout, positiveDuration),
		criterio.Run("server.source_name", c.Server.SourceName, notEmpty),
		criterio.Run("cache.documents", c.Cache.Documents, atLeastOne),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
		c.validateCompile(),
		c.validateS3(),
		c.validateKeybindings(),
	)
}

// ValidateDeep performs Validate and then checks the config file and
// directories on disk.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("export.dir", c.Export.Dir, isDirectoryOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Compile.Standard == "" || c.Compile.Processor == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Compile",
			Message:  "no default standard or processor; compile needs both flags",
		})
	}
	if c.Export.S3.Enabled && !c.Export.S3.UseSSL {
		warnings = append(warnings, ValidationWarning{
			Category: "Export",
			Item:     "s3",
			Message:  "credentials are sent without TLS",
		})
	}

	return warnings
}

// validateCompile checks default compile options. Defaults may be partial,
// but whatever is set must come from the option tables.
func (c *Config) validateCompile() error {
	o := c.Compile
	if o.Standard == "" {
		o.Standard = "c99"
	}
	if o.Processor == "" {
		if len(o.Dependent) > 0 {
			return criterio.NewFieldErrors("compile.dependent", errors.New("requires compile.processor"))
		}
		o.Processor = "mcs51"
	}
	if err := o.Validate(); err != nil {
		return criterio.NewFieldErrors("compile", err)
	}
	return nil
}

func (c *Config) validateS3() error {
	s3 := c.Export.S3
	if !s3.Enabled {
		return nil
	}
	return criterio.ValidateStruct(
		criterio.Run("export.s3.endpoint", s3.Endpoint, notEmpty),
		criterio.Run("export.s3.bucket", s3.Bucket, notEmpty),
		criterio.Run("export.s3.access_key", s3.AccessKey, notEmpty),
		criterio.Run("export.s3.secret_key", s3.SecretKey, notEmpty),
	)
}

func (c *Config) validateKeybindings() error {
	var errs criterio.FieldErrorsBuilder
	for key, kb := range c.Keybindings {
		field := fmt.Sprintf("keybindings[%q]", key)
		if kb.Action == "" {
			errs = errs.Append(field, errors.New("action is required"))
			continue
		}
		if !isValidAction(kb.Action) {
			errs = errs.Append(field, fmt.Errorf("invalid action %q", kb.Action))
		}
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func httpURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q, expected one of %v", name, styles.ThemeNames())
	}
	return nil
}

func atLeastOne(n int) error {
	if n < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}
