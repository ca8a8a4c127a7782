// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	ConfigFile     = "config.toml"
	LogFile        = "dresscode.log"
	FontsDir       = "fonts"
	FontCacheDir   = ".cache" // inside FontsDir; hidden so discovery skips it
	BackgroundsDir = "backgrounds"
	EmployeeFile   = "employee.json"
	OutputFile     = "background.png"
)

// Install constants.
const (
	BinaryName = "dresscode"
	DataDirRel = ".dresscode" // relative to $HOME
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Fonts returns the full path to the fonts directory.
func (d DataDir) Fonts() string { return filepath.Join(d.Root, FontsDir) }

// FontCache returns the Google Fonts download cache for fontsDir.
func FontCache(fontsDir string) string { return filepath.Join(fontsDir, FontCacheDir) }

// Backgrounds returns the full path to the backgrounds directory.
func (d DataDir) Backgrounds() string { return filepath.Join(d.Root, BackgroundsDir) }

// Employee returns the full path to the saved employee record.
func (d DataDir) Employee() string { return filepath.Join(d.Root, EmployeeFile) }

// Output returns the default path of the rendered background.
func (d DataDir) Output() string { return filepath.Join(d.Root, OutputFile) }
