package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

var profiles = mustLoadProfiles()

type Config struct {
	Camera      CameraConfig
	Recognition RecognitionConfig
	Gallery     GalleryConfig
	Attendance  AttendanceConfig
	Database    DatabaseConfig
	Loop        LoopConfig
	Web         WebConfig
}

type CameraConfig struct {
	Index  int  // video device index
	Width  int  // requested frame width, defaults to 640
	Height int  // requested frame height, defaults to 480
	Mirror bool // flip frames horizontally (selfie view)
}

type RecognitionConfig struct {
	URL       string // recognition service base URL, defaults to http://localhost:5005
	Model     Model
	Detector  Detector
	Threshold float64 // maximum accepted distance
}

// CacheBackend selects where precomputed reference representations are kept.
type CacheBackend string

// Supported reference cache backends.
const (
	CacheFile     CacheBackend = "file"
	CachePostgres CacheBackend = "postgres"
)

type GalleryConfig struct {
	Dir   string // directory of reference images, defaults to "faces"
	Cache CacheBackend
}

// AttendanceBackend selects the durable per-day attendance store.
type AttendanceBackend string

// Supported attendance backends.
const (
	AttendanceCSV      AttendanceBackend = "csv"
	AttendanceSQLite   AttendanceBackend = "sqlite"
	AttendancePostgres AttendanceBackend = "postgres"
	AttendanceMySQL    AttendanceBackend = "mysql"
)

type AttendanceConfig struct {
	Backend AttendanceBackend
	Dir     string // directory of daily CSV files, defaults to "logs"
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MySQLDSN     string // MySQL/MariaDB DSN (e.g., user:pass@tcp(localhost:3306)/attendance)
	SQLitePath   string // SQLite database file, defaults to logs/attendance.db
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type LoopConfig struct {
	PacingDelay time.Duration // delay between iterations
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

// ProfilesConfig describes the models and detectors known to the recognition service.
type ProfilesConfig struct {
	Models    map[string]ModelProfile    `yaml:"models"`
	Detectors map[string]DetectorProfile `yaml:"detectors"`
}

type ModelProfile struct {
	Name string `yaml:"name"`
	Dim  int    `yaml:"dim"`
}

type DetectorProfile struct {
	Name string `yaml:"name"`
}

func mustLoadProfiles() ProfilesConfig {
	var p ProfilesConfig
	if err := yaml.Unmarshal(modelsYAML, &p); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}
	return p
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envIndex is like envInt but accepts zero. Invalid values are kept as -1
// so that Validate can reject them instead of silently using the default.
func envIndex(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// envFloat reads a float environment variable. Invalid values yield zero,
// which Validate rejects.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated list, dropping empty items.
func envList(key string) []string {
	var items []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func Load() *Config {
	attendanceDir := envString("ATTENDANCE_DIR", "logs")

	return &Config{
		Camera: CameraConfig{
			Index:  envIndex("CAMERA_INDEX", 0),
			Width:  envInt("CAMERA_WIDTH", constants.DefaultCaptureWidth),
			Height: envInt("CAMERA_HEIGHT", constants.DefaultCaptureHeight),
			Mirror: envBool("CAMERA_MIRROR", true),
		},
		Recognition: RecognitionConfig{
			URL:       envString("RECOGNITION_URL", "http://localhost:5005"),
			Model:     Model(strings.ToLower(envString("RECOGNITION_MODEL", string(ModelVGGFace)))),
			Detector:  Detector(strings.ToLower(envString("RECOGNITION_DETECTOR", string(DetectorOpenCV)))),
			Threshold: envFloat("MATCH_THRESHOLD", constants.DefaultMatchThreshold),
		},
		Gallery: GalleryConfig{
			Dir:   envString("GALLERY_DIR", "faces"),
			Cache: CacheBackend(strings.ToLower(envString("GALLERY_CACHE", string(CacheFile)))),
		},
		Attendance: AttendanceConfig{
			Backend: AttendanceBackend(strings.ToLower(envString("ATTENDANCE_BACKEND", string(AttendanceCSV)))),
			Dir:     attendanceDir,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MySQLDSN:     os.Getenv("MYSQL_DSN"),
			SQLitePath:   envString("SQLITE_PATH", attendanceDir+"/attendance.db"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Loop: LoopConfig{
			PacingDelay: time.Duration(envIndex("LOOP_PACING_MS", int(constants.DefaultPacingDelay/time.Millisecond))) * time.Millisecond,
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "127.0.0.1"),
			Port:           envInt("WEB_PORT", constants.DefaultWebPort),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
	}
}

// Validate rejects configurations that cannot start a run. It also
// canonicalizes the model and detector names.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Index < 0 || c.Camera.Index > constants.MaxCameraIndex {
		errs = append(errs, fmt.Errorf("camera index must be between 0 and %d, got %d", constants.MaxCameraIndex, c.Camera.Index))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid capture size %dx%d", c.Camera.Width, c.Camera.Height))
	}

	if m, err := ParseModel(string(c.Recognition.Model)); err != nil {
		errs = append(errs, err)
	} else {
		c.Recognition.Model = m
	}
	if d, err := ParseDetector(string(c.Recognition.Detector)); err != nil {
		errs = append(errs, err)
	} else {
		c.Recognition.Detector = d
	}
	if c.Recognition.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("match threshold must be positive, got %v", c.Recognition.Threshold))
	}
	if c.Recognition.URL == "" {
		errs = append(errs, errors.New("RECOGNITION_URL is required"))
	}

	if c.Gallery.Dir == "" {
		errs = append(errs, errors.New("GALLERY_DIR is required"))
	}
	switch c.Gallery.Cache {
	case CacheFile:
	case CachePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres gallery cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown gallery cache %q (supported: file, postgres)", c.Gallery.Cache))
	}

	if err := c.validateAttendance(); err != nil {
		errs = append(errs, err)
	}

	if c.Loop.PacingDelay < 0 {
		errs = append(errs, fmt.Errorf("loop pacing delay must not be negative, got %s", c.Loop.PacingDelay))
	}

	return errors.Join(errs...)
}

func (c *Config) validateAttendance() error {
	switch c.Attendance.Backend {
	case AttendanceCSV:
		if c.Attendance.Dir == "" {
			return errors.New("ATTENDANCE_DIR is required for the csv attendance backend")
		}
	case AttendanceSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite attendance backend")
		}
	case AttendancePostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres attendance backend")
		}
	case AttendanceMySQL:
		if c.Database.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required for the mysql attendance backend")
		}
	default:
		return fmt.Errorf("unknown attendance backend %q (supported: csv, sqlite, postgres, mysql)", c.Attendance.Backend)
	}
	return nil
}
