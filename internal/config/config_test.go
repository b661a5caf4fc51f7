package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Camera:      CameraConfig{Index: 0, Width: 640, Height: 480},
		Recognition: RecognitionConfig{URL: "http://localhost:5005", Model: ModelVGGFace, Detector: DetectorOpenCV, Threshold: 0.45},
		Gallery:     GalleryConfig{Dir: "faces", Cache: CacheFile},
		Attendance:  AttendanceConfig{Backend: AttendanceCSV, Dir: "logs"},
		Loop:        LoopConfig{PacingDelay: 10 * time.Millisecond},
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"CAMERA_INDEX", "CAMERA_WIDTH", "CAMERA_HEIGHT", "CAMERA_MIRROR",
		"RECOGNITION_URL", "RECOGNITION_MODEL", "RECOGNITION_DETECTOR", "MATCH_THRESHOLD",
		"GALLERY_DIR", "GALLERY_CACHE", "ATTENDANCE_BACKEND", "ATTENDANCE_DIR", "SQLITE_PATH", "LOOP_PACING_MS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Camera.Index != 0 {
		t.Errorf("expected camera index 0, got %d", cfg.Camera.Index)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if !cfg.Camera.Mirror {
		t.Error("expected mirroring enabled by default")
	}
	if cfg.Recognition.Threshold != 0.45 {
		t.Errorf("expected threshold 0.45, got %v", cfg.Recognition.Threshold)
	}
	if cfg.Recognition.Model != ModelVGGFace {
		t.Errorf("expected model %q, got %q", ModelVGGFace, cfg.Recognition.Model)
	}
	if cfg.Recognition.Detector != DetectorOpenCV {
		t.Errorf("expected detector %q, got %q", DetectorOpenCV, cfg.Recognition.Detector)
	}
	if cfg.Gallery.Dir != "faces" {
		t.Errorf("expected gallery dir 'faces', got '%s'", cfg.Gallery.Dir)
	}
	if cfg.Attendance.Backend != AttendanceCSV {
		t.Errorf("expected csv backend, got %q", cfg.Attendance.Backend)
	}
	if cfg.Database.SQLitePath != "logs/attendance.db" {
		t.Errorf("expected sqlite path under logs, got '%s'", cfg.Database.SQLitePath)
	}
	if cfg.Loop.PacingDelay != 10*time.Millisecond {
		t.Errorf("expected 10ms pacing, got %s", cfg.Loop.PacingDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CAMERA_INDEX", "2")
	t.Setenv("CAMERA_MIRROR", "false")
	t.Setenv("RECOGNITION_MODEL", "Facenet")
	t.Setenv("RECOGNITION_DETECTOR", "RetinaFace")
	t.Setenv("MATCH_THRESHOLD", "0.3")
	t.Setenv("LOOP_PACING_MS", "0")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if cfg.Camera.Index != 2 {
		t.Errorf("expected camera index 2, got %d", cfg.Camera.Index)
	}
	if cfg.Camera.Mirror {
		t.Error("expected mirroring disabled")
	}
	if cfg.Recognition.Model != ModelFacenet {
		t.Errorf("expected model %q, got %q", ModelFacenet, cfg.Recognition.Model)
	}
	if cfg.Recognition.Detector != DetectorRetinaFace {
		t.Errorf("expected detector %q, got %q", DetectorRetinaFace, cfg.Recognition.Detector)
	}
	if cfg.Recognition.Threshold != 0.3 {
		t.Errorf("expected threshold 0.3, got %v", cfg.Recognition.Threshold)
	}
	if cfg.Loop.PacingDelay != 0 {
		t.Errorf("expected zero pacing, got %s", cfg.Loop.PacingDelay)
	}
}

func TestValidate_RejectsUnknownModel(t *testing.T) {
	cfg := validConfig()
	cfg.Recognition.Model = "deepid"

	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestValidate_RejectsUnknownDetector(t *testing.T) {
	cfg := validConfig()
	cfg.Recognition.Detector = "yolo"

	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownDetector) {
		t.Fatalf("expected ErrUnknownDetector, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"camera index too high", func(c *Config) { c.Camera.Index = 10 }, "camera index"},
		{"camera index invalid", func(c *Config) { c.Camera.Index = -1 }, "camera index"},
		{"zero threshold", func(c *Config) { c.Recognition.Threshold = 0 }, "threshold"},
		{"missing gallery", func(c *Config) { c.Gallery.Dir = "" }, "GALLERY_DIR"},
		{"unknown cache", func(c *Config) { c.Gallery.Cache = "redis" }, "gallery cache"},
		{"postgres cache without url", func(c *Config) { c.Gallery.Cache = CachePostgres }, "DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.Attendance.Backend = "excel" }, "attendance backend"},
		{"mysql without dsn", func(c *Config) { c.Attendance.Backend = AttendanceMySQL }, "MYSQL_DSN"},
		{"postgres without url", func(c *Config) { c.Attendance.Backend = AttendancePostgres }, "DATABASE_URL"},
		{"negative pacing", func(c *Config) { c.Loop.PacingDelay = -time.Second }, "pacing"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected error to mention %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		input string
		want  Model
	}{
		{"vgg-face", ModelVGGFace},
		{"VGG-Face", ModelVGGFace},
		{" facenet ", ModelFacenet},
		{"OpenFace", ModelOpenFace},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseModel(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}

	if _, err := ParseModel("ArcFace"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestModelProfiles(t *testing.T) {
	if ModelVGGFace.WireName() != "VGG-Face" {
		t.Errorf("expected wire name 'VGG-Face', got '%s'", ModelVGGFace.WireName())
	}
	if ModelFacenet.Dim() != 128 {
		t.Errorf("expected Facenet dim 128, got %d", ModelFacenet.Dim())
	}
	for _, m := range Models() {
		if m.Dim() == 0 {
			t.Errorf("model %q has no profile", m)
		}
	}
	for _, d := range Detectors() {
		if d.WireName() == "" {
			t.Errorf("detector %q has no wire name", d)
		}
	}
}
