package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/attendance-cam/internal/attendance/csvfile"
	"github.com/kozaktomas/attendance-cam/internal/config"
	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/database/mariadb"
	"github.com/kozaktomas/attendance-cam/internal/database/postgres"
	"github.com/kozaktomas/attendance-cam/internal/database/sqlite"
	"github.com/kozaktomas/attendance-cam/internal/gallery"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
)

// backends holds the storage opened for a command. Close releases every
// connection that was opened.
type backends struct {
	attendance database.AttendanceStore
	references database.ReferenceCache
	closers    []func() error
	out        io.Writer
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
		}
	}
	b.closers = nil
}

// postgresPool opens the shared PostgreSQL pool once per command.
func (b *backends) postgresPool(ctx context.Context, cfg *config.Config, pool **postgres.Pool) (*postgres.Pool, error) {
	if *pool != nil {
		return *pool, nil
	}
	fmt.Fprintf(b.out, "Connecting to PostgreSQL database...\n")
	p, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, p.Close)
	*pool = p
	return p, nil
}

// openAttendanceStore opens the configured attendance backend.
func (b *backends) openAttendanceStore(ctx context.Context, cfg *config.Config, pool **postgres.Pool) error {
	switch cfg.Attendance.Backend {
	case config.AttendanceCSV:
		b.attendance = csvfile.New(cfg.Attendance.Dir)
		fmt.Fprintf(b.out, "Attendance store: CSV files in %s\n", cfg.Attendance.Dir)
	case config.AttendanceSQLite:
		db, err := sqlite.New(cfg.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open SQLite attendance store: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		b.attendance = db
		fmt.Fprintf(b.out, "Attendance store: SQLite database %s\n", cfg.Database.SQLitePath)
	case config.AttendancePostgres:
		p, err := b.postgresPool(ctx, cfg, pool)
		if err != nil {
			return fmt.Errorf("failed to open PostgreSQL attendance store: %w", err)
		}
		b.attendance = postgres.NewAttendanceRepository(p)
		fmt.Fprintf(b.out, "Attendance store: PostgreSQL\n")
	case config.AttendanceMySQL:
		p, err := mariadb.NewPool(ctx, cfg.Database.MySQLDSN)
		if err != nil {
			return fmt.Errorf("failed to open MySQL attendance store: %w", err)
		}
		b.closers = append(b.closers, p.Close)
		b.attendance = mariadb.NewAttendanceRepository(p)
		fmt.Fprintf(b.out, "Attendance store: MySQL\n")
	default:
		return fmt.Errorf("unknown attendance backend %q", cfg.Attendance.Backend)
	}
	return nil
}

// openReferenceCache opens the configured gallery representation cache.
func (b *backends) openReferenceCache(ctx context.Context, cfg *config.Config, pool **postgres.Pool) error {
	switch cfg.Gallery.Cache {
	case config.CacheFile:
		b.references = gallery.NewFileCache(cfg.Gallery.Dir)
	case config.CachePostgres:
		p, err := b.postgresPool(ctx, cfg, pool)
		if err != nil {
			return fmt.Errorf("failed to open PostgreSQL reference cache: %w", err)
		}
		b.references = postgres.NewReferenceRepository(p)
		fmt.Fprintf(b.out, "Gallery cache: PostgreSQL\n")
	default:
		return fmt.Errorf("unknown gallery cache %q", cfg.Gallery.Cache)
	}
	return nil
}

// openBackends opens the storage a command needs. On error everything
// opened so far is closed.
// Progress messages go to out.
func openBackends(ctx context.Context, cfg *config.Config, out io.Writer, withAttendance, withReferences bool) (*backends, error) {
	b := &backends{out: out}
	var pool *postgres.Pool

	if withAttendance {
		if err := b.openAttendanceStore(ctx, cfg, &pool); err != nil {
			b.Close()
			return nil, err
		}
	}
	if withReferences {
		if err := b.openReferenceCache(ctx, cfg, &pool); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// galleryKey addresses the representations of the configured model and detector.
func galleryKey(cfg *config.Config) database.CacheKey {
	return database.CacheKey{Model: string(cfg.Recognition.Model), Detector: string(cfg.Recognition.Detector)}
}

// newGalleryStore creates the gallery over the configured cache.
func newGalleryStore(cfg *config.Config, rep *recognition.Client, cache database.ReferenceCache) *gallery.Store {
	return gallery.NewStore(cfg.Gallery.Dir, rep, cache, galleryKey(cfg))
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
