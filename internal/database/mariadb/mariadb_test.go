//go:build integration

package mariadb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_USER":          "test",
			"MARIADB_PASSWORD":      "test",
			"MARIADB_DATABASE":      "testdb",
			"MARIADB_ROOT_PASSWORD": "root",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("test:test@tcp(%s:%s)/testdb?parseTime=true", host, port.Port())

	// The port accepts connections slightly before the server is ready.
	var pool *Pool
	for attempt := 0; attempt < 20; attempt++ {
		pool, err = NewPool(ctx, dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewAttendanceRepository(pool)

	rec := database.AttendanceRecord{Date: "2024-03-09", Identity: "Alice", Time: "08:00:00", Confidence: 80}
	if err := repo.Append(ctx, rec); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	rec.Time = "09:00:00"
	if err := repo.Append(ctx, rec); !errors.Is(err, database.ErrDuplicateRecord) {
		t.Fatalf("Expected ErrDuplicateRecord, got %v", err)
	}

	has, err := repo.HasRecord(ctx, "Alice", "2024-03-09")
	if err != nil {
		t.Fatalf("Failed to check record: %v", err)
	}
	if !has {
		t.Error("Expected record to exist")
	}

	records, err := repo.Records(ctx, "2024-03-09")
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Time != "08:00:00" {
		t.Errorf("Expected first write to win, got time %s", records[0].Time)
	}
}
