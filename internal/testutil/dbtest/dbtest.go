// Package dbtest starts throwaway databases with dockertest for integration tests.
package dbtest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// StartMySQL runs an isolated MySQL container with migrations applied.
func StartMySQL(t *testing.T) *sql.DB {
	t.Helper()
	resource, pool := run(t, &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=drivent",
		},
	})
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/drivent?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	db := connect(t, pool, "mysql", dsn)
	ApplyMigrations(t, db, MySQL)
	return db
}

// StartPostgres runs an isolated Postgres container with migrations applied.
func StartPostgres(t *testing.T) *sql.DB {
	t.Helper()
	resource, pool := run(t, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=drivent",
		},
	})
	dsn := fmt.Sprintf("host=127.0.0.1 port=%s user=postgres password=postgres dbname=drivent sslmode=disable",
		resource.GetPort("5432/tcp"))
	db := connect(t, pool, "postgres", dsn)
	ApplyMigrations(t, db, Postgres)
	return db
}

func run(t *testing.T, opts *dockertest.RunOptions) (*dockertest.Resource, *dockertest.Pool) {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run %s: %v", opts.Repository, err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })
	return resource, pool
}

func connect(t *testing.T, pool *dockertest.Pool, driver, dsn string) *sql.DB {
	t.Helper()
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open(driver, dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect %s: %v", driver, err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MigrationsDir honours MIGRATIONS_DIR, else the repo's migrations/<dialect>.
func MigrationsDir(d Dialect) string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return filepath.Join(v, string(d))
	}
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", string(d))
}

func ApplyMigrations(t *testing.T, db *sql.DB, d Dialect) {
	t.Helper()
	dir := MigrationsDir(d)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- fixtures ----------

type Fixtures struct {
	T       *testing.T
	DB      *sql.DB
	Dialect Dialect
	n       int
}

func (f *Fixtures) insert(table string, cols []string, vals ...any) int64 {
	f.T.Helper()
	ph := make([]string, len(cols))
	for i := range cols {
		if f.Dialect == Postgres {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(ph, ", "))

	if f.Dialect == Postgres {
		var id int64
		if err := f.DB.QueryRow(q+" RETURNING id", vals...).Scan(&id); err != nil {
			f.T.Fatalf("insert %s: %v", table, err)
		}
		return id
	}
	res, err := f.DB.Exec(q, vals...)
	if err != nil {
		f.T.Fatalf("insert %s: %v", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		f.T.Fatalf("last insert id %s: %v", table, err)
	}
	return id
}

func (f *Fixtures) User() int64 {
	f.n++
	return f.insert("users", []string{"email", "password"}, fmt.Sprintf("user%d@drivent.test", f.n), "x")
}

func (f *Fixtures) Session(userID int64, token string) int64 {
	return f.insert("sessions", []string{"user_id", "token"}, userID, token)
}

func (f *Fixtures) Enrollment(userID int64) int64 {
	return f.insert("enrollments", []string{"user_id", "name"}, userID, "Attendee")
}

func (f *Fixtures) TicketType(remote, hotel bool) int64 {
	return f.insert("ticket_types", []string{"name", "price", "is_remote", "includes_hotel"}, "Presencial", 250, remote, hotel)
}

func (f *Fixtures) Ticket(enrollmentID, typeID int64, status string) int64 {
	return f.insert("tickets", []string{"enrollment_id", "ticket_type_id", "status"}, enrollmentID, typeID, status)
}

func (f *Fixtures) Hotel(name, image string) int64 {
	return f.insert("hotels", []string{"name", "image"}, name, image)
}

func (f *Fixtures) Room(hotelID int64, name string, capacity int) int64 {
	return f.insert("rooms", []string{"name", "capacity", "hotel_id"}, name, capacity, hotelID)
}
