package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	repository "github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func openTempStore(t *testing.T, opts ...repository.Option) *repository.Store {
	t.Helper()
	store, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "score.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen(t *testing.T) {
	Convey("Given a store path", t, func() {
		ctx := context.Background()

		Convey("When the path is empty", func() {
			_, err := repository.Open(ctx, "  ")

			Convey("Then it fails as unavailable", func() {
				So(errors.Is(err, repository.ErrStorageUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the parent directory does not exist yet", func() {
			path := filepath.Join(t.TempDir(), "nested", "dir", "score.db")
			store, err := repository.Open(ctx, path)
			So(err, ShouldBeNil)
			defer store.Close()

			Convey("Then the file is created", func() {
				_, statErr := os.Stat(path)
				So(statErr, ShouldBeNil)
				So(store.Path(), ShouldEqual, path)
			})
		})

		Convey("When the path points at a directory", func() {
			_, err := repository.Open(ctx, t.TempDir())

			Convey("Then it fails as unavailable", func() {
				So(errors.Is(err, repository.ErrStorageUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the same file is opened twice", func() {
			path := filepath.Join(t.TempDir(), "score.db")
			first, err := repository.Open(ctx, path)
			So(err, ShouldBeNil)
			err = first.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
				_, err := conn.ExecContext(ctx, `INSERT INTO scores (name, score) VALUES ('keep', 1)`)
				return err
			})
			So(err, ShouldBeNil)
			So(first.Close(), ShouldBeNil)

			second, err := repository.Open(ctx, path)
			So(err, ShouldBeNil)
			defer second.Close()

			Convey("Then the schema step leaves existing rows alone", func() {
				n, err := second.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, int64(1))
			})
		})
	})
}

func TestSchemaConstraints(t *testing.T) {
	Convey("Given an open store", t, func() {
		store := openTempStore(t)
		ctx := context.Background()

		Convey("When inserting a row without a name", func() {
			err := store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
				_, err := conn.ExecContext(ctx, `INSERT INTO scores (score) VALUES (1)`)
				return err
			})

			Convey("Then SQLite rejects it as a constraint violation", func() {
				So(err, ShouldNotBeNil)
				So(repository.IsConstraintViolation(err), ShouldBeTrue)
				So(repository.Kind(err), ShouldEqual, "constraint")
			})
		})

		Convey("When inserting a row with a NULL score", func() {
			err := store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
				_, err := conn.ExecContext(ctx, `INSERT INTO scores (name, score) VALUES ('x', NULL)`)
				return err
			})

			Convey("Then SQLite rejects it", func() {
				So(repository.IsConstraintViolation(err), ShouldBeTrue)
			})
		})

		Convey("When inserting several rows", func() {
			var ids []int64
			for i := 0; i < 3; i++ {
				err := store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
					res, err := conn.ExecContext(ctx, `INSERT INTO scores (name, score) VALUES ('n', 5)`)
					if err != nil {
						return err
					}
					id, err := res.LastInsertId()
					ids = append(ids, id)
					return err
				})
				So(err, ShouldBeNil)
			}

			Convey("Then ids increase with insertion order", func() {
				So(ids[0], ShouldBeLessThan, ids[1])
				So(ids[1], ShouldBeLessThan, ids[2])
			})
		})
	})
}

func TestAcquire(t *testing.T) {
	Convey("Given a store with a single pooled connection", t, func() {
		store := openTempStore(t,
			repository.WithMaxOpenConns(1),
			repository.WithAcquireTimeout(50*time.Millisecond),
		)
		ctx := context.Background()

		Convey("When the only connection is checked out", func() {
			held, err := store.Acquire(ctx)
			So(err, ShouldBeNil)

			_, err = store.Acquire(ctx)

			Convey("Then a second acquire times out as pool exhausted", func() {
				So(errors.Is(err, repository.ErrPoolExhausted), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(repository.Kind(err), ShouldEqual, "pool_exhausted")
			})

			Convey("And releasing it lets the next caller through", func() {
				So(held.Close(), ShouldBeNil)
				conn, err := store.Acquire(ctx)
				So(err, ShouldBeNil)
				So(conn.Close(), ShouldBeNil)
			})
		})

		Convey("When WithConn's callback fails", func() {
			boom := errors.New("boom")
			err := store.WithConn(ctx, func(context.Context, *sqlx.Conn) error { return boom })

			Convey("Then the error is returned unchanged and the connection released", func() {
				So(err, ShouldEqual, boom)
				So(store.Stats().InUse, ShouldEqual, 0)
			})
		})

		Convey("When WithConn's callback panics", func() {
			So(func() {
				_ = store.WithConn(ctx, func(context.Context, *sqlx.Conn) error { panic("bad") })
			}, ShouldPanic)

			Convey("Then the connection is still released", func() {
				So(store.Stats().InUse, ShouldEqual, 0)
				So(store.Ping(ctx), ShouldBeNil)
			})
		})

		Convey("When callers queue for the connection", func() {
			store := openTempStore(t, repository.WithMaxOpenConns(1))
			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- store.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
						_, err := conn.ExecContext(ctx, `INSERT INTO scores (name, score) VALUES ('q', 1)`)
						return err
					})
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then they block and proceed in turn instead of failing", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, int64(8))
			})
		})
	})
}

func TestClosedStore(t *testing.T) {
	Convey("Given a closed store", t, func() {
		store, err := repository.Open(context.Background(), filepath.Join(t.TempDir(), "score.db"))
		So(err, ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When acquiring", func() {
			_, err := store.Acquire(context.Background())

			Convey("Then it fails as a storage error", func() {
				So(errors.Is(err, repository.ErrStorage), ShouldBeTrue)
				So(repository.Kind(err), ShouldEqual, "storage")
			})
		})

		Convey("When closing again", func() {
			So(store.Close(), ShouldBeNil)
		})
	})
}
