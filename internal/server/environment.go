// Package server implements the process-wide environment bootstrap spec §5
// calls for: a writable directory, a Catalog, an Executor wired to it, and
// the logger threaded into the executor. It mirrors the way the teacher's
// server.CentauriDB type owns and wires its managers (file/log/buffer/
// metadata/planner) behind a handful of accessors.
package server

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"sql5300/internal/catalog"
	"sql5300/internal/exec"
)

// Environment owns the catalog and executor for one process lifetime. Both
// are built once, eagerly, by Open; access is never concurrent.
type Environment struct {
	dir string
	log *logrus.Logger
	cat *catalog.Catalog
	ex  *exec.Executor
}

// Open creates dir if missing and bootstraps the catalog and executor over
// it. Exit code -1 on failure is the caller's responsibility (spec §6).
func Open(dir string) (*Environment, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("server: create directory %s: %w", dir, err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cat := catalog.NewCatalog(dir)
	if err := cat.Open(); err != nil {
		return nil, fmt.Errorf("server: open catalog: %w", err)
	}

	env := &Environment{
		dir: dir,
		log: log,
		cat: cat,
		ex:  exec.New(cat, log),
	}
	log.WithField("dir", dir).Info("environment opened")
	return env, nil
}

// Executor returns the environment's SQLExec entrypoint.
func (e *Environment) Executor() *exec.Executor { return e.ex }

// Catalog returns the environment's catalog, for callers (the self-test
// runner) that need direct access to table/index resolution.
func (e *Environment) Catalog() *catalog.Catalog { return e.cat }

// Logger returns the environment's shared logger.
func (e *Environment) Logger() *logrus.Logger { return e.log }

// Dir returns the writable directory this environment was opened against.
func (e *Environment) Dir() string { return e.dir }
