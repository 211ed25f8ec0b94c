package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kadirbelkuyu/pglifecycle/internal/config"
	"github.com/kadirbelkuyu/pglifecycle/internal/database"
	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ErrDumpFailed is returned when pg_dump exits with an error.
var ErrDumpFailed = errors.New("schema dump failed")

// Source produces the inventory of a database.
type Source interface {
	Inventory(ctx context.Context) (*inventory.Inventory, error)
}

// Dumper is a Source backed by a schema-only pg_dump run.
type Dumper struct {
	cfg *config.Config
	log *logger.Logger

	// connect is replaced in tests.
	connect func(ctx context.Context, cfg *config.Config) (*database.Connection, error)
}

func NewDumper(cfg *config.Config, log *logger.Logger) *Dumper {
	return &Dumper{
		cfg:     cfg,
		log:     log,
		connect: database.NewConnection,
	}
}

// Inventory checks that the server is reachable, dumps its schema into a
// working directory and parses the result. The working directory is kept so
// a failed run can be inspected.
func (d *Dumper) Inventory(ctx context.Context) (*inventory.Inventory, error) {
	serverVersion, err := d.preflight(ctx)
	if err != nil {
		return nil, err
	}

	outputPath, err := d.ensureOutputPath()
	if err != nil {
		return nil, err
	}

	args := d.buildDumpArgs(outputPath)
	if err := d.runCommand(ctx, d.cfg.Dump.Binary, args); err != nil {
		return nil, err
	}

	file, err := os.Open(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema dump: %w", err)
	}
	defer file.Close()

	inv, err := ParsePlain(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema dump %s: %w", outputPath, err)
	}
	if inv.ServerVersion == "" {
		inv.ServerVersion = serverVersion
	}

	d.log.Infof("extracted %d entries from %s (server %s, pg_dump %s)",
		len(inv.Entries), d.cfg.Database.Database, inv.ServerVersion, inv.DumpVersion)
	return inv, nil
}

func (d *Dumper) preflight(ctx context.Context) (string, error) {
	conn, err := d.connect(ctx, d.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDumpFailed, err)
	}
	defer conn.Close()

	version, err := conn.ServerVersion(ctx)
	if err != nil {
		d.log.Warnf("could not determine server version: %v", err)
		return "", nil
	}
	d.log.Debugf("connected to %s (PostgreSQL %s)", d.cfg.Database.Database, version)
	return version, nil
}

func (d *Dumper) ensureOutputPath() (string, error) {
	dir := d.cfg.Dump.WorkDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "pglifecycle-")
		if err != nil {
			return "", fmt.Errorf("failed to create working directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare working directory: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s.sql", d.cfg.Database.Database, time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(dir, fileName)
	d.log.Infof("dumping schema to %s", outputPath)
	return outputPath, nil
}

func (d *Dumper) buildDumpArgs(outputPath string) []string {
	db := d.cfg.Database
	args := []string{
		fmt.Sprintf("--host=%s", db.Host),
		fmt.Sprintf("--port=%d", db.Port),
		fmt.Sprintf("--username=%s", db.Username),
		fmt.Sprintf("--dbname=%s", db.Database),
		"--schema-only",
		"--format=plain",
		"--verbose",
		"--no-password",
		fmt.Sprintf("--file=%s", outputPath),
	}

	if db.Role != "" {
		args = append(args, fmt.Sprintf("--role=%s", db.Role))
	}
	if d.cfg.Dump.NoOwner {
		args = append(args, "--no-owner")
	}
	if d.cfg.Dump.NoPrivileges {
		args = append(args, "--no-privileges")
	}
	if d.cfg.Dump.NoSecurityLabels {
		args = append(args, "--no-security-labels")
	}
	if d.cfg.Dump.NoTablespaces {
		args = append(args, "--no-tablespaces")
	}

	return args
}

func (d *Dumper) runCommand(ctx context.Context, cmdName string, args []string) error {
	cmd := exec.CommandContext(ctx, cmdName, args...)
	cmd.Env = append(os.Environ(), d.postgresEnv()...)

	var stderr bytes.Buffer
	writer := d.log.WriterLevel(logrus.DebugLevel)
	defer writer.Close()
	cmd.Stdout = writer
	cmd.Stderr = io.MultiWriter(writer, &stderr)

	d.log.Debugf("executing %s %s", cmdName, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stderr.String())
		if output != "" {
			d.log.Error(output)
			return fmt.Errorf("%w: %s: %w\n%s", ErrDumpFailed, cmdName, err, output)
		}
		return fmt.Errorf("%w: %s: %w", ErrDumpFailed, cmdName, err)
	}
	return nil
}

func (d *Dumper) postgresEnv() []string {
	if d.cfg.Database.Password == "" {
		return nil
	}
	return []string{fmt.Sprintf("PGPASSWORD=%s", d.cfg.Database.Password)}
}
