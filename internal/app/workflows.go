package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/config"
	"github.com/kadirbelkuyu/pglifecycle/internal/database"
	"github.com/kadirbelkuyu/pglifecycle/internal/extract"
	"github.com/kadirbelkuyu/pglifecycle/internal/generate"
	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
	"github.com/kadirbelkuyu/pglifecycle/pkg/interactive"
	"github.com/kadirbelkuyu/pglifecycle/pkg/logger"
)

// GenerateOptions are the per-invocation switches of generate-project.
type GenerateOptions struct {
	Destination   string
	Extract       bool
	InventoryPath string
	SaveInventory string
	Interactive   bool
}

type Service struct {
	in  io.Reader
	out io.Writer
}

func NewService() *Service {
	return &Service{in: os.Stdin, out: os.Stdout}
}

// NewServiceWithIO is NewService with explicit terminal streams.
func NewServiceWithIO(in io.Reader, out io.Writer) *Service {
	return &Service{in: in, out: out}
}

func (s *Service) GenerateProject(ctx context.Context, cfg *config.Config, opts GenerateOptions) error {
	if strings.TrimSpace(opts.Destination) == "" {
		return fmt.Errorf("destination directory is required")
	}
	if opts.Extract && opts.InventoryPath != "" {
		return fmt.Errorf("--extract and --inventory can not be used together")
	}
	if opts.Interactive && !opts.Extract {
		return fmt.Errorf("--interactive requires --extract")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()
	log.Infof("generating project in %s", opts.Destination)

	if opts.Interactive {
		proceed, err := s.chooseDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		if !proceed {
			log.Info("Operation cancelled by user.")
			return nil
		}
	}

	if err := generate.CheckDestination(opts.Destination, cfg.Project.Force); err != nil {
		return err
	}

	inv, err := s.source(cfg, opts, log).Inventory(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire schema inventory: %w", err)
	}

	if opts.SaveInventory != "" {
		if err := inventory.SaveFile(opts.SaveInventory, inv); err != nil {
			return err
		}
		log.Infof("inventory saved to %s", opts.SaveInventory)
	}

	generator := generate.New(generate.Options{
		Destination: opts.Destination,
		Force:       cfg.Project.Force,
		Gitkeep:     cfg.Project.Gitkeep,
		RemoveEmpty: cfg.Project.RemoveEmpty,
		Strict:      cfg.Project.Strict,
		Progress:    !cfg.Logging.Verbose && !cfg.Logging.Debug,
	}, log)

	result, err := generator.Run(inv)
	if err != nil {
		return fmt.Errorf("project generation failed: %w", err)
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Project generated successfully.")
	fmt.Fprintf(s.out, "Location: %s\n", opts.Destination)
	fmt.Fprintf(s.out, "Files: %d\n", len(result.Manifest.Entries))
	for _, kc := range result.Plan.Kinds() {
		fmt.Fprintf(s.out, "  %-30s %d\n", strings.ToLower(string(kc.Kind)), kc.Count)
	}
	if len(result.Orphans) > 0 {
		fmt.Fprintf(s.out, "Unprocessed entries: %d (see log)\n", len(result.Orphans))
	}
	return nil
}

// Extract dumps the configured database and saves its inventory to path.
func (s *Service) Extract(ctx context.Context, cfg *config.Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output file is required")
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	inv, err := extract.NewDumper(cfg, log).Inventory(ctx)
	if err != nil {
		return err
	}
	if err := inventory.SaveFile(path, inv); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Inventory with %d entries saved to %s\n", len(inv.Entries), path)
	return nil
}

func (s *Service) ListDatabases(ctx context.Context, cfg *config.Config) error {
	conn, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	databases, err := conn.ListDatabases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	fmt.Fprintf(s.out, "\nDatabases on %s:\n", formatServerLabel(cfg))
	fmt.Fprintln(s.out, strings.Repeat("=", 36))
	for i, db := range databases {
		fmt.Fprintf(s.out, "%d. %s (Owner: %s, Encoding: %s, Size: %s)\n",
			i+1,
			db.Name,
			displayValue(db.Owner, "n/a"),
			displayValue(db.Encoding, "n/a"),
			displayValue(db.Size, "n/a"),
		)
	}
	fmt.Fprintf(s.out, "\nTotal databases: %d\n", len(databases))
	return nil
}

func (s *Service) source(cfg *config.Config, opts GenerateOptions, log *logger.Logger) extract.Source {
	switch {
	case opts.Extract:
		return extract.NewDumper(cfg, log)
	case opts.InventoryPath != "":
		return extract.FileSource{Path: opts.InventoryPath}
	default:
		log.Info("no schema source given, generating an empty project")
		return extract.EmptySource{}
	}
}

// chooseDatabase lets the user pick the database to extract and the project
// switches. It returns false when the user declines.
func (s *Service) chooseDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	conn, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return false, fmt.Errorf("failed to connect to database: %w", err)
	}
	databases, err := conn.ListDatabases(ctx)
	conn.Close()
	if err != nil {
		return false, fmt.Errorf("failed to list databases: %w", err)
	}

	selector := interactive.NewDatabaseSelector(s.in, s.out)
	selected, err := selector.SelectDatabase(databases)
	if err != nil {
		return false, fmt.Errorf("database selection failed: %w", err)
	}
	cfg.Database.Database = selected.Name
	cfg.Project = selector.GetProjectOptions(cfg.Project)
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("invalid configuration: %w", err)
	}

	return selector.ConfirmAction("generate-project", selected.Name), nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Verbose: cfg.Logging.Verbose,
		Debug:   cfg.Logging.Debug,
		File:    cfg.Logging.File,
	})
}

func formatServerLabel(cfg *config.Config) string {
	host := strings.TrimSpace(cfg.Database.Host)
	if host == "" {
		host = "localhost"
	}

	if cfg.Database.Port > 0 {
		return fmt.Sprintf("%s:%d", host, cfg.Database.Port)
	}

	return host
}

func displayValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
