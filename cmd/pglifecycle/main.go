package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kadirbelkuyu/pglifecycle/internal/app"
	"github.com/kadirbelkuyu/pglifecycle/internal/config"
	"github.com/kadirbelkuyu/pglifecycle/internal/profiles"

	"github.com/spf13/cobra"
)

const appName = "pglifecycle"

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pglifecycle",
	Short: "PostgreSQL schema project generator",
	Long:  `Extract the schema of a PostgreSQL database and lay it out as a project of one SQL file per object, with a manifest describing the order they depend on each other.`,
	RunE:  runInteractive,
}

var generateCmd = &cobra.Command{
	Use:   "generate-project DEST",
	Short: "Generate a project tree from a database or a saved inventory",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Dump the database schema into an inventory file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var listDbCmd = &cobra.Command{
	Use:   "list-databases",
	Short: "List databases available on the server",
	Args:  cobra.NoArgs,
	RunE:  runListDatabases,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the guided interactive workflow",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
	},
}

var workflowService = app.NewService()

var (
	configPath  string
	profileName string

	dbName     string
	host       string
	port       int
	username   string
	role       string
	noOwner    bool
	noPrivs    bool
	noSecLabel bool
	noTblspc   bool
	logFile    string
	verbose    bool
	debug      bool

	extractFlag   bool
	inventoryPath string
	saveInventory string
	force         bool
	gitkeep       bool
	removeEmpty   bool
	strict        bool
	interactive   bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to the configuration file")
	flags.StringVar(&profileName, "profile", "", "Name of a saved configuration profile")
	flags.StringVarP(&dbName, "dbname", "d", "", "Database name to connect to")
	flags.StringVarP(&host, "host", "h", "", "Database server host or socket directory")
	flags.IntVarP(&port, "port", "p", 5432, "Database server port")
	flags.StringVarP(&username, "username", "U", "", "Database user name")
	flags.StringVar(&role, "role", "", "Role to SET ROLE to before dumping")
	flags.BoolVarP(&noOwner, "no-owner", "O", false, "Skip restoration of object ownership")
	flags.BoolVarP(&noPrivs, "no-privileges", "x", false, "Do not dump privileges (grant/revoke)")
	flags.BoolVar(&noSecLabel, "no-security-labels", false, "Do not dump security label assignments")
	flags.BoolVar(&noTblspc, "no-tablespaces", false, "Do not dump tablespace assignments")
	flags.StringVarP(&logFile, "log-file", "L", "", "Write log output to this file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable informational logging")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	gen := generateCmd.Flags()
	gen.BoolVarP(&extractFlag, "extract", "e", false, "Extract the schema from the configured database")
	gen.StringVar(&inventoryPath, "inventory", "", "Generate from a saved inventory file")
	gen.StringVar(&saveInventory, "save-inventory", "", "Also save the inventory used to this file")
	gen.BoolVar(&force, "force", false, "Write into a non-empty destination")
	gen.BoolVar(&gitkeep, "gitkeep", false, "Create a .gitkeep file in empty directories")
	gen.BoolVar(&removeEmpty, "remove-empty", false, "Remove empty directories after generation")
	gen.BoolVar(&strict, "strict", false, "Fail on entries that can not be attached to an object")
	gen.BoolVar(&interactive, "interactive", false, "Choose the database and options interactively")
	generateCmd.MarkFlagsMutuallyExclusive("extract", "inventory")
	generateCmd.MarkFlagsMutuallyExclusive("gitkeep", "remove-empty")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(listDbCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return workflowService.GenerateProject(cmd.Context(), cfg, app.GenerateOptions{
		Destination:   args[0],
		Extract:       extractFlag,
		InventoryPath: inventoryPath,
		SaveInventory: saveInventory,
		Interactive:   interactive,
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return workflowService.Extract(cmd.Context(), cfg, args[0])
}

func runListDatabases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	return workflowService.ListDatabases(cmd.Context(), cfg)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	application := app.NewApplication(os.Stdin, printBanner)
	return application.RunInteractive(cmd.Context())
}

// loadConfig reads --config or --profile and lays the flags the user
// actually set on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case configPath != "" && profileName != "":
		return nil, fmt.Errorf("--config and --profile can not be used together")
	case profileName != "":
		cfg, err = profiles.NewManager("").Load(profileName)
	default:
		cfg, err = config.LoadConfig(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	flags := cmd.Flags()
	changed := flags.Changed

	if changed("dbname") {
		cfg.Database.Database = dbName
	}
	if changed("host") {
		cfg.Database.Host = host
	}
	if changed("port") {
		cfg.Database.Port = port
	}
	if changed("username") {
		cfg.Database.Username = username
	}
	if changed("role") {
		cfg.Database.Role = role
	}
	if password := os.Getenv("PGPASSWORD"); password != "" && cfg.Database.Password == "" {
		cfg.Database.Password = password
	}

	if changed("no-owner") {
		cfg.Dump.NoOwner = noOwner
	}
	if changed("no-privileges") {
		cfg.Dump.NoPrivileges = noPrivs
	}
	if changed("no-security-labels") {
		cfg.Dump.NoSecurityLabels = noSecLabel
	}
	if changed("no-tablespaces") {
		cfg.Dump.NoTablespaces = noTblspc
	}

	if changed("log-file") {
		cfg.Logging.File = logFile
	}
	if changed("verbose") {
		cfg.Logging.Verbose = verbose
	}
	if changed("debug") {
		cfg.Logging.Debug = debug
	}

	if flags.Lookup("force") != nil {
		if changed("force") {
			cfg.Project.Force = force
		}
		if changed("gitkeep") {
			cfg.Project.Gitkeep = gitkeep
		}
		if changed("remove-empty") {
			cfg.Project.RemoveEmpty = removeEmpty
		}
		if changed("strict") {
			cfg.Project.Strict = strict
		}
	}

	return cfg, nil
}

func printBanner() {
	title := fmt.Sprintf("%s %s", appName, version)
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", len(title)))
}
