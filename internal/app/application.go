package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kadirbelkuyu/pglifecycle/internal/config"
	"github.com/kadirbelkuyu/pglifecycle/internal/profiles"
)

const defaultConfigDir = "configs"

// Application is the guided menu driven front end over Service.
type Application struct {
	reader         *bufio.Reader
	out            io.Writer
	printBanner    func()
	profileManager *profiles.Manager
	service        *Service
}

func NewApplication(r io.Reader, printBanner func()) *Application {
	return NewApplicationWithProfiles(r, os.Stdout, printBanner, profiles.NewManager(defaultConfigDir))
}

func NewApplicationWithProfiles(r io.Reader, out io.Writer, printBanner func(), manager *profiles.Manager) *Application {
	if r == nil {
		r = os.Stdin
	}

	var reader *bufio.Reader
	if br, ok := r.(*bufio.Reader); ok {
		reader = br
	} else {
		reader = bufio.NewReader(r)
	}

	return &Application{
		reader:         reader,
		out:            out,
		printBanner:    printBanner,
		profileManager: manager,
		service:        NewServiceWithIO(reader, out),
	}
}

func (a *Application) RunInteractive(ctx context.Context) error {
	if a.printBanner != nil {
		a.printBanner()
	}
	fmt.Fprintln(a.out, "Interactive mode is ready. Press Ctrl+C or choose option 4 to exit.")

	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Select an operation:")
		fmt.Fprintln(a.out, "  1) Generate a project")
		fmt.Fprintln(a.out, "  2) Extract a schema inventory")
		fmt.Fprintln(a.out, "  3) List databases")
		fmt.Fprintln(a.out, "  4) Exit")

		fmt.Fprint(a.out, "\nChoice: ")
		choice, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.sayGoodbye()
				return nil
			}
			return err
		}

		var (
			runErr error
			label  string
		)
		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "1", "generate":
			label, runErr = "Generation", a.handleGenerate(ctx)
		case "2", "extract":
			label, runErr = "Extraction", a.handleExtract(ctx)
		case "3", "list":
			label, runErr = "Listing", a.handleList(ctx)
		case "4", "exit", "quit", "q":
			a.sayGoodbye()
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid selection. Try again.")
			continue
		}

		if runErr != nil {
			if errors.Is(runErr, io.EOF) {
				a.sayGoodbye()
				return nil
			}
			fmt.Fprintf(a.out, "%s failed: %v\n", label, runErr)
		}
	}
}

func (a *Application) sayGoodbye() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Exiting interactive mode.")
}

func (a *Application) handleGenerate(ctx context.Context) error {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Generate a project")

	dest, err := a.promptString("Destination directory", true)
	if err != nil {
		return err
	}

	opts := GenerateOptions{Destination: dest}

	extract, err := a.promptYesNo("Extract the schema from a live database?", true)
	if err != nil {
		return err
	}

	var cfg *config.Config
	if extract {
		opts.Extract = true
		if cfg, err = a.loadOrPromptConfig(); err != nil {
			return err
		}
	} else {
		cfg = config.Default()
		if opts.InventoryPath, err = a.promptString("Inventory file (leave blank for an empty project)", false); err != nil {
			return err
		}
	}

	if cfg.Project, err = a.promptProjectOptions(cfg.Project); err != nil {
		return err
	}

	return a.service.GenerateProject(ctx, cfg, opts)
}

func (a *Application) handleExtract(ctx context.Context) error {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Extract a schema inventory")

	cfg, err := a.loadOrPromptConfig()
	if err != nil {
		return err
	}

	path, err := a.promptStringWithDefault("Output file", cfg.Database.Database+".inventory.yaml")
	if err != nil {
		return err
	}

	return a.service.Extract(ctx, cfg, path)
}

func (a *Application) handleList(ctx context.Context) error {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "List databases on a server")

	cfg, err := a.loadOrPromptConfig()
	if err != nil {
		return err
	}

	return a.service.ListDatabases(ctx, cfg)
}

func (a *Application) promptProjectOptions(current config.ProjectConfig) (config.ProjectConfig, error) {
	options := current
	var err error

	if options.Force, err = a.promptYesNo("Write into the destination even if it is not empty?", options.Force); err != nil {
		return options, err
	}
	if options.Gitkeep, err = a.promptYesNo("Add .gitkeep files to empty directories?", options.Gitkeep); err != nil {
		return options, err
	}
	if !options.Gitkeep {
		if options.RemoveEmpty, err = a.promptYesNo("Remove empty directories?", options.RemoveEmpty); err != nil {
			return options, err
		}
	} else {
		options.RemoveEmpty = false
	}
	if options.Strict, err = a.promptYesNo("Fail on entries that can not be attached to an object?", options.Strict); err != nil {
		return options, err
	}

	return options, nil
}

func (a *Application) promptString(label string, required bool) (string, error) {
	for {
		fmt.Fprintf(a.out, "%s: ", label)
		input, err := a.readLine()
		if err != nil {
			return "", err
		}
		if input == "" && required {
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}
		return input, nil
	}
}

func (a *Application) promptYesNo(question string, defaultValue bool) (bool, error) {
	suffix := "(y/N)"
	if defaultValue {
		suffix = "(Y/n)"
	}

	for {
		fmt.Fprintf(a.out, "%s %s ", question, suffix)
		input, err := a.readLine()
		if err != nil {
			return false, err
		}

		if input == "" {
			return defaultValue, nil
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(a.out, "Please answer with y or n.")
		}
	}
}

func (a *Application) promptInt(question string, defaultValue int) (int, error) {
	for {
		fmt.Fprintf(a.out, "%s [%d]: ", question, defaultValue)
		input, err := a.readLine()
		if err != nil {
			return 0, err
		}

		if input == "" {
			return defaultValue, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(a.out, "Please enter a valid number.")
			continue
		}

		return value, nil
	}
}

func (a *Application) promptStringWithDefault(label, defaultValue string) (string, error) {
	for {
		if defaultValue != "" {
			fmt.Fprintf(a.out, "%s [%s]: ", label, defaultValue)
		} else {
			fmt.Fprintf(a.out, "%s: ", label)
		}

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		if input == "" {
			if defaultValue != "" {
				return defaultValue, nil
			}
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}

		return input, nil
	}
}

func (a *Application) loadOrPromptConfig() (*config.Config, error) {
	for {
		fmt.Fprintln(a.out, "\nConfigure the PostgreSQL connection")

		if cfg, ok, err := a.selectProfile(); err != nil {
			return nil, err
		} else if ok {
			return cfg, nil
		}

		cfg, err := a.promptManualConfig()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}

		if err := a.persistConfig(cfg); err != nil {
			fmt.Fprintf(a.out, "Warning: failed to save config: %v\n", err)
		}

		return cfg, nil
	}
}

func (a *Application) promptManualConfig() (*config.Config, error) {
	cfg := config.Default()

	host, err := a.promptStringWithDefault("Host", cfg.Database.Host)
	if err != nil {
		return nil, err
	}
	port, err := a.promptInt("Port", cfg.Database.Port)
	if err != nil {
		return nil, err
	}
	dbName, err := a.promptStringWithDefault("Database name", cfg.Database.Database)
	if err != nil {
		return nil, err
	}
	username, err := a.promptStringWithDefault("Username", cfg.Database.Username)
	if err != nil {
		return nil, err
	}
	password, err := a.promptString("Password (leave blank for none)", false)
	if err != nil {
		return nil, err
	}
	sslMode, err := a.promptStringWithDefault("SSL mode", cfg.Database.SSLMode)
	if err != nil {
		return nil, err
	}

	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.Database = dbName
	cfg.Database.Username = username
	cfg.Database.Password = password
	cfg.Database.SSLMode = strings.TrimSpace(sslMode)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *Application) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Application) selectProfile() (*config.Config, bool, error) {
	saved, err := a.profileManager.List()
	if err != nil {
		return nil, false, err
	}

	if len(saved) == 0 {
		return nil, false, nil
	}

	for {
		fmt.Fprintln(a.out, "Saved configurations:")
		for i, profile := range saved {
			fmt.Fprintf(a.out, "  %d) %s (%s)\n", i+1, profile.Name, profile.Target)
		}
		fmt.Fprintln(a.out, "  n) Create a new configuration")

		choice, err := a.promptString("Select a configuration (number) or 'n'", true)
		if err != nil {
			return nil, false, err
		}

		choice = strings.ToLower(strings.TrimSpace(choice))
		if choice == "n" || choice == "new" {
			return nil, false, nil
		}

		index, err := strconv.Atoi(choice)
		if err != nil || index < 1 || index > len(saved) {
			fmt.Fprintln(a.out, "Please choose a valid option.")
			continue
		}

		cfg, err := config.LoadConfig(saved[index-1].Path)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to load %s: %v\n", saved[index-1].Name, err)
			continue
		}

		return cfg, true, nil
	}
}

func (a *Application) persistConfig(cfg *config.Config) error {
	save, err := a.promptYesNo("Save this configuration for future use?", true)
	if err != nil || !save {
		return err
	}

	defaultName := fmt.Sprintf("%s-%s_%s", cfg.Database.Database, cfg.Database.Host, time.Now().Format("20060102_150405"))
	name, err := a.promptStringWithDefault("Configuration name", defaultName)
	if err != nil {
		return err
	}

	profile, err := a.profileManager.Save(name, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", profile.Path)
	return nil
}
