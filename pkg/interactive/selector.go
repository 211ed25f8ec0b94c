package interactive

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/config"
	"github.com/kadirbelkuyu/pglifecycle/internal/database"
)

type DatabaseSelector struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewDatabaseSelector(in io.Reader, out io.Writer) *DatabaseSelector {
	return &DatabaseSelector{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (ds *DatabaseSelector) SelectDatabase(databases []database.Info) (*database.Info, error) {
	if len(databases) == 0 {
		return nil, fmt.Errorf("no databases found")
	}

	fmt.Fprintln(ds.out)
	fmt.Fprintln(ds.out, "Available databases:")
	fmt.Fprintln(ds.out, strings.Repeat("=", 80))
	fmt.Fprintf(ds.out, "%-4s %-30s %-15s %-15s %-15s\n", "No", "Database", "Owner", "Encoding", "Size")
	fmt.Fprintln(ds.out, strings.Repeat("-", 80))
	for i, db := range databases {
		fmt.Fprintf(ds.out, "%-4d %-30s %-15s %-15s %-15s\n",
			i+1, db.Name, safeValue(db.Owner, "n/a"), safeValue(db.Encoding, "n/a"), safeValue(db.Size, "n/a"))
	}
	fmt.Fprintln(ds.out, strings.Repeat("=", 80))

	for {
		fmt.Fprintf(ds.out, "\nSelect the database number (1-%d): ", len(databases))

		input, err := ds.reader.ReadString('\n')
		if err != nil && strings.TrimSpace(input) == "" {
			return nil, fmt.Errorf("unable to read input: %w", err)
		}

		input = strings.TrimSpace(input)

		if input == "" {
			fmt.Fprintln(ds.out, "Please enter a number.")
			continue
		}

		choice, convErr := strconv.Atoi(input)
		if convErr != nil {
			fmt.Fprintln(ds.out, "Please enter a valid number.")
			if err != nil {
				return nil, fmt.Errorf("unable to read input: %w", err)
			}
			continue
		}

		if choice < 1 || choice > len(databases) {
			fmt.Fprintf(ds.out, "Please select a number between 1 and %d.\n", len(databases))
			if err != nil {
				return nil, fmt.Errorf("unable to read input: %w", err)
			}
			continue
		}

		selected := &databases[choice-1]
		fmt.Fprintf(ds.out, "\nSelected database: %s\n", selected.Name)
		return selected, nil
	}
}

func (ds *DatabaseSelector) ConfirmAction(action, target string) bool {
	fmt.Fprintf(ds.out, "\nConfirm running %s for %s (y/N): ", action, target)
	return ds.readYesNo(false)
}

// GetProjectOptions asks for the generation switches not already set in
// current and returns the updated copy.
func (ds *DatabaseSelector) GetProjectOptions(current config.ProjectConfig) config.ProjectConfig {
	options := current

	fmt.Fprintln(ds.out)
	fmt.Fprintln(ds.out, "Project options:")

	if !options.Force {
		fmt.Fprint(ds.out, "Write into the destination even if it is not empty? (y/N): ")
		options.Force = ds.readYesNo(false)
	}

	if !options.Gitkeep && !options.RemoveEmpty {
		fmt.Fprintln(ds.out, "Empty directories:")
		fmt.Fprintln(ds.out, "1. Keep them as they are")
		fmt.Fprintln(ds.out, "2. Add a .gitkeep file")
		fmt.Fprintln(ds.out, "3. Remove them")

		for {
			fmt.Fprint(ds.out, "\nChoose (1-3) [1]: ")
			input, err := ds.reader.ReadString('\n')
			input = strings.TrimSpace(input)
			if input == "" {
				input = "1"
			}

			switch input {
			case "1":
			case "2":
				options.Gitkeep = true
			case "3":
				options.RemoveEmpty = true
			default:
				fmt.Fprintln(ds.out, "Please choose a value between 1 and 3.")
				if err != nil {
					return options
				}
				continue
			}
			break
		}
	}

	if !options.Strict {
		fmt.Fprint(ds.out, "Fail on entries that can not be attached to an object? (y/N): ")
		options.Strict = ds.readYesNo(false)
	}

	return options
}

func (ds *DatabaseSelector) readYesNo(defaultValue bool) bool {
	input, err := ds.reader.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	if err != nil && input == "" {
		return defaultValue
	}

	switch input {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultValue
	}
}

func safeValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
