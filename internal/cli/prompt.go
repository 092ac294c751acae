package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/printstash/printstash/internal/models"
	"github.com/printstash/printstash/internal/upload"
)

var stdin = bufio.NewReader(os.Stdin)

// promptResolution asks the user how to handle one conflicting file.
// Re-prompts on invalid input; an explicit choice is mandatory.
func promptResolution(c models.FileConflict) (upload.Resolution, error) {
	fmt.Printf("\n%s already exists", c.Filename)
	if c.Reason != "" {
		fmt.Printf(" (%s)", c.Reason)
	}
	fmt.Println()
	fmt.Println("  [1] overwrite - replace the stored file")
	fmt.Println("  [2] skip      - keep the stored file")
	fmt.Println("  [3] rename    - upload under a new server-chosen name")

	for {
		fmt.Print("Choice [1/2/3]: ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "1", "overwrite":
			return upload.ResolutionOverwrite, nil
		case "2", "skip":
			return upload.ResolutionSkip, nil
		case "3", "rename":
			return upload.ResolutionRename, nil
		default:
			fmt.Println("Please enter 1, 2 or 3.")
		}
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(question string) (bool, error) {
	fmt.Printf("%s [y/N]: ", question)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
