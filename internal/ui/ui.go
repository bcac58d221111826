package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"

	"ragloader/pkg/models"
)

// UI represents the main UI interface
type UI struct {
	Verbose bool
	Quiet   bool
	spinner *Spinner
}

// NewUI creates a new UI instance
func NewUI(verbose, quiet bool) *UI {
	return &UI{
		Verbose: verbose,
		Quiet:   quiet,
	}
}

// IsVerbose returns true if verbose mode is enabled
func (u *UI) IsVerbose() bool {
	return u.Verbose
}

// IsQuiet returns true if quiet mode is enabled
func (u *UI) IsQuiet() bool {
	return u.Quiet
}

// Printf prints formatted output if not in quiet mode
func (u *UI) Printf(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// Println prints a line if not in quiet mode
func (u *UI) Println(args ...interface{}) {
	if !u.Quiet {
		fmt.Println(args...)
	}
}

// VerbosePrintf prints formatted output only in verbose mode
func (u *UI) VerbosePrintf(format string, args ...interface{}) {
	if u.Verbose && !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// StartProgress starts a spinner with a message
func (u *UI) StartProgress(message string) {
	if !u.Quiet {
		u.spinner = NewSpinner(message)
		u.spinner.Start()
	}
}

// StopProgress stops the spinner
func (u *UI) StopProgress() {
	if u.spinner != nil && !u.Quiet {
		u.spinner.Stop(true, "Done")
		u.spinner = nil
	}
}

// Warning prints a warning message
func (u *UI) Warning(message string) {
	if !u.Quiet {
		fmt.Printf("%s %s\n", ColorWarning("⚠"), message)
	}
}

// Error prints an error message
func (u *UI) Error(message string) {
	if !u.Quiet {
		fmt.Printf("%s %s\n", ColorError("✗"), message)
	}
}

// Info prints an information message
func (u *UI) Info(message string) {
	if !u.Quiet {
		ShowInfo(message)
	}
}

// Success prints a success message
func (u *UI) Success(message string) {
	if !u.Quiet {
		ShowSuccess(message)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	ShowSuccess(message)
}

// PrintError prints an error message
func PrintError(err error) {
	ShowError(err)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	ShowWarning(message)
}

// PrintInfo prints an information message
func PrintInfo(message string) {
	ShowInfo(message)
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Printf("\n%s %s\n", ColorBold("▶"), ColorBold(title))
	fmt.Println(strings.Repeat("─", 50))
}

// PrintKeyValue prints a key-value pair in a formatted way
func PrintKeyValue(key, value string) {
	fmt.Printf("  %-20s %s\n", ColorDim(key+":"), value)
}

// Input displays a text input prompt
func Input(message, defaultValue, help string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Password displays a password input prompt
func Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Select displays a selection prompt
func Select(message string, options []string) (string, error) {
	var result string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// ShowCheckout displays the repository snapshot the run works from.
func ShowCheckout(snap *models.RepositorySnapshot) {
	PrintKeyValue("Repository", snap.Name)
	if snap.Branch != "" {
		PrintKeyValue("Branch", snap.Branch)
	}
	PrintKeyValue("Commit", fmt.Sprintf("%s %s", snap.ShortHash, firstLine(snap.Message)))
	PrintKeyValue("Author", fmt.Sprintf("%s <%s>", snap.AuthorName, snap.AuthorEmail))
}

// ShowLanguageTable prints a per-language breakdown of the selected files.
func ShowLanguageTable(groups map[string][]models.CandidateFile) {
	languages := make([]string, 0, len(groups))
	for lang := range groups {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	table := NewTable([]string{"Language", "Files", "Size"})
	for _, lang := range languages {
		files := groups[lang]
		var size int64
		for _, f := range files {
			size += f.Size
		}
		table.Append([]string{lang, fmt.Sprintf("%d", len(files)), FormatBytes(size)})
	}
	table.Render()
}

// ShowRunSummary prints the final summary block of a load run.
func ShowRunSummary(summary *models.RunSummary) {
	ShowHeader("Load Summary")

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bold.Printf("\nRepository:  ")
	fmt.Println(summary.RepoName)
	bold.Printf("Collection:  ")
	fmt.Printf("%s (%s)\n", summary.CollectionName, summary.CollectionID)

	fmt.Println()
	fmt.Printf("  Files found:     %d\n", summary.FilesFound)
	green.Printf("  Uploaded:        %d\n", summary.FilesUploaded)
	if summary.FilesDuplicate > 0 {
		yellow.Printf("  Already present: %d\n", summary.FilesDuplicate)
	}
	if summary.FilesFailed > 0 {
		red.Printf("  Failed:          %d\n", summary.FilesFailed)
	}

	if len(summary.IngestionsByStat) > 0 {
		fmt.Println()
		bold.Println("Ingestion:")
		for _, status := range []models.IngestionStatus{
			models.StatusSuccess, models.StatusProcessing, models.StatusQueued,
			models.StatusFailed, models.StatusUnknown,
		} {
			if n := summary.IngestionsByStat[status]; n > 0 {
				fmt.Printf("  %-12s %d\n", string(status), n)
			}
		}
	}

	if summary.KGEntities > 0 || summary.KGRelationships > 0 {
		fmt.Println()
		bold.Println("Knowledge graph:")
		fmt.Printf("  Entities:      %d\n", summary.KGEntities)
		fmt.Printf("  Relationships: %d\n", summary.KGRelationships)
	}

	fmt.Printf("\nCompleted in %s\n", formatDuration(summary.Duration))
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
