package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/sharedreader/internal/audit"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	auditstore "github.com/mrlokans/sharedreader/internal/database/audit"
	"github.com/mrlokans/sharedreader/internal/services"
	"github.com/mrlokans/sharedreader/internal/thr"
)

// ImportBookCommand copies a book from THR and shares it as a draft, the
// same way POST /books does.
type ImportBookCommand struct {
	THRSlug string
	Owner   string
	Verbose bool

	cfg *config.Config
}

func NewImportBookCommand(cfg *config.Config) *ImportBookCommand {
	return &ImportBookCommand{cfg: cfg}
}

func (cmd *ImportBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-book", flag.ExitOnError)

	fs.StringVar(&cmd.THRSlug, "slug", "", "THR slug of the book to import (required)")
	fs.StringVar(&cmd.Owner, "owner", cmd.cfg.Import.DefaultOwner, "Teacher recorded as owner of the shared draft")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the sqlite database file")
	fs.StringVar(&cmd.cfg.THR.BaseURL, "thr", cmd.cfg.THR.BaseURL, "THR base URL")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every imported page")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-book -slug <thrslug> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a book from Tar Heel Reader as a draft shared book.\n")
		fmt.Fprintf(os.Stderr, "Importing the same slug again creates another draft with a numbered slug.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-book -slug red-ball\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-book -slug red-ball -owner gb -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.THRSlug == "" {
		return fmt.Errorf("required flag -slug not provided")
	}
	if cmd.Owner == "" {
		return fmt.Errorf("owner must not be empty")
	}

	return nil
}

func (cmd *ImportBookCommand) Run() error {
	fmt.Println("THR Import")
	fmt.Println("==========")
	fmt.Printf("Source: %s (%s)\n", cmd.THRSlug, cmd.cfg.THR.BaseURL)

	db, err := database.NewDatabase(cmd.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	auditService := audit.NewService(auditstore.NewRepository(db.DB))
	defer auditService.Wait()

	books := services.NewBookService(db,
		thr.NewClient(cmd.cfg.THR),
		audit.NewAuditor(cmd.cfg.Audit.Dir),
		auditService,
	)

	book, err := books.ImportBook(context.Background(), cmd.THRSlug, cmd.Owner)
	if err != nil {
		return err
	}

	fmt.Printf("\nImported %q by %s\n", book.Title, book.Author)
	fmt.Printf("  Slug:   %s\n", book.Slug)
	fmt.Printf("  Status: %s\n", book.Status)
	fmt.Printf("  Owner:  %s\n", book.Owner)
	fmt.Printf("  Pages:  %d\n", len(book.Pages))

	if cmd.Verbose {
		fmt.Println("\n=== Pages ===")
		for i, page := range book.Pages {
			fmt.Printf("%d. %s (%s)\n", i, page.Text, page.URL)
		}
	}

	return nil
}
