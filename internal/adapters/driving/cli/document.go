package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `Add, list, inspect, or remove indexed documents.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Add files to the index",
	Long: `Reads each file, splits it into overlapping chunks and indexes them.

Plain text, Markdown and HTML files are supported. Adding a file that is
already indexed replaces its previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentAdd,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

var (
	addID   string
	addName string
)

func init() {
	documentAddCmd.Flags().StringVar(&addID, "id", "", "document ID (single file only, default derived from the path)")
	documentAddCmd.Flags().StringVar(&addName, "name", "", "display name (single file only, default the file name)")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}
	if len(args) > 1 && (addID != "" || addName != "") {
		return errors.New("--id and --name can only be used with a single file")
	}

	reader := normalisers.Default()
	ctx := cmd.Context()
	st := newStyles(terminalWidth())

	for _, path := range args {
		doc, err := reader.ReadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if addID != "" {
			doc.ID = addID
		}
		if addName != "" {
			doc.Name = addName
		}

		summary, err := svc.Ingest(ctx, doc.ID, doc.Name, doc.Content)
		if err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}

		cmd.Printf("%s %s: %d chunks, %d words\n",
			st.Success.Render("Added"), summary.DocumentName, summary.ChunkCount, summary.TotalWords)
		cmd.Printf("  ID: %s\n", summary.DocumentID)
		if summary.Degraded() {
			cmd.Println(st.Warning.Render(fmt.Sprintf(
				"  Warning: %d of %d chunks have no embedding and match by keyword only",
				summary.ChunkCount-summary.EmbeddedCount, summary.ChunkCount)))
		}
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	docs := svc.List(cmd.Context())
	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tCHUNKS\tEMBEDDED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", d.DocumentID, d.DocumentName, d.State, d.ChunkCount, d.EmbeddedCount)
	}
	return w.Flush()
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	status, ok := findDocument(svc.List(cmd.Context()), args[0])
	if !ok {
		return fmt.Errorf("document %s: %w", args[0], domain.ErrNotFound)
	}

	cmd.Printf("ID:        %s\n", status.DocumentID)
	cmd.Printf("Name:      %s\n", status.DocumentName)
	cmd.Printf("State:     %s\n", status.State)
	cmd.Printf("Chunks:    %d (%d embedded)\n", status.ChunkCount, status.EmbeddedCount)
	cmd.Printf("Words:     %d\n", status.TotalWords)
	if !status.UpdatedAt.IsZero() {
		cmd.Printf("Updated:   %s\n", status.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if status.Error != "" {
		cmd.Printf("Error:     %s\n", status.Error)
	}
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	n, err := svc.Remove(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed document %s (%d chunks).\n", args[0], n)
	return nil
}

func findDocument(docs []domain.DocumentStatus, id string) (domain.DocumentStatus, bool) {
	for _, d := range docs {
		if d.DocumentID == id {
			return d, true
		}
	}
	return domain.DocumentStatus{}, false
}
