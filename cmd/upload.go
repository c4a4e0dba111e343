package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/fee-web/internal/db"
	"github.com/ziadkadry99/fee-web/internal/progress"
	"github.com/ziadkadry99/fee-web/internal/uploads"
)

var (
	uploadAnalyze     bool
	uploadForce       bool
	uploadDryRun      bool
	uploadConcurrency int
	uploadExclude     []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file|dir|glob>...",
	Short: "Upload PDF documents to Fee",
	Long: `Uploads PDF files to the Fee API. Arguments may be files, directories
(searched recursively) or glob patterns such as "policies/**/*.pdf".
Files already uploaded with the same content are skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		excludes := append(append([]string{}, cfg.Upload.Exclude...), uploadExclude...)
		files, err := uploads.Collect(args, excludes)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "No PDF files matched.")
			return nil
		}
		if uploadDryRun {
			for _, f := range files {
				fmt.Printf("%s\t%s\n", f.RelPath, f.Title)
			}
			return nil
		}

		opts := uploads.Options{
			Concurrency: cfg.Upload.Concurrency,
			Analyze:     uploadAnalyze,
			Force:       uploadForce,
			Reporter:    progress.NewReporter(os.Stderr),
			Logger:      log,
		}
		if cmd.Flags().Changed("concurrency") {
			opts.Concurrency = uploadConcurrency
		}
		if cfg.DataDir != "" {
			database, err := db.Open(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("opening upload ledger: %w", err)
			}
			defer database.Close()
			opts.Ledger = uploads.NewLedger(database)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res := uploads.New(newClient(cfg, log), opts).Run(ctx, files)
		for _, r := range res.Uploaded {
			fmt.Printf("[%s] %s\n", r.DocumentID, r.Title)
		}
		for _, err := range res.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		if len(res.Errors) > 0 {
			return errors.New(res.Summary())
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadAnalyze, "analyze", false, "request Fee's analysis after each upload")
	uploadCmd.Flags().BoolVar(&uploadForce, "force", false, "upload files even if they were uploaded before")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "list the files that would be uploaded")
	uploadCmd.Flags().IntVar(&uploadConcurrency, "concurrency", 2, "number of parallel uploads")
	uploadCmd.Flags().StringSliceVar(&uploadExclude, "exclude", nil, "extra glob patterns to skip")
	rootCmd.AddCommand(uploadCmd)
}
