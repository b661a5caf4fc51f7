package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/attendance-cam/internal/gallery"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Manage the reference image gallery",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities and their reference images",
	RunE:  runGalleryList,
}

var galleryWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Precompute reference representations",
	Long: `Compute the representation of every reference image and store it in the
gallery cache, so that the first recognized frame does not have to wait
for the whole gallery.`,
	RunE: runGalleryWarm,
}

var galleryResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop cached reference representations",
	Long: `Delete the cached representations of the gallery. Reference images are
never touched; representations are recomputed on the next run.`,
	RunE: runGalleryReset,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryWarmCmd)
	galleryCmd.AddCommand(galleryResetCmd)

	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := gallery.NewStore(cfg.Gallery.Dir, nil, nil, galleryKey(cfg))
	ids, err := store.Identities()
	if err != nil {
		return fmt.Errorf("failed to scan gallery: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if ids == nil {
			ids = []gallery.IdentitySummary{}
		}
		return outputJSON(ids)
	}

	if len(ids) == 0 {
		fmt.Printf("No reference images found in %s.\n", cfg.Gallery.Dir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tIMAGES")
	fmt.Fprintln(w, "--------\t------")

	images := 0
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%d\n", id.Identity, id.References)
		images += id.References
	}

	w.Flush()

	fmt.Printf("\nTotal: %d identities, %d images\n", len(ids), images)
	return nil
}

func runGalleryWarm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	rep := recognition.NewClient(cfg.Recognition.URL, cfg.Recognition.Model, cfg.Recognition.Detector)
	if err := rep.Ping(ctx); err != nil {
		return fmt.Errorf("recognition service at %s: %w", cfg.Recognition.URL, err)
	}

	b, err := openBackends(ctx, cfg, os.Stdout, false, true)
	if err != nil {
		return err
	}
	defer b.Close()

	store := newGalleryStore(cfg, rep, b.references)

	var bar *progressbar.ProgressBar
	err = store.Sync(ctx, func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Computing representations"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("failed to warm gallery: %w", err)
	}

	fmt.Printf("Gallery ready with %d reference images (model %s, detector %s)\n",
		store.Len(), cfg.Recognition.Model, cfg.Recognition.Detector)
	return nil
}

func runGalleryReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := openBackends(ctx, cfg, os.Stdout, false, true)
	if err != nil {
		return err
	}
	defer b.Close()

	store := gallery.NewStore(cfg.Gallery.Dir, nil, b.references, galleryKey(cfg))
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset gallery: %w", err)
	}

	fmt.Printf("Gallery cache cleared; representations will be recomputed on the next run\n")
	return nil
}
