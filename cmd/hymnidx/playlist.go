package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hymnidx/internal/lookup"
	"hymnidx/internal/playlist"
	"hymnidx/internal/storage"
)

func newPlaylistFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		url         string
		year        int
		mappingPath string
		tableName   string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "playlist:fetch",
		Short: "List a YouTube playlist and write its title -> video map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				output = filepath.Join(ctx.cfg.OutputDir, "ra-video-urls.yml")
			}
			lister, err := ctx.newLister(cmd.Context(), ctx.cfg)
			if err != nil {
				return err
			}
			return ctx.withDB(func(db *storage.DB) error {
				svc := playlist.NewSyncService(db, lister, ctx.log)
				res, err := svc.Sync(cmd.Context(), url, year, output)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "playlist fetch done playlist=%s videos=%d named=%d feasts=%d\n",
					res.PlaylistID, len(res.Videos), len(res.Index.Names()), len(res.Index.Feasts()))
				fmt.Fprintf(out, "wrote %s\n", res.Output)

				if strings.TrimSpace(mappingPath) == "" {
					return nil
				}
				mapping, err := playlist.LoadFeastMapping(mappingPath)
				if err != nil {
					return err
				}
				t, err := loadTable(db, tableName)
				if err != nil {
					return err
				}
				if err := requireCalendar(t); err != nil {
					return err
				}
				printCelebrationVideos(out, playlist.Celebrations(t.Entries()), mapping, res.Index)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "playlist URL (must carry a list= parameter)")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year in the video titles")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "feast mapping YAML; prints the videos of every celebration")
	cmd.Flags().StringVar(&tableName, "table", "ra-index", "calendar table resolved through --mapping")
	cmd.Flags().StringVarP(&output, "output", "o", "", "video map path (default: <output dir>/ra-video-urls.yml)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func printCelebrationVideos(out io.Writer, celebrations []string, mapping playlist.FeastMapping, idx *playlist.VideoIndex) {
	rows := make([][]string, 0, len(celebrations))
	missing := 0
	for _, c := range celebrations {
		fv, ok := idx.ForCelebration(c, mapping)
		if !ok {
			missing++
			rows = append(rows, []string{c, mapping[c], "", ""})
			continue
		}
		row := []string{c, fv.Feast, "", ""}
		if fv.Psalm != nil {
			row[2] = fv.Psalm.URL
		}
		if fv.Acclamation != nil {
			row[3] = fv.Acclamation.URL
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(out, []string{"Celebration", "Feast", "Psalm", "Acclamation"}, rows, nil))
	fmt.Fprintf(out, "celebrations=%d unresolved=%d\n", len(celebrations), missing)
}

func newPlaylistMappingCommand(ctx *commandContext) *cobra.Command {
	var (
		url       string
		year      int
		tableName string
		outPath   string
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "playlist:mapping",
		Short: "Draft a celebration -> feast mapping from a fetched playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				threshold = ctx.cfg.FuzzyThreshold
			}
			return ctx.withDB(func(db *storage.DB) error {
				t, err := loadTable(db, tableName)
				if err != nil {
					return err
				}
				if err := requireCalendar(t); err != nil {
					return err
				}
				idx, err := playlist.NewSyncService(db, nil, ctx.log).Stored(url, year)
				if err != nil {
					return err
				}

				celebrations := playlist.Celebrations(t.Entries())
				mapping := playlist.SuggestFeastMapping(celebrations, idx.Feasts(), threshold)

				// Hand-filled values from an earlier draft win over suggestions.
				existing, err := playlist.LoadFeastMapping(outPath)
				switch {
				case err == nil:
					for c, feast := range existing {
						if feast != "" {
							mapping[c] = feast
						}
					}
				case !errors.Is(err, fs.ErrNotExist):
					return err
				}

				if err := playlist.SaveFeastMapping(outPath, celebrations, mapping); err != nil {
					return err
				}
				unmapped := 0
				for _, c := range celebrations {
					if mapping[c] == "" {
						unmapped++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s celebrations=%d unmapped=%d\n", outPath, len(celebrations), unmapped)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "playlist URL fetched earlier with playlist:fetch")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year in the video titles")
	cmd.Flags().StringVar(&tableName, "table", "ra-index", "calendar table")
	cmd.Flags().StringVar(&outPath, "out", "feast-mapping.yml", "mapping file to write")
	cmd.Flags().IntVar(&threshold, "threshold", lookup.DefaultThreshold, "minimum similarity (0-100) for a suggestion")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
