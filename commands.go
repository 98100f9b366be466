package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aacsb-sync/models"
	"aacsb-sync/providers/spreadsheet"
	"aacsb-sync/services"
	"aacsb-sync/storage"
)

func newRootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "aacsb-sync",
		Short:         "Abgleich und Klassifizierung von Lehrpersonen und Forschungsergebnissen für AACSB",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCmd(logger),
		importCmd(logger),
		syncCmd(logger),
		serveCmd(logger),
		reportCmd(logger),
		researchCmd(logger),
		classifyCmd(logger),
	)
	return root
}

// withApp lädt Konfiguration und Datenbank für die Dauer eines Befehls.
func withApp(logger *zap.Logger, fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, cmd, args)
	}
}

func entityArg(args []string) (string, error) {
	switch args[0] {
	case models.EntityFaculty, models.EntityResearch:
		return args[0], nil
	}
	return "", fmt.Errorf("unknown entity %q (faculty|research)", args[0])
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Tabellen anlegen bzw. aktualisieren",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if err := storage.Migrate(a.db); err != nil {
				return err
			}
			logger.Info("Migration abgeschlossen")
			return nil
		}),
	}
}

func importCmd(logger *zap.Logger) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import faculty|research <file>",
		Short: "Tabellendatei (.xlsx/.csv) abgleichen",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			entity, err := entityArg(args)
			if err != nil {
				return err
			}
			path := args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			sheet, err := spreadsheet.Read(bytes.NewReader(data), path, logger)
			if err != nil {
				return err
			}
			rec, err := a.reconciler()
			if err != nil {
				return err
			}

			opts := services.Options{DryRun: dryRun}
			var run *models.SyncRun
			if entity == models.EntityFaculty {
				run, err = rec.ReconcileFaculty(ctx, sheet, opts)
			} else {
				run, err = rec.ReconcileResearch(ctx, sheet, opts)
			}
			if err != nil {
				return err
			}

			if !dryRun {
				archive, err := a.archive(ctx)
				if err != nil {
					return err
				}
				if archive != nil {
					// Der Abgleich ist bereits gespeichert; ein Archivfehler wird nur gemeldet.
					if err := archive.ArchiveImport(ctx, run, path, data); err != nil {
						logger.Error("Archivierung fehlgeschlagen", zap.Error(err))
					}
				}
			}
			return printJSON(cmd.OutOrStdout(), run)
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Ergebnisse ermitteln, ohne zu schreiben")
	return cmd
}

func syncCmd(logger *zap.Logger) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync faculty|research",
		Short: "Gegen die institutionelle API abgleichen",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			entity, err := entityArg(args)
			if err != nil {
				return err
			}
			rec, err := a.reconciler()
			if err != nil {
				return err
			}
			client, err := a.apiClient()
			if err != nil {
				return err
			}
			run, err := (&apiSync{Reconciler: rec, Client: client}).Run(ctx, entity, services.Options{DryRun: dryRun})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Ergebnisse ermitteln, ohne zu schreiben")
	return cmd
}

func serveCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Geplanten Abgleich und Betriebsendpunkte starten",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rec, err := a.reconciler()
			if err != nil {
				return err
			}
			client, err := a.apiClient()
			if err != nil {
				return err
			}

			server := NewServer(&apiSync{Reconciler: rec, Client: client}, a.store.Ping, a.registry, logger)
			scheduler, err := server.Schedule(a.cfg.SyncCronSchedule)
			if err != nil {
				return err
			}
			scheduler.Start()

			srv := &http.Server{
				Addr:              ":" + a.cfg.HTTPPort,
				Handler:           server.Router(),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 15 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server", zap.String("port", a.cfg.HTTPPort))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err = <-errCh:
			case <-ctx.Done():
			}

			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			<-scheduler.Stop().Done()
			server.Wait()
			return err
		}),
	}
}

func reportCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Akkreditierungsberichte als JSON ausgeben",
	}

	var (
		discipline string
		year       int
	)
	table31 := &cobra.Command{
		Use:   "table3-1",
		Short: "Table 3-1 für eine Disziplin und ein Jahr",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := services.NewAggregator(a.cfg, a.store, logger).Table31(ctx, discipline, year)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}
	table31.Flags().StringVar(&discipline, "discipline", services.DefaultDiscipline, "Disziplin-Code")
	table31.Flags().IntVar(&year, "year", 0, "Jahr (Standard: aktuelles Jahr)")

	status := &cobra.Command{
		Use:   "status",
		Short: "Bearbeitungsstand der Klassifizierung je Lehrperson",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			report, err := services.NewAggregator(a.cfg, a.store, logger).ResearchStatus(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		}),
	}

	nonMatched := &cobra.Command{
		Use:   "non-matched",
		Short: "Lehrpersonen ohne Akkreditierungsprofil",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := services.NewAggregator(a.cfg, a.store, logger).NonMatchedFaculty(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}

	disciplines := &cobra.Command{
		Use:   "disciplines",
		Short: "Disziplin-Codes",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := services.NewAggregator(a.cfg, a.store, logger).Disciplines(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}

	cmd.AddCommand(table31, status, nonMatched, disciplines)
	return cmd
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid research id %q", s)
	}
	return uint(id), nil
}

func readResearchJSON(path string) (*models.ResearchOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec models.ResearchOutput
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &rec, nil
}

func researchCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Forschungsergebnisse pflegen",
	}
	service := func(a *app) *services.ResearchService {
		return services.NewResearchService(a.store, services.NewExclusionFilter(a.cfg), logger)
	}

	var filter services.ResearchFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "Forschungsergebnisse mit Klassifizierung auflisten",
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := service(a).ListResearch(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}
	list.Flags().StringVar(&filter.FacNIP, "fac", "", "Personalnummer")
	list.Flags().IntVar(&filter.Year, "year", 0, "Erscheinungsjahr")

	findFaculty := &cobra.Command{
		Use:   "find-faculty <user_id|name>",
		Short: "Lehrpersonen nach Personalnummer oder Name suchen",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rows, err := service(a).FindFaculty(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		}),
	}

	create := &cobra.Command{
		Use:   "create <file.json>",
		Short: "Manuelles Forschungsergebnis anlegen",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			rec, err := readResearchJSON(args[0])
			if err != nil {
				return err
			}
			created, err := service(a).CreateManual(ctx, rec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		}),
	}

	update := &cobra.Command{
		Use:   "update <research_id> <file.json>",
		Short: "Manuelles Forschungsergebnis ändern",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := readResearchJSON(args[1])
			if err != nil {
				return err
			}
			updated, err := service(a).UpdateManual(ctx, id, rec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <research_id>",
		Short: "Manuelles Forschungsergebnis löschen",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return service(a).DeleteManual(ctx, id)
		}),
	}

	var englishTitle, englishJournal string
	translate := &cobra.Command{
		Use:   "translate <research_id>",
		Short: "Englischen Titel bzw. Zeitschriftennamen setzen",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var title, journal *string
			if cmd.Flags().Changed("title") {
				title = &englishTitle
			}
			if cmd.Flags().Changed("journal") {
				journal = &englishJournal
			}
			updated, err := service(a).UpdateTranslation(ctx, id, title, journal)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		}),
	}
	translate.Flags().StringVar(&englishTitle, "title", "", "englischer Titel")
	translate.Flags().StringVar(&englishJournal, "journal", "", "englischer Zeitschriftenname")

	managed := &cobra.Command{
		Use:   "managed <research_id> true|false",
		Short: "AACSB-Relevanz setzen",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}
			updated, err := service(a).SetAACSBManaged(ctx, id, value)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		}),
	}

	cmd.AddCommand(list, findFaculty, create, update, del, translate, managed)
	return cmd
}

func classifyCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Forschungsergebnisse klassifizieren",
	}

	set := &cobra.Command{
		Use:   "set <fac_nip> <research_id> nature|review <flag>",
		Short: "Flag einer Achse setzen",
		Args:  cobra.ExactArgs(4),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			axis, err := models.ParseAxis(args[2])
			if err != nil {
				return err
			}
			c, err := services.NewClassificationService(a.store, logger).
				SetClassification(ctx, args[0], id, axis, models.Flag(args[3]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}

	get := &cobra.Command{
		Use:   "get <fac_nip> <research_id>",
		Short: "Klassifizierung anzeigen",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(logger, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			c, err := services.NewClassificationService(a.store, logger).GetClassification(ctx, args[0], id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}

	cmd.AddCommand(set, get)
	return cmd
}
