package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/config"
	"aacsb-sync/models"
	"aacsb-sync/providers"
)

// Options steuern einen einzelnen Abgleichlauf.
type Options struct {
	// DryRun ermittelt die Ergebnisse, ohne den Bestand zu verändern.
	DryRun bool
}

// Reconciler gleicht Stapel von Quelldatensätzen mit dem kanonischen Bestand ab.
// Jeder Datensatz wird einzeln behandelt; ein Fehler bricht den Stapel nur ab,
// wenn der Store selbst nicht erreichbar ist.
type Reconciler struct {
	Store    SyncStore
	Filter   *ExclusionFilter
	Resolver *Resolver
	Arbiter  *Arbiter
	Policies Policies
	Metrics  *Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewReconciler erstellt einen Reconciler mit den Regeln und Strategien aus cfg.
func NewReconciler(cfg *config.Config, store SyncStore, metrics *Metrics, logger *zap.Logger) (*Reconciler, error) {
	policies, err := PoliciesFromConfig(cfg.FacultyMissingTimestampPolicy, cfg.ResearchMissingTimestampPolicy)
	if err != nil {
		return nil, err
	}
	r := &Reconciler{
		Store:    store,
		Filter:   NewExclusionFilter(cfg),
		Resolver: &Resolver{Store: store},
		Policies: policies,
		Metrics:  metrics,
		Logger:   logger,
		Now:      time.Now,
	}
	r.Arbiter = &Arbiter{Now: func() time.Time { return r.Now() }}
	return r, nil
}

// ReconcileFaculty gleicht alle Lehrpersonen der Quelle ab.
func (r *Reconciler) ReconcileFaculty(ctx context.Context, src providers.FacultyProvider, opts Options) (*models.SyncRun, error) {
	policy := r.Policies.For(models.EntityFaculty, src.Origin())
	return r.run(ctx, models.EntityFaculty, src.Name(), src.Origin(), opts, func(ctx context.Context, run *models.SyncRun, log *zap.Logger) error {
		items, err := src.FetchFaculty(ctx)
		if err != nil {
			return fmt.Errorf("fetch faculty from %s: %w", src.Name(), err)
		}
		log.Info("Starte Abgleich der Lehrpersonen", zap.Int("records", len(items)))
		plan := dryRunPlan{}
		for _, item := range items {
			outcome, err := r.facultyItem(ctx, item, policy, opts, plan, log.With(zap.String("ref", item.Ref())))
			r.count(run, models.EntityFaculty, src.Origin(), outcome)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReconcileResearch gleicht alle Forschungsergebnisse der Quelle ab.
func (r *Reconciler) ReconcileResearch(ctx context.Context, src providers.ResearchProvider, opts Options) (*models.SyncRun, error) {
	policy := r.Policies.For(models.EntityResearch, src.Origin())
	return r.run(ctx, models.EntityResearch, src.Name(), src.Origin(), opts, func(ctx context.Context, run *models.SyncRun, log *zap.Logger) error {
		items, err := src.FetchResearch(ctx)
		if err != nil {
			return fmt.Errorf("fetch research from %s: %w", src.Name(), err)
		}
		log.Info("Starte Abgleich der Forschungsergebnisse", zap.Int("records", len(items)))
		plan := dryRunPlan{}
		for _, item := range items {
			outcome, err := r.researchItem(ctx, item, policy, opts, plan, log.With(zap.String("ref", item.Ref())))
			r.count(run, models.EntityResearch, src.Origin(), outcome)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type batchFunc func(ctx context.Context, run *models.SyncRun, log *zap.Logger) error

// run serialisiert Läufe je entity und Herkunft und protokolliert sie in sync_runs.
func (r *Reconciler) run(ctx context.Context, entity, source string, origin models.DataSource, opts Options, batch batchFunc) (*models.SyncRun, error) {
	started := r.Now()
	run := &models.SyncRun{
		RunID:     uuid.New(),
		Entity:    entity,
		Source:    source,
		Origin:    origin,
		DryRun:    opts.DryRun,
		Status:    models.SyncRunStatusRunning,
		StartedAt: started,
	}
	log := r.Logger.With(
		zap.String("run_id", run.RunID.String()),
		zap.String("entity", entity),
		zap.String("source", source),
		zap.Bool("dry_run", opts.DryRun),
	)

	lockKey := entity + ":" + string(origin)
	err := r.Store.WithRunLock(ctx, lockKey, func(ctx context.Context) error {
		if err := r.Store.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
		}
		if err := r.Store.SaveSyncRun(ctx, run); err != nil {
			return fmt.Errorf("save sync run: %w", err)
		}
		batchErr := batch(ctx, run, log)
		run.Finish(r.Now(), batchErr)
		if errors.Is(batchErr, apperrors.ErrStoreUnavailable) {
			return batchErr
		}
		if err := r.Store.SaveSyncRun(ctx, run); err != nil {
			log.Error("Fehler beim Speichern des Laufprotokolls", zap.Error(err))
		}
		return batchErr
	})
	if run.FinishedAt == nil {
		run.Finish(r.Now(), err)
	}

	r.Metrics.observeRun(entity, origin, run.FinishedAt.Sub(started).Seconds(), err != nil)
	if err != nil {
		log.Error("Abgleich abgebrochen", zap.Error(err), zap.Int("processed", run.Total))
		return run, err
	}
	log.Info("Abgleich abgeschlossen",
		zap.Int("total", run.Total),
		zap.Int("inserted", run.Inserted),
		zap.Int("updated", run.Updated),
		zap.Int("skipped_duplicate", run.SkippedDuplicate),
		zap.Int("skipped_excluded", run.SkippedExcluded),
		zap.Int("rejected_invalid", run.RejectedInvalid),
		zap.Int("rejected_orphan", run.RejectedOrphan),
		zap.Int("failed", run.Failed),
	)
	return run, nil
}

func (r *Reconciler) count(run *models.SyncRun, entity string, origin models.DataSource, o models.Outcome) {
	run.Record(o)
	r.Metrics.record(entity, origin, o)
}

func (r *Reconciler) facultyItem(ctx context.Context, item providers.FacultyItem, policy Policy, opts Options, plan dryRunPlan, log *zap.Logger) (models.Outcome, error) {
	rec, err := item.Faculty()
	if err != nil {
		log.Warn("Datensatz verworfen", zap.Error(err))
		return models.OutcomeRejectedInvalid, nil
	}
	log = log.With(zap.String("user_id", rec.UserID))

	if err := r.Filter.CheckFaculty(rec); err != nil {
		log.Warn("Datensatz ausgeschlossen", zap.Error(err))
		return models.OutcomeSkippedExcluded, nil
	}

	guard := r.Arbiter.Guard(policy, rec.SourceUpdatedAt)
	if opts.DryRun {
		existing, seen := plan.lookup(rec.UserID)
		if !seen {
			if existing, err = r.Resolver.ResolveFaculty(ctx, rec); err != nil {
				return r.storeFailure(ctx, log, err)
			}
		}
		return logOutcome(log, plan.decide(rec.UserID, rec.DataSource, existing, guard, r.Now())), nil
	}

	outcome, err := r.Store.UpsertFaculty(ctx, rec, guard, r.Now())
	if errors.Is(err, apperrors.ErrConflict) {
		return logOutcome(log, models.OutcomeSkippedDuplicate), nil
	}
	if err != nil {
		return r.storeFailure(ctx, log, err)
	}
	return logOutcome(log, outcome), nil
}

func (r *Reconciler) researchItem(ctx context.Context, item providers.ResearchItem, policy Policy, opts Options, plan dryRunPlan, log *zap.Logger) (models.Outcome, error) {
	rec, err := item.Research()
	if err != nil {
		log.Warn("Datensatz verworfen", zap.Error(err))
		return models.OutcomeRejectedInvalid, nil
	}
	log = log.With(zap.String("fac_nip", rec.FacNIP), zap.Stringer("key", ResearchKey(rec)))

	if err := r.Filter.CheckResearch(rec); err != nil {
		log.Warn("Datensatz ausgeschlossen", zap.Error(err))
		return models.OutcomeSkippedExcluded, nil
	}

	exists, err := r.Store.FacultyExists(ctx, rec.FacNIP)
	if err != nil {
		return r.storeFailure(ctx, log, err)
	}
	if !exists {
		log.Warn("Datensatz verworfen", zap.Error(apperrors.ErrUnknownFaculty))
		return models.OutcomeRejectedOrphan, nil
	}

	guard := r.Arbiter.Guard(policy, rec.SourceUpdatedAt)
	if opts.DryRun {
		key := ResearchKey(rec).String()
		existing, seen := plan.lookup(key)
		if !seen {
			if existing, err = r.Resolver.ResolveResearch(ctx, rec); err != nil {
				return r.storeFailure(ctx, log, err)
			}
		}
		return logOutcome(log, plan.decide(key, rec.DataSource, existing, guard, r.Now())), nil
	}

	outcome, err := r.Store.UpsertResearch(ctx, rec, guard, r.Now())
	if errors.Is(err, apperrors.ErrConflict) {
		return logOutcome(log, models.OutcomeSkippedDuplicate), nil
	}
	if errors.Is(err, apperrors.ErrUnknownFaculty) {
		log.Warn("Datensatz verworfen", zap.Error(err))
		return models.OutcomeRejectedOrphan, nil
	}
	if err != nil {
		return r.storeFailure(ctx, log, err)
	}
	return logOutcome(log, outcome), nil
}

// dryRunPlan hält fest, was ein Trockenlauf im selben Lauf bereits geschrieben
// hätte. Ein wiederholter Schlüssel wird so wie im echten Lauf gegen die
// vorherige Zeile entschieden statt erneut als Neuanlage gezählt.
type dryRunPlan map[string]Existing

func (p dryRunPlan) lookup(key string) (*Existing, bool) {
	e, ok := p[key]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (p dryRunPlan) decide(key string, source models.DataSource, existing *Existing, guard Guard, now time.Time) models.Outcome {
	o := Decide(existing, guard)
	switch o {
	case models.OutcomeInserted:
		p[key] = Existing{Key: key, DataSource: source, CreatedAt: now, UpdatedAt: now}
	case models.OutcomeUpdated:
		next := *existing
		next.DataSource = source
		next.UpdatedAt = now
		p[key] = next
	default:
		p[key] = *existing
	}
	return o
}

// storeFailure protokolliert einen Store-Fehler. Ist der Store nicht mehr
// erreichbar, wird der Lauf abgebrochen.
func (r *Reconciler) storeFailure(ctx context.Context, log *zap.Logger, err error) (models.Outcome, error) {
	log.Error("Fehler beim Schreiben des Datensatzes", zap.Error(err))
	if pingErr := r.Store.Ping(ctx); pingErr != nil {
		return models.OutcomeFailed, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, pingErr)
	}
	return models.OutcomeFailed, nil
}

func logOutcome(log *zap.Logger, o models.Outcome) models.Outcome {
	switch o {
	case models.OutcomeInserted, models.OutcomeUpdated:
		log.Info("Datensatz abgeglichen", zap.String("outcome", string(o)))
	default:
		log.Debug("Datensatz übersprungen", zap.String("outcome", string(o)))
	}
	return o
}
