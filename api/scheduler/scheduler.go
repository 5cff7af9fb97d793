package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/config"
	"github.com/linesmerrill/uptime-api/logging"
	"github.com/linesmerrill/uptime-api/resources"
)

// Locker keeps a job from running on two instances that share a data directory
type Locker interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

// RedisLocker implements Locker with SET NX and a TTL
type RedisLocker struct {
	Client redis.Cmdable
}

// TryAcquireLock returns true when this owner now holds the lock
func (l RedisLocker) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, "scheduler:lock:"+name, owner, ttl).Result()
}

// ReleaseLock drops the lock if owner still holds it
func (l RedisLocker) ReleaseLock(ctx context.Context, name, owner string) error {
	key := "scheduler:lock:" + name
	holder, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != owner {
		return nil
	}
	return l.Client.Del(ctx, key).Err()
}

// Scheduler handles periodic background jobs: log rotation, orphaned check
// reconciliation and, when configured, expired token purging
type Scheduler struct {
	cron       *cron.Cron
	Files      *logging.Files
	Checks     *resources.Checks
	Tokens     *resources.Tokens
	LockDB     Locker
	conf       config.Config
	instanceID string
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance. files and lock may be nil.
func NewScheduler(conf config.Config, files *logging.Files, manager *resources.Manager, lock Locker) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Files:      files,
		Checks:     manager.Checks,
		Tokens:     manager.Tokens,
		LockDB:     lock,
		conf:       conf,
		instanceID: instanceID,
		now:        time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	if s.Files != nil && s.conf.LogRotateSchedule != "" {
		if _, err := s.cron.AddFunc(s.conf.LogRotateSchedule, s.rotateLogs); err != nil {
			zap.S().Errorw("failed to register log rotation job", "schedule", s.conf.LogRotateSchedule, "error", err)
		}
	}

	if s.conf.ReconcileSchedule != "" {
		if _, err := s.cron.AddFunc(s.conf.ReconcileSchedule, s.reconcileChecks); err != nil {
			zap.S().Errorw("failed to register reconcile job", "schedule", s.conf.ReconcileSchedule, "error", err)
		}
	}

	// expired tokens are kept unless a grace period is configured
	if s.conf.TokenPurgeAfter > 0 {
		if _, err := s.cron.AddFunc("@every "+s.conf.TokenPurgeAfter.String(), s.purgeTokens); err != nil {
			zap.S().Errorw("failed to register token purge job", "error", err)
		}
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "jobs", len(s.cron.Entries()), "instance", s.instanceID)
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// JobLogName is the log file every job run is recorded in
const JobLogName = "jobs"

// jobRecord is one line of the job log
type jobRecord struct {
	Job      string    `json:"job"`
	Instance string    `json:"instance"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
	Affected int       `json:"affected"`
	Error    string    `json:"error,omitempty"`
}

// runLocked runs job unless another instance holds its lock, then records the run
func (s *Scheduler) runLocked(name string, ttl time.Duration, job func(ctx context.Context) (int, error)) {
	ctx, cancel := api.WithJobTimeout(context.Background())
	defer cancel()

	if s.LockDB != nil {
		acquired, err := s.LockDB.TryAcquireLock(ctx, name, s.instanceID, ttl)
		if err != nil {
			zap.S().Errorw("failed to acquire job lock", "job", name, "error", err)
			return
		}
		if !acquired {
			zap.S().Debugw("job already running on another instance, skipping", "job", name)
			return
		}
		defer func() {
			if err := s.LockDB.ReleaseLock(ctx, name, s.instanceID); err != nil {
				zap.S().Warnw("failed to release job lock", "job", name, "error", err)
			}
		}()
	}

	started := s.now()
	begin := time.Now()
	affected, err := job(ctx)
	rec := jobRecord{
		Job:      name,
		Instance: s.instanceID,
		Started:  started,
		Duration: time.Since(begin).String(),
		Affected: affected,
	}
	if err != nil {
		rec.Error = err.Error()
		zap.S().Errorw("job failed", "job", name, "affected", affected, "error", err)
	} else {
		zap.S().Infow("job finished", "job", name, "affected", affected)
	}
	s.record(rec)
}

// record appends rec to the job log when log files are configured
func (s *Scheduler) record(rec jobRecord) {
	if s.Files == nil {
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		zap.S().Warnw("could not encode job record", "job", rec.Job, "error", err)
		return
	}
	if err := s.Files.Append(JobLogName, string(b)); err != nil {
		zap.S().Warnw("could not write job log", "job", rec.Job, "error", err)
	}
}

func (s *Scheduler) rotateLogs() {
	s.runLocked("rotate_logs", 10*time.Minute, func(ctx context.Context) (int, error) {
		archived, err := s.Files.Rotate(s.now())
		return len(archived), err
	})
}

func (s *Scheduler) reconcileChecks() {
	s.runLocked("reconcile_checks", 10*time.Minute, func(ctx context.Context) (int, error) {
		removed, err := s.Checks.Reconcile(ctx)
		return len(removed), err
	})
}

func (s *Scheduler) purgeTokens() {
	s.runLocked("purge_tokens", 10*time.Minute, func(ctx context.Context) (int, error) {
		purged, err := s.Tokens.PurgeExpired(ctx, s.conf.TokenPurgeAfter)
		return len(purged), err
	})
}
