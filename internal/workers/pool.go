// Package workers runs best-effort, off-the-request-path work: most
// importantly the credit debit at the end of a turn, which must never
// block or fail the reply that turn has already produced.
package workers

import (
	"context"
	"log/slog"
	"time"

	"epis-realtime/server/internal/billing"

	"github.com/alitto/pond"
)

// Pool wraps two named worker pools: one dedicated to credit debits so a
// slow billing provider never starves other background work, one general
// purpose.
type Pool struct {
	Credit  *pond.WorkerPool
	General *pond.WorkerPool
}

type Config struct {
	CreditWorkers  int
	GeneralWorkers int
}

func NewPool(cfg Config) *Pool {
	if cfg.CreditWorkers <= 0 {
		cfg.CreditWorkers = 4
	}
	if cfg.GeneralWorkers <= 0 {
		cfg.GeneralWorkers = 10
	}
	return &Pool{
		Credit: pond.New(
			cfg.CreditWorkers,
			cfg.CreditWorkers*2,
			pond.MinWorkers(1),
			pond.IdleTimeout(30*time.Second),
		),
		General: pond.New(
			cfg.GeneralWorkers,
			cfg.GeneralWorkers*2,
			pond.MinWorkers(1),
			pond.IdleTimeout(30*time.Second),
		),
	}
}

// SubmitSpendCredit fires the debit off the request path. It is submitted
// after the reply has been synthesized, and the task may run before or after
// the session loop sends that reply; any failure here is logged and
// swallowed — one turn going uncharged is preferable to stalling or
// re-litigating an already-produced reply.
func (p *Pool) SubmitSpendCredit(userID string, client billing.Client) {
	p.Credit.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("credit debit task panicked", "error", r, "user_id", userID)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.SpendCredit(ctx, userID); err != nil {
			slog.Warn("credit debit failed, turn not charged", "user_id", userID, "error", err)
		}
	})
}

// Submit runs a fire-and-forget task on the general pool.
func (p *Pool) Submit(task func()) {
	p.General.Submit(task)
}

func (p *Pool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"credit_pool": map[string]interface{}{
			"running_workers":  p.Credit.RunningWorkers(),
			"idle_workers":     p.Credit.IdleWorkers(),
			"submitted_tasks":  p.Credit.SubmittedTasks(),
			"waiting_tasks":    p.Credit.WaitingTasks(),
			"successful_tasks": p.Credit.SuccessfulTasks(),
			"failed_tasks":     p.Credit.FailedTasks(),
		},
		"general_pool": map[string]interface{}{
			"running_workers":  p.General.RunningWorkers(),
			"idle_workers":     p.General.IdleWorkers(),
			"submitted_tasks":  p.General.SubmittedTasks(),
			"waiting_tasks":    p.General.WaitingTasks(),
			"successful_tasks": p.General.SuccessfulTasks(),
			"failed_tasks":     p.General.FailedTasks(),
		},
	}
}

func (p *Pool) Shutdown() {
	slog.Info("shutting down worker pools")
	p.Credit.StopAndWait()
	p.General.StopAndWait()
	slog.Info("worker pools stopped")
}
