package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NodeDeleter deletes one remote Graph node; implemented by meta.Client.
type NodeDeleter interface {
	DeleteNode(ctx context.Context, id string) error
}

// RollbackContext carries what the incident report needs: who provoked the
// partial creation, what was attempted, and which ids exist remotely.
type RollbackContext struct {
	UserEmail   string
	ProjectName string
	URL         string
	Country     string
	Reason      string
	CreatedIDs  []string
}

type RollbackResult struct {
	RolledBack bool     `json:"rolledBack"`
	Deleted    []string `json:"deleted"`
}

// Rollback compensates a partially created remote resource chain: best-effort
// concurrent deletion of whatever exists, then an operator notification.
// Remote creation is not transactional across the chain, so compensation plus
// operator visibility is the consistency mechanism.
type Rollback struct {
	deleter NodeDeleter
	mailer  Mailer
	log     *zap.Logger
}

func NewRollback(deleter NodeDeleter, mailer Mailer, log *zap.Logger) *Rollback {
	return &Rollback{deleter: deleter, mailer: mailer, log: log}
}

// Run deletes every id concurrently. One deletion failing neither blocks nor
// cancels the others; failures are logged and reported to the operator, never
// returned.
func (r *Rollback) Run(ctx context.Context, rc RollbackContext) *RollbackResult {
	ids := dedupe(rc.CreatedIDs)
	result := &RollbackResult{Deleted: []string{}}

	var mu sync.Mutex
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := r.deleter.DeleteNode(ctx, id); err != nil {
				r.log.Warn("rollback deletion failed",
					zap.String("remote_id", id),
					zap.String("reason", rc.Reason),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			result.Deleted = append(result.Deleted, id)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result.RolledBack = len(result.Deleted) > 0

	report := r.composeReport(rc, ids, result.Deleted)
	if err := r.mailer.Send(ctx, "Campaign creation rolled back", report); err != nil {
		r.log.Warn("rollback incident report not sent", zap.Error(err))
	}

	return result
}

func (r *Rollback) composeReport(rc RollbackContext, created, deleted []string) string {
	var b strings.Builder
	b.WriteString("A campaign creation chain failed mid-way and was rolled back.\n\n")
	fmt.Fprintf(&b, "User:    %s\n", rc.UserEmail)
	fmt.Fprintf(&b, "Project: %s\n", rc.ProjectName)
	fmt.Fprintf(&b, "URL:     %s\n", rc.URL)
	fmt.Fprintf(&b, "Country: %s\n", rc.Country)
	fmt.Fprintf(&b, "Reason:  %s\n\n", rc.Reason)
	fmt.Fprintf(&b, "Remote ids created: %s\n", strings.Join(created, ", "))
	fmt.Fprintf(&b, "Remote ids deleted: %s\n", strings.Join(deleted, ", "))
	if len(deleted) < len(created) {
		b.WriteString("\nSome resources could NOT be deleted and may still incur spend. Manual cleanup required.\n")
	}
	return b.String()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
