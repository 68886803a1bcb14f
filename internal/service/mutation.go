package service

import (
	"strings"

	"github.com/djedy/eventledger/internal/logger"
)

// mutation runs the writes of one ledger operation in order. The backing
// store has no transactions, so instead of rolling back it records which
// steps committed and reports them when a later step fails.
type mutation struct {
	op        string
	ref       string
	committed []string
}

func newMutation(op, ref string) *mutation {
	return &mutation{op: op, ref: ref}
}

func (m *mutation) step(name string, fn func() error) error {
	if err := fn(); err != nil {
		if len(m.committed) == 0 {
			return err
		}
		logger.Error("Ledger mutation left partial writes",
			"op", m.op,
			"ref", m.ref,
			"failed_step", name,
			"committed", strings.Join(m.committed, ","),
			"error", err,
		)
		return &PartialWriteError{
			Op:        m.op,
			Step:      name,
			Committed: append([]string(nil), m.committed...),
			Err:       err,
		}
	}
	m.committed = append(m.committed, name)
	return nil
}
