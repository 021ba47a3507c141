package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/hashmodel-db/hashmodel/internal/db"
)

// TxHSet writes all items inside one MULTI/EXEC block on a dedicated
// connection. Either every HSET is applied or none is.
func (s *Store) TxHSet(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	err := s.client.Dedicated(func(c rueidis.DedicatedClient) error {
		cmds := make([]rueidis.Completed, 0, len(items)+2)
		cmds = append(cmds, c.B().Multi().Build())
		for _, item := range items {
			hs := c.B().Hset().Key(item.Key).FieldValue()
			for k, v := range item.Fields {
				hs = hs.FieldValue(k, v)
			}
			cmds = append(cmds, hs.Build())
		}
		cmds = append(cmds, c.B().Exec().Build())

		results := c.DoMulti(ctx, cmds...)

		// MULTI and each queued HSET must ack before EXEC counts.
		for i := 0; i < len(results)-1; i++ {
			if err := results[i].Error(); err != nil {
				return fmt.Errorf("queue command %d: %w", i, err)
			}
		}

		if err := results[len(results)-1].Error(); err != nil {
			if rueidis.IsRedisNil(err) {
				return db.ErrTxAborted
			}
			return err
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	return nil
}
