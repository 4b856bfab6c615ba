//go:build integration_pg

package service

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"mdms/internal/core/authority"
	"mdms/internal/core/issuetype"
	"mdms/internal/modkit/repokit"
	"mdms/internal/platform/store"
	"mdms/internal/platform/store/migrate"
	"mdms/internal/platform/testkit"
	"mdms/internal/services/aggregate/domain"
	detect "mdms/internal/services/detect/domain"
	ticketsrepo "mdms/internal/services/tickets/repo"
	ticketsvc "mdms/internal/services/tickets/service"

	"github.com/google/uuid"
)

func TestApply_ParallelSameSpotPostgres(t *testing.T) {
	dsn := testkit.StartPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, err := store.Open(ctx, store.Config{AppName: "mdms-aggregate-test", PG: store.PGConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	if _, err := migrate.Up(ctx, s.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := ticketsvc.New(s.PG, ticketsrepo.NewPG())
	engine := New(st, authority.Default(), domain.Config{})

	const n = 12
	media := make([]uuid.UUID, n)
	for i := range media {
		media[i] = uuid.New()
		hash := make([]byte, 32)
		_, _ = rand.Read(hash)
		if _, err := s.PG.Exec(ctx, `insert into media_items (id, kind, content_hash, content_type, size_bytes)
            values ($1, 'image', $2, 'image/jpeg', 1)`, media[i], hash); err != nil {
			t.Fatalf("seed media: %v", err)
		}
	}

	at := time.Now().UTC()
	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			in := domain.Input{
				MediaID:    id,
				Location:   north(origin, float64(i%3)),
				At:         at,
				Detections: []detect.Detection{{MediaID: id, IssueType: issuetype.Pathholes, Confidence: 0.8}},
			}
			err := s.PG.Tx(ctx, func(q repokit.Queryer) error {
				out, err := engine.Apply(ctx, q, in)
				if err == nil {
					ids <- out[0].TicketID
				}
				return err
			})
			if err != nil {
				t.Errorf("apply: %v", err)
			}
		}(media[i])
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("tickets = %d, want 1", len(seen))
	}
	for id := range seen {
		tk, err := st.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(tk.SubTickets) != 1 || tk.SubTickets[0].MediaCount != n {
			t.Fatalf("subs = %+v", tk.SubTickets)
		}
	}
}
