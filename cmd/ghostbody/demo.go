package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/bodyindex"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/view"
)

// Field indices of the person type.
const (
	personName = iota
	personEmail
	personFriends
	personScores
)

var person = fieldmap.MustSchema("person",
	fieldmap.Field{Name: "name", Kind: fieldmap.KindUTF16},
	fieldmap.Field{Name: "email", Kind: fieldmap.KindUTF8},
	fieldmap.Field{Name: "friends", Kind: fieldmap.KindArray, ElemSize: 16},
	fieldmap.Field{Name: "scores", Kind: fieldmap.KindArray, ElemSize: 8, Encoding: fieldmap.Large},
)

func runDemo(ctx context.Context, repo *txn.Repository, n int) error {
	idx := bodyindex.New(repo)
	if err := writeBodies(ctx, repo, idx, n); err != nil {
		return err
	}
	return readBodies(ctx, repo, idx)
}

func writeBodies(ctx context.Context, repo *txn.Repository, idx *bodyindex.Index, n int) error {
	wctx, tx, err := repo.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Close() }()

	var prev []uuid.UUID
	for i := range n {
		b, err := body.New(tx, person)
		if err != nil {
			return err
		}
		if err := fillPerson(tx, b, i, prev); err != nil {
			return fmt.Errorf("failed to fill body %s: %w", b.ID(), err)
		}
		prev = append(prev, uuid.New())
	}
	idx.ReadModifiedBodies(tx, func(b *body.Body) bool {
		slog.DebugContext(wctx, "Modified", "id", b.ID(), "bytes", b.Occupied())
		return true
	})
	return tx.Commit(wctx)
}

func fillPerson(tx *txn.Txn, b *body.Body, i int, friends []uuid.UUID) error {
	name, err := view.BindString16(tx, b, personName)
	if err != nil {
		return err
	}
	email, err := view.BindString8(tx, b, personEmail)
	if err != nil {
		return err
	}
	ids, err := view.Bind[uuid.UUID](tx, b, personFriends)
	if err != nil {
		return err
	}
	scores, err := view.Bind[float64](tx, b, personScores)
	if err != nil {
		return err
	}
	if err := name.Set(fmt.Sprintf("Person %d", i)); err != nil {
		return err
	}
	if err := email.Set(fmt.Sprintf("person%d@example.com", i)); err != nil {
		return err
	}
	if err := ids.SetAll(friends); err != nil {
		return err
	}
	for j := range i + 1 {
		if err := scores.Append(float64(j) * 1.5); err != nil {
			return err
		}
	}
	return b.CheckLayout()
}

func readBodies(ctx context.Context, repo *txn.Repository, idx *bodyindex.Index) error {
	rctx, tx, err := repo.BeginRead(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Close() }()
	for _, id := range idx.Committed(person.Name()) {
		b, err := body.Load(tx, person, id)
		if err != nil {
			return err
		}
		name, err := view.BindString16(tx, b, personName)
		if err != nil {
			return err
		}
		email, err := view.BindString8(tx, b, personEmail)
		if err != nil {
			return err
		}
		ids, err := view.Bind[uuid.UUID](tx, b, personFriends)
		if err != nil {
			return err
		}
		scores, err := view.Bind[float64](tx, b, personScores)
		if err != nil {
			return err
		}
		var sum float64
		for _, s := range scores.Values() {
			sum += s
		}
		slog.InfoContext(rctx, "Body",
			"id", id,
			"name", name.String(),
			"email", email.String(),
			"friends", ids.Len(),
			"score_sum", sum,
			"bytes", b.Occupied())
	}
	return nil
}
