package repository

import (
	"context"
	"database/sql"
	"testing"

	"kodbank/models"
)

func insertRecord(t *testing.T, d *sql.DB, repo *TransactionRepository, rec *models.Transaction) {
	t.Helper()
	tx, err := d.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.InsertTx(context.Background(), tx, rec); err != nil {
		_ = tx.Rollback()
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestTransactionRepository_ListAndCount(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	repo := NewTransactionRepository(d)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := users.Create(ctx, &models.User{Username: name, Email: name + "@example.com", Phone: "1", PasswordHash: "x"}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	alice := "alice"
	bob := "bob"
	records := []*models.Transaction{
		{ToUsername: "alice", Type: models.TransactionDeposit, Amount: 100, Description: "d1"},
		{FromUsername: &alice, ToUsername: "bob", Type: models.TransactionTransfer, Amount: 200, Description: "t1"},
		{FromUsername: &bob, ToUsername: "carol", Type: models.TransactionTransfer, Amount: 300, Description: "t2"},
	}
	for _, rec := range records {
		insertRecord(t, d, repo, rec)
		if rec.ID == 0 {
			t.Fatalf("insert did not set id: %+v", rec)
		}
	}

	// alice appears as recipient of d1 and sender of t1, not in t2.
	list, err := repo.ListByUsername(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", len(list))
	}
	// Newest first: t1 was inserted after d1.
	if list[0].Description != "t1" || list[1].Description != "d1" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].FromUsername == nil || *list[0].FromUsername != "alice" {
		t.Fatalf("sender not scanned: %+v", list[0])
	}
	if list[1].FromUsername != nil {
		t.Fatalf("deposit should have nil sender: %+v", list[1])
	}
	if list[1].CreatedAt.IsZero() {
		t.Fatalf("created_at not scanned: %+v", list[1])
	}

	if limited, _ := repo.ListByUsername(ctx, "alice", 1); len(limited) != 1 || limited[0].Description != "t1" {
		t.Fatalf("limit not applied: %+v", limited)
	}

	n, err := repo.CountByUsername(ctx, "bob")
	if err != nil || n != 2 {
		t.Fatalf("count for bob: n=%d err=%v", n, err)
	}
	if n, _ := repo.CountByUsername(ctx, "nobody"); n != 0 {
		t.Fatalf("count for stranger: %d", n)
	}
}

func TestTransactionRepository_InsertRollsBackWithTx(t *testing.T) {
	d := openTestDB(t)
	users := NewUserRepository(d)
	repo := NewTransactionRepository(d)
	ctx := context.Background()

	if _, err := users.Create(ctx, &models.User{Username: "alice", Email: "a@example.com", Phone: "1", PasswordHash: "x"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tx, err := d.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	rec := &models.Transaction{ToUsername: "alice", Type: models.TransactionDeposit, Amount: 100, Description: "doomed"}
	if err := repo.InsertTx(ctx, tx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if n, _ := repo.CountByUsername(ctx, "alice"); n != 0 {
		t.Fatalf("record survived rollback: %d", n)
	}
}
