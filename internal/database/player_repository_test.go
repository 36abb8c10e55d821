package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/scoutdeck/enricher/internal/database"
	"github.com/scoutdeck/enricher/internal/domain"
)

func TestPlayerRepository_CountTargets(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPlayerRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))

	count, err := repo.CountTargets(ctx)
	if err != nil {
		t.Fatalf("CountTargets() error = %v", err)
	}
	if count != 250 {
		t.Errorf("expected 250 targets, got %d", count)
	}
}

func TestPlayerRepository_FindTargets(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPlayerRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "name", "profile_url", "date_of_birth", "team_name",
		"team_country", "team_loan_from", "position", "height", "agency",
	}).
		AddRow("p1", "Alba Romero", "https://example.com/p1", nil, "FC Example", "Spain", nil, "Centre-Back", 185, nil).
		AddRow("p2", "Bruno Díaz", "https://example.com/p2", nil, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM players").
		WithArgs(5, 100).
		WillReturnRows(rows)

	players, err := repo.FindTargets(ctx, 100, 5)
	if err != nil {
		t.Fatalf("FindTargets() error = %v", err)
	}

	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].Name != "Alba Romero" {
		t.Errorf("expected name-ordered first row, got %s", players[0].Name)
	}
	if players[1].TeamName != nil {
		t.Errorf("expected nil team for sparse row, got %v", *players[1].TeamName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPlayerRepository_UpdateFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPlayerRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE players SET").
		WithArgs("CA Independiente", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	fields := domain.FieldMap{domain.FieldTeamName: "CA Independiente"}
	if err := repo.UpdateFields(ctx, "p1", fields); err != nil {
		t.Fatalf("UpdateFields() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPlayerRepository_UpdateFields_EmptyIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPlayerRepository(db)
	ctx := context.Background()

	if err := repo.UpdateFields(ctx, "p1", domain.FieldMap{}); err != nil {
		t.Fatalf("UpdateFields() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expected no statements, got: %v", err)
	}
}

func TestPlayerRepository_UpdateFields_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPlayerRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE players SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateFields(ctx, "missing", domain.FieldMap{domain.FieldFoot: "izquierdo"})
	if !errors.Is(err, database.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}
