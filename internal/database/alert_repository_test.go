package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/scoutdeck/enricher/internal/database"
	"github.com/scoutdeck/enricher/internal/domain"
)

func TestAlertRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAlertRepository(db)
	ctx := context.Background()

	httpStatus := 429

	mock.ExpectExec("INSERT INTO scrape_alerts").
		WithArgs(sqlmock.AnyArg(), "player", "p1", "rate_limit", "HTTP Error 429: Too Many Requests", &httpStatus).
		WillReturnResult(sqlmock.NewResult(0, 1))

	alert := &domain.ScrapeAlert{
		EntityType:   "player",
		EntityID:     "p1",
		ErrorType:    "rate_limit",
		ErrorMessage: "HTTP Error 429: Too Many Requests",
		HTTPStatus:   &httpStatus,
	}

	if err := repo.Upsert(ctx, alert); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if alert.ID == "" {
		t.Error("expected a generated alert id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAlertRepository_ListPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewAlertRepository(db)
	ctx := context.Background()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "entity_type", "entity_id", "first_seen_at", "last_seen_at",
		"seen_count", "error_type", "error_message", "http_status", "status",
	}).AddRow("a1", "player", "p1", now, now, 3, "fetch_error", "timeout after 30s", nil, domain.AlertStatusPending)

	mock.ExpectQuery("SELECT (.+) FROM scrape_alerts").
		WithArgs(50).
		WillReturnRows(rows)

	alerts, err := repo.ListPending(ctx, 50)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].SeenCount != 3 {
		t.Errorf("expected seen_count=3, got %d", alerts[0].SeenCount)
	}
}
