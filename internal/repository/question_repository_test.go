package repository

import (
	"context"
	"regexp"
	"testing"

	"bingo-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSeedEncodesOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (question) DO NOTHING")).
		WithArgs("Who won 2002?", "Brazil", `["Brazil","Germany"]`, 10).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (question) DO NOTHING")).
		WithArgs("Who won 2010?", "Spain", `["Spain","Netherlands"]`, 20).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewQuestionRepository(db).Seed(context.Background(), []models.Question{
		{Text: "Who won 2002?", CorrectAnswer: "Brazil", Options: []string{"Brazil", "Germany"}, Points: 10},
		{Text: "Who won 2010?", CorrectAnswer: "Spain", Options: []string{"Spain", "Netherlands"}, Points: 20},
	})
	if err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListQuestions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM questions")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "correct_answer", "options", "points"}).
			AddRow(1, "Who won 2002?", "Brazil", []byte(`["Brazil","Germany"]`), 10).
			AddRow(2, "Who won 2010?", "Spain", []byte(`["Spain","Netherlands"]`), 20))

	questions, err := NewQuestionRepository(db).ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("ListQuestions error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}
	if questions[1].CorrectAnswer != "Spain" || len(questions[1].Options) != 2 || questions[1].Options[1] != "Netherlands" {
		t.Fatalf("questions[1] = %+v", questions[1])
	}
}

func TestListQuestionsMalformedOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM questions")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question", "correct_answer", "options", "points"}).
			AddRow(5, "Broken?", "x", []byte(`not json`), 10))

	if _, err := NewQuestionRepository(db).ListQuestions(context.Background()); err == nil {
		t.Fatal("expected malformed options to fail")
	}
}
