package services

import (
	"errors"
	"testing"

	"shopledger/internal/core"
)

func TestEditLifecycle(t *testing.T) {
	e := NewEditSet()

	if got := e.Row("u1"); got.Phase != PhaseViewing {
		t.Fatalf("initial phase = %s", got.Phase)
	}

	e.Begin("u1", core.Money{Amount: 150000})
	row := e.Row("u1")
	if row.Phase != PhaseEditing || row.Input != "150000" {
		t.Fatalf("after begin: %+v, input must be seeded with the current amount", row)
	}

	e.SetInput("u1", "200000")
	input, ok := e.Submit("u1")
	if !ok || input != "200000" {
		t.Fatalf("submit = %q, %v", input, ok)
	}
	if e.Row("u1").Phase != PhaseSubmitting {
		t.Fatal("row not in submitting")
	}

	e.Finish("u1", nil)
	if got := e.Row("u1"); got.Phase != PhaseViewing || got.Err != "" {
		t.Fatalf("after success: %+v", got)
	}
}

func TestEditFailureReturnsToViewingWithoutEdits(t *testing.T) {
	e := NewEditSet()
	e.Begin("u1", core.Money{Amount: 1000})
	e.SetInput("u1", "9999")
	if _, ok := e.Submit("u1"); !ok {
		t.Fatal("submit refused")
	}

	e.Finish("u1", errors.New("server said no"))
	row := e.Row("u1")
	if row.Phase != PhaseViewing {
		t.Errorf("phase = %s, want viewing after failure", row.Phase)
	}
	if row.Err != "server said no" {
		t.Errorf("err = %q", row.Err)
	}
	if row.Input != "" {
		t.Errorf("edits preserved after failure: %q", row.Input)
	}
}

func TestEditCancelDiscards(t *testing.T) {
	e := NewEditSet()
	e.Begin("u1", core.Money{Amount: 1000})
	e.SetInput("u1", "555")
	e.Cancel("u1")
	if got := e.Row("u1"); got.Phase != PhaseViewing || got.Input != "" {
		t.Fatalf("after cancel: %+v", got)
	}
}

func TestBeginDropsOtherRows(t *testing.T) {
	e := NewEditSet()
	e.Begin("u1", core.Money{Amount: 1})
	e.Begin("u2", core.Money{Amount: 2})
	if e.Row("u1").Phase != PhaseViewing {
		t.Error("starting a second edit must drop the first row back to viewing")
	}
	if e.Row("u2").Phase != PhaseEditing {
		t.Error("second row not editing")
	}
}

func TestSubmitOnlyFromEditing(t *testing.T) {
	e := NewEditSet()
	if _, ok := e.Submit("u1"); ok {
		t.Fatal("submit allowed from viewing")
	}
	e.Begin("u1", core.Money{})
	if _, ok := e.Submit("u1"); !ok {
		t.Fatal("submit refused from editing")
	}
	if _, ok := e.Submit("u1"); ok {
		t.Fatal("double submit allowed")
	}
}
