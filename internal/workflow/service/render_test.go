package service

import (
	"testing"
	"time"

	"buildportal/internal/workflow/transport"
)

func TestRender_StringAndNumberPlaceholders(t *testing.T) {
	data := map[string]transport.Value{
		"projectId": transport.String("riverside-42"),
		"amount":    transport.Number(287.5),
	}

	got := Render("Quotation of {amount:.2f} EUR for project {projectId}", data)
	want := "Quotation of 287.50 EUR for project riverside-42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_DateFormats(t *testing.T) {
	date := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	data := map[string]transport.Value{"dueDate": transport.Date(date)}

	if got := Render("due {dueDate}", data); got != "due 2026-03-15" {
		t.Fatalf("default layout: got %q", got)
	}
	if got := Render("due {dueDate:02 Jan 2006}", data); got != "due 15 Mar 2026" {
		t.Fatalf("custom layout: got %q", got)
	}
}

func TestRender_MissingKeyStaysVerbatim(t *testing.T) {
	got := Render("Hello {name}, welcome to {projectName}", map[string]transport.Value{
		"name": transport.String("Alex"),
	})
	want := "Hello Alex, welcome to {projectName}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRender_NullRendersEmpty(t *testing.T) {
	got := Render("note: {note}", map[string]transport.Value{"note": transport.Null()})
	if got != "note: " {
		t.Fatalf("got %q", got)
	}
}

func TestRender_NumberWithoutFormat(t *testing.T) {
	got := Render("{count} items", map[string]transport.Value{"count": transport.Number(3)})
	if got != "3 items" {
		t.Fatalf("got %q", got)
	}
}

func TestRender_NoPlaceholders(t *testing.T) {
	got := Render("plain text", nil)
	if got != "plain text" {
		t.Fatalf("got %q", got)
	}
}
