package view

import "testing"

func TestNewEngine(t *testing.T) {
	if _, err := NewEngine(); err != nil {
		t.Fatalf("parse templates: %v", err)
	}
}
